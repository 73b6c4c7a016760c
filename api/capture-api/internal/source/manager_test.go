// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_source

import (
	"context"
	"errors"
	"testing"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() commons.Logger {
	l, _ := commons.NewApplicationLogger()
	return l
}

type deniedDevice struct{ calls int }

func (d *deniedDevice) RequestCapture(ctx context.Context, c internal_type.Constraints) (internal_type.LiveSource, error) {
	d.calls++
	return nil, errors.New("permission denied")
}

func (d *deniedDevice) RequestAudioCapture(ctx context.Context) (internal_type.LiveSource, error) {
	d.calls++
	return nil, errors.New("permission denied")
}

type emptyDevice struct{}

func (emptyDevice) RequestCapture(ctx context.Context, c internal_type.Constraints) (internal_type.LiveSource, error) {
	return newLiveSource(internal_type.TrackVideo), nil
}

func newPatternManager(logger commons.Logger) *Manager {
	return NewManager(logger,
		NewPatternVideoDevice(logger, internal_type.SourceCamera),
		NewPatternVideoDevice(logger, internal_type.SourceScreen),
		NewPatternAudioDevice(logger, 48000),
	)
}

func TestAcquireVideo_CameraAndScreenAt640x480(t *testing.T) {
	m := newPatternManager(newTestLogger())

	for _, kind := range []internal_type.SourceKind{internal_type.SourceCamera, internal_type.SourceScreen} {
		src, err := m.AcquireVideo(context.Background(), kind)
		require.NoError(t, err, kind)

		track, ok := internal_type.FirstVideoTrack(src)
		require.True(t, ok)
		frame, ok := track.CurrentFrame()
		require.True(t, ok)
		assert.Equal(t, 640, frame.Bounds().Dx())
		assert.Equal(t, 480, frame.Bounds().Dy())
		m.Release(src)
	}
}

func TestAcquireVideo_DeniedIsSourceUnavailableWithoutRetry(t *testing.T) {
	denied := &deniedDevice{}
	logger := newTestLogger()
	m := NewManager(logger, denied, denied, NewPatternAudioDevice(logger, 48000))

	src, err := m.AcquireVideo(context.Background(), internal_type.SourceScreen)
	assert.Nil(t, src)
	assert.ErrorIs(t, err, internal_type.ErrSourceUnavailable)
	assert.Equal(t, 1, denied.calls, "acquisition must not be retried")
}

func TestAcquireVideo_CancelledPicker(t *testing.T) {
	m := newPatternManager(newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.AcquireVideo(ctx, internal_type.SourceScreen)
	assert.ErrorIs(t, err, internal_type.ErrSourceUnavailable)
	assert.ErrorIs(t, err, internal_type.ErrCancelled)
}

func TestAcquireVideo_NoVideoTrack(t *testing.T) {
	logger := newTestLogger()
	m := NewManager(logger, emptyDevice{}, nil, nil)

	_, err := m.AcquireVideo(context.Background(), internal_type.SourceCamera)
	assert.ErrorIs(t, err, internal_type.ErrSourceUnavailable)
	assert.ErrorIs(t, err, internal_type.ErrNoTracks)

	_, err = m.AcquireVideo(context.Background(), internal_type.SourceScreen)
	assert.ErrorIs(t, err, internal_type.ErrSourceUnavailable)
}

func TestAcquireAudio_IndependentFailure(t *testing.T) {
	logger := newTestLogger()
	denied := &deniedDevice{}
	m := NewManager(logger, NewPatternVideoDevice(logger, internal_type.SourceCamera), nil, denied)

	_, err := m.AcquireAudio(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrSourceUnavailable)

	video, err := m.AcquireVideo(context.Background(), internal_type.SourceCamera)
	assert.NoError(t, err)
	assert.NotNil(t, video)
}

func TestRelease_StopsEveryTrack(t *testing.T) {
	m := newPatternManager(newTestLogger())
	video, err := m.AcquireVideo(context.Background(), internal_type.SourceCamera)
	require.NoError(t, err)
	audio, err := m.AcquireAudio(context.Background())
	require.NoError(t, err)

	m.Release(video)
	m.Release(video)
	m.Release(nil)
	for _, tr := range video.Tracks() {
		assert.True(t, tr.Ended())
	}
	track, _ := internal_type.FirstVideoTrack(video)
	assert.Nil(t, track, "released source exposes no live video track")

	for _, tr := range audio.Tracks() {
		assert.False(t, tr.Ended(), "audio is untouched by video release")
	}
	m.Release(audio)
}

func TestPatternMicrophone_DeliversPCMUntilStopped(t *testing.T) {
	m := newPatternManager(newTestLogger())
	audio, err := m.AcquireAudio(context.Background())
	require.NoError(t, err)

	track, ok := internal_type.FirstAudioTrack(audio)
	require.True(t, ok)
	assert.Equal(t, 48000, track.Format().SampleRate)

	ch, cancel := track.Subscribe(4)
	defer cancel()
	select {
	case pcm := <-ch:
		assert.Equal(t, 48000/50*2, len(pcm))
	case <-time.After(time.Second):
		t.Fatal("no PCM from pattern microphone")
	}

	m.Release(audio)
	for range ch {
	}
	_, open := <-ch
	assert.False(t, open, "subscriber channel closes when the track stops")
}
