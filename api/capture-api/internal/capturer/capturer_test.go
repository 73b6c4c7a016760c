// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capturer

import (
	"context"
	"testing"

	internal_compositor "github.com/rapidaai/capture-studio/api/capture-api/internal/compositor"
	internal_source "github.com/rapidaai/capture-studio/api/capture-api/internal/source"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSurface(t *testing.T) *internal_compositor.Surface {
	t.Helper()
	surface, err := internal_compositor.NewSurface(internal_type.CaptureWidth, internal_type.CaptureHeight)
	require.NoError(t, err)
	return surface
}

func TestCaptureStream_NoSurface(t *testing.T) {
	assert.Nil(t, CaptureStream(nil, nil))
}

func TestCaptureStream_VideoOnlyWithoutMicrophone(t *testing.T) {
	surface := newSurface(t)
	stream := CaptureStream(surface, nil)
	require.NotNil(t, stream)
	assert.NotNil(t, stream.Video)
	assert.Nil(t, stream.Audio)
	assert.Equal(t, internal_type.TrackVideo, stream.Video.Kind())
}

func TestCaptureStream_OneFramePerDraw(t *testing.T) {
	surface := newSurface(t)
	stream := CaptureStream(surface, nil)
	require.NotNil(t, stream)

	surface.Draw(nil)
	surface.Draw(nil)
	assert.Len(t, stream.Video.Frames(), 2)
}

func TestCaptureStream_FreshPerCall(t *testing.T) {
	surface := newSurface(t)
	first := CaptureStream(surface, nil)
	second := CaptureStream(surface, nil)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Video.ID(), second.Video.ID())
	assert.Equal(t, 2, surface.Subscribers())

	first.Close()
	assert.True(t, first.Video.Ended())
	assert.False(t, second.Video.Ended())
	assert.Equal(t, 1, surface.Subscribers())

	first.Close()
	assert.Equal(t, 1, surface.Subscribers())
}

func TestCaptureStream_UsesFirstMicrophoneTrack(t *testing.T) {
	logger, err := commons.NewApplicationLogger(commons.Level("error"))
	require.NoError(t, err)
	mic, err := internal_source.NewPatternAudioDevice(logger, 48000).RequestAudioCapture(context.Background())
	require.NoError(t, err)
	defer func() {
		for _, track := range mic.Tracks() {
			track.Stop()
		}
	}()

	stream := CaptureStream(newSurface(t), mic)
	require.NotNil(t, stream)
	require.NotNil(t, stream.Audio)
	assert.Equal(t, mic.Tracks()[0].ID(), stream.Audio.ID())

	stream.Close()
	assert.False(t, stream.Audio.Ended(), "closing a recording stream leaves the microphone running")
}
