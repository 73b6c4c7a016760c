package internal_source

import (
	"image"
	"testing"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/stretchr/testify/assert"
)

func TestVideoTrack_CurrentFrame(t *testing.T) {
	stopped := 0
	track := newVideoTrack("cam", func() { stopped++ })

	_, ok := track.CurrentFrame()
	assert.False(t, ok, "no frame before the first one arrives")

	track.setFrame(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	frame, ok := track.CurrentFrame()
	assert.True(t, ok)
	assert.Equal(t, 4, frame.Bounds().Dx())

	track.Stop()
	track.Stop()
	assert.Equal(t, 1, stopped)
	assert.True(t, track.Ended())
	_, ok = track.CurrentFrame()
	assert.False(t, ok)
	assert.Equal(t, internal_type.TrackVideo, track.Kind())
	assert.NotEmpty(t, track.ID())
}

func TestAudioTrack_PublishIsNonBlocking(t *testing.T) {
	track := newAudioTrack("mic", internal_type.AudioFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}, nil)
	ch, cancel := track.Subscribe(1)

	track.publish([]byte{1})
	track.publish([]byte{2}) // dropped, subscriber is full
	assert.Equal(t, []byte{1}, <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	track.publish([]byte{3})
}

func TestAudioTrack_SubscribeAfterStop(t *testing.T) {
	track := newAudioTrack("mic", internal_type.AudioFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}, nil)
	track.Stop()
	ch, cancel := track.Subscribe(2)
	defer cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestFirstAudioTrack_OnlyFirst(t *testing.T) {
	format := internal_type.AudioFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
	first := newAudioTrack("first", format, nil)
	second := newAudioTrack("second", format, nil)
	src := newLiveSource(internal_type.TrackAudio, first, second)

	got, ok := internal_type.FirstAudioTrack(src)
	assert.True(t, ok)
	assert.Equal(t, first.ID(), got.ID())

	_, ok = internal_type.FirstAudioTrack(nil)
	assert.False(t, ok)
}
