// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_encoder

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCanvas struct{ frames chan image.Image }

func (s *stubCanvas) ID() string                    { return "canvas" }
func (s *stubCanvas) Kind() internal_type.TrackKind { return internal_type.TrackVideo }
func (s *stubCanvas) Label() string                 { return "canvas" }
func (s *stubCanvas) Stop()                         {}
func (s *stubCanvas) Ended() bool                   { return false }
func (s *stubCanvas) Frames() <-chan image.Image    { return s.frames }

type stubMic struct{}

func (stubMic) ID() string                    { return "mic" }
func (stubMic) Kind() internal_type.TrackKind { return internal_type.TrackAudio }
func (stubMic) Label() string                 { return "mic" }
func (stubMic) Stop()                         {}
func (stubMic) Ended() bool                   { return false }
func (stubMic) Format() internal_type.AudioFormat {
	return internal_type.AudioFormat{SampleRate: 48000, Channels: 1, BitsPerSample: 16}
}
func (stubMic) Subscribe(int) (<-chan []byte, func()) { return make(chan []byte), func() {} }

func testLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(commons.Level("error"))
	require.NoError(t, err)
	return logger
}

func webmOptions() internal_type.EncoderOptions {
	return internal_type.EncoderOptions{
		MimeType:  internal_type.ArtifactMimeType,
		Width:     internal_type.CaptureWidth,
		Height:    internal_type.CaptureHeight,
		FrameRate: 30,
	}
}

func newEncoder(t *testing.T, stream *internal_type.MediaStream, opts Options) *ffmpegEncoder {
	t.Helper()
	enc, err := NewFFmpegEncoder(testLogger(t), stream, webmOptions(), opts)
	require.NoError(t, err)
	return enc.(*ffmpegEncoder)
}

func TestArgs_VideoOnly(t *testing.T) {
	enc := newEncoder(t, &internal_type.MediaStream{Video: &stubCanvas{}}, Options{VideoBitrate: "1M"})
	args := strings.Join(enc.args(), " ")

	assert.Contains(t, args, "-f rawvideo -pix_fmt rgba -video_size 640x480 -framerate 30 -i pipe:0")
	assert.Contains(t, args, "-c:v libvpx")
	assert.Contains(t, args, "-b:v 1M")
	assert.NotContains(t, args, "pipe:3")
	assert.NotContains(t, args, "libopus")
	assert.True(t, strings.HasSuffix(args, "-f webm pipe:1"))
}

func TestArgs_WithMicrophone(t *testing.T) {
	enc := newEncoder(t, &internal_type.MediaStream{Video: &stubCanvas{}, Audio: stubMic{}}, Options{})
	args := strings.Join(enc.args(), " ")

	assert.Contains(t, args, "-f s16le -ar 48000 -ac 1 -i pipe:3")
	assert.Contains(t, args, "-c:a libopus")
	assert.NotContains(t, args, "-b:v")
}

func TestNewFFmpegEncoder_Validation(t *testing.T) {
	_, err := NewFFmpegEncoder(testLogger(t), nil, webmOptions(), Options{})
	assert.ErrorIs(t, err, internal_type.ErrNoTracks)

	opts := webmOptions()
	opts.MimeType = "video/mp4"
	_, err = NewFFmpegEncoder(testLogger(t), &internal_type.MediaStream{Video: &stubCanvas{}}, opts, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedMime)
}

func TestControlsBeforeStart(t *testing.T) {
	enc := newEncoder(t, &internal_type.MediaStream{Video: &stubCanvas{}}, Options{})
	assert.ErrorIs(t, enc.Pause(), ErrNotStarted)
	assert.ErrorIs(t, enc.Resume(), ErrNotStarted)
	assert.ErrorIs(t, enc.Stop(), ErrNotStarted)
}

func TestStart_MissingBinary(t *testing.T) {
	enc := newEncoder(t, &internal_type.MediaStream{Video: &stubCanvas{}}, Options{Path: "/nonexistent/ffmpeg"})
	err := enc.Start(context.Background())
	assert.Error(t, err)
	assert.ErrorIs(t, enc.Start(context.Background()), ErrAlreadyStarted)
}

func TestRawFrame_ConvertsForeignImages(t *testing.T) {
	enc := newEncoder(t, &internal_type.MediaStream{Video: &stubCanvas{}}, Options{})
	buf := image.NewRGBA(image.Rect(0, 0, internal_type.CaptureWidth, internal_type.CaptureHeight))

	exact := image.NewRGBA(buf.Bounds())
	assert.Same(t, &exact.Pix[0], &enc.rawFrame(exact, buf)[0])

	gray := image.NewGray(buf.Bounds())
	for i := range gray.Pix {
		gray.Pix[i] = 0x80
	}
	raw := enc.rawFrame(gray, buf)
	assert.Len(t, raw, internal_type.CaptureWidth*internal_type.CaptureHeight*4)
	assert.Equal(t, color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, buf.RGBAAt(10, 10))
}
