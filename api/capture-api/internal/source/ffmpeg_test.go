package internal_source

import (
	"context"
	"testing"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/stretchr/testify/assert"
)

func TestFFmpegVideoDevice_CameraArgs(t *testing.T) {
	d := NewFFmpegVideoDevice(newTestLogger(), internal_type.SourceCamera, FFmpegOptions{
		Path: "ffmpeg", Format: "v4l2", Device: "/dev/video0", FrameRate: 30,
	})
	args := d.args(internal_type.DefaultConstraints())
	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2",
		"-framerate", "30",
		"-video_size", "640x480",
		"-i", "/dev/video0",
		"-vf", "scale=640:480",
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	}, args)
}

func TestFFmpegVideoDevice_ScreenIsScaledNotCropped(t *testing.T) {
	d := NewFFmpegVideoDevice(newTestLogger(), internal_type.SourceScreen, FFmpegOptions{
		Path: "ffmpeg", Format: "x11grab", Device: ":0.0",
	})
	args := d.args(internal_type.DefaultConstraints())
	assert.NotContains(t, args, "-video_size")
	assert.Contains(t, args, "scale=640:480")
}

func TestFFmpegAudioDevice_Args(t *testing.T) {
	d := NewFFmpegAudioDevice(newTestLogger(), FFmpegOptions{Path: "ffmpeg", Format: "pulse", Device: "default", SampleRate: 48000})
	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "pulse",
		"-i", "default",
		"-ac", "1",
		"-ar", "48000",
		"-f", "s16le",
		"pipe:1",
	}, d.args())
}

func TestFFmpegVideoDevice_MissingBinaryIsUnavailable(t *testing.T) {
	d := NewFFmpegVideoDevice(newTestLogger(), internal_type.SourceCamera, FFmpegOptions{
		Path: "/nonexistent/ffmpeg-binary", Format: "v4l2", Device: "/dev/video0", AcquireTimeout: time.Second,
	})
	_, err := d.RequestCapture(context.Background(), internal_type.DefaultConstraints())
	assert.ErrorIs(t, err, internal_type.ErrSourceUnavailable)
}
