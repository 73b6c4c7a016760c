// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// FFmpegOptions locate the ffmpeg binary and the platform input for one device.
type FFmpegOptions struct {
	Path string
	// Format is the ffmpeg input format: v4l2, x11grab, avfoundation, pulse, ...
	Format         string
	Device         string
	FrameRate      int
	SampleRate     int
	AcquireTimeout time.Duration
}

// FFmpegVideoDevice captures a camera or the screen through an ffmpeg child process
// emitting raw RGBA frames already scaled to the requested size.
type FFmpegVideoDevice struct {
	logger commons.Logger
	kind   internal_type.SourceKind
	opts   FFmpegOptions
}

func NewFFmpegVideoDevice(logger commons.Logger, kind internal_type.SourceKind, opts FFmpegOptions) *FFmpegVideoDevice {
	return &FFmpegVideoDevice{logger: logger, kind: kind, opts: opts}
}

func (d *FFmpegVideoDevice) args(c internal_type.Constraints) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", d.opts.Format}
	if d.opts.FrameRate > 0 {
		args = append(args, "-framerate", strconv.Itoa(d.opts.FrameRate))
	}
	// Cameras are asked for the target size directly; screens are grabbed whole and scaled.
	if d.kind == internal_type.SourceCamera {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", c.Width, c.Height))
	}
	return append(args,
		"-i", d.opts.Device,
		"-vf", fmt.Sprintf("scale=%d:%d", c.Width, c.Height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	)
}

func (d *FFmpegVideoDevice) RequestCapture(ctx context.Context, c internal_type.Constraints) (internal_type.LiveSource, error) {
	proc, err := startFFmpeg(d.opts.Path, d.args(c))
	if err != nil {
		return nil, fmt.Errorf("%w: starting %s capture: %w", internal_type.ErrSourceUnavailable, d.kind, err)
	}

	track := newVideoTrack(fmt.Sprintf("%s %s", d.opts.Format, d.opts.Device), proc.kill)
	first := make(chan struct{})
	go func() {
		frameSize := c.Width * c.Height * 4
		var once sync.Once
		for {
			img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
			if _, err := io.ReadFull(proc.stdout, img.Pix[:frameSize]); err != nil {
				proc.wait()
				track.Stop()
				return
			}
			track.setFrame(img)
			once.Do(func() { close(first) })
		}
	}()

	if err := proc.awaitFirst(ctx, first, d.opts.AcquireTimeout); err != nil {
		track.Stop()
		d.logger.Warnw("video capture failed", "kind", d.kind, "device", d.opts.Device, "error", err)
		return nil, err
	}
	d.logger.Infow("video capture granted", "kind", d.kind, "device", d.opts.Device)
	return newLiveSource(internal_type.TrackVideo, track), nil
}

// FFmpegAudioDevice captures the microphone as mono s16le PCM.
type FFmpegAudioDevice struct {
	logger commons.Logger
	opts   FFmpegOptions
}

func NewFFmpegAudioDevice(logger commons.Logger, opts FFmpegOptions) *FFmpegAudioDevice {
	return &FFmpegAudioDevice{logger: logger, opts: opts}
}

func (d *FFmpegAudioDevice) args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", d.opts.Format,
		"-i", d.opts.Device,
		"-ac", "1",
		"-ar", strconv.Itoa(d.opts.SampleRate),
		"-f", "s16le",
		"pipe:1",
	}
}

func (d *FFmpegAudioDevice) RequestAudioCapture(ctx context.Context) (internal_type.LiveSource, error) {
	proc, err := startFFmpeg(d.opts.Path, d.args())
	if err != nil {
		return nil, fmt.Errorf("%w: starting microphone capture: %w", internal_type.ErrSourceUnavailable, err)
	}

	format := internal_type.AudioFormat{SampleRate: d.opts.SampleRate, Channels: 1, BitsPerSample: 16}
	track := newAudioTrack(fmt.Sprintf("%s %s", d.opts.Format, d.opts.Device), format, proc.kill)
	first := make(chan struct{})
	go func() {
		// 20ms of mono 16-bit audio per buffer
		bufSize := d.opts.SampleRate / 50 * 2
		var once sync.Once
		for {
			pcm := make([]byte, bufSize)
			if _, err := io.ReadFull(proc.stdout, pcm); err != nil {
				proc.wait()
				track.Stop()
				return
			}
			track.publish(pcm)
			once.Do(func() { close(first) })
		}
	}()

	if err := proc.awaitFirst(ctx, first, d.opts.AcquireTimeout); err != nil {
		track.Stop()
		d.logger.Warnw("microphone capture failed", "device", d.opts.Device, "error", err)
		return nil, err
	}
	d.logger.Infow("microphone capture granted", "device", d.opts.Device)
	return newLiveSource(internal_type.TrackAudio, track), nil
}

type ffmpegProcess struct {
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	stderr   *bytes.Buffer
	exited   chan struct{}
	waitOnce sync.Once
	killOnce sync.Once
}

func startFFmpeg(path string, args []string) (*ffmpegProcess, error) {
	cmd := exec.Command(path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &ffmpegProcess{cmd: cmd, stdout: stdout, stderr: stderr, exited: make(chan struct{})}, nil
}

func (p *ffmpegProcess) wait() {
	p.waitOnce.Do(func() {
		_ = p.cmd.Wait()
		close(p.exited)
	})
}

func (p *ffmpegProcess) kill() {
	p.killOnce.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

// awaitFirst blocks until the first media buffer arrives. The process exiting early,
// the timeout or the caller giving up all count as the source being unavailable.
func (p *ffmpegProcess) awaitFirst(ctx context.Context, first <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-first:
		return nil
	case <-p.exited:
		return fmt.Errorf("%w: ffmpeg exited: %s", internal_type.ErrSourceUnavailable, strings.TrimSpace(p.stderr.String()))
	case <-timer.C:
		return fmt.Errorf("%w: no media within %s", internal_type.ErrSourceUnavailable, timeout)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", internal_type.ErrSourceUnavailable, ctx.Err())
		}
		return fmt.Errorf("%w: %w", internal_type.ErrSourceUnavailable, internal_type.ErrCancelled)
	}
}
