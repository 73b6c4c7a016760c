// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotStarted      = errors.New("encoder not started")
	ErrAlreadyStarted  = errors.New("encoder already started")
	ErrStopped         = errors.New("encoder stopped")
	ErrUnsupportedMime = errors.New("unsupported container mime type")
)

const (
	defaultChunkSize = 64 * 1024
	// audioSubscription is how many PCM buffers may queue before the microphone drops
	// them for the encoder.
	audioSubscription = 64
)

// Options configure the ffmpeg WebM pipeline.
type Options struct {
	Path         string
	VideoBitrate string
	ChunkSize    int
}

// NewFactory returns an EncoderFactory producing ffmpeg backed WebM encoders.
func NewFactory(logger commons.Logger, opts Options) internal_type.EncoderFactory {
	return func(stream *internal_type.MediaStream, eo internal_type.EncoderOptions) (internal_type.Encoder, error) {
		return NewFFmpegEncoder(logger, stream, eo, opts)
	}
}

// ffmpegEncoder muxes composited RGBA frames (stdin) and s16le PCM (fd 3) into WebM
// read back from stdout.
type ffmpegEncoder struct {
	logger  commons.Logger
	stream  *internal_type.MediaStream
	options internal_type.EncoderOptions
	opts    Options

	chunks  chan []byte
	stopped chan struct{}

	started  atomic.Bool
	paused   atomic.Bool
	stopOnce sync.Once

	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func NewFFmpegEncoder(logger commons.Logger, stream *internal_type.MediaStream, eo internal_type.EncoderOptions, opts Options) (internal_type.Encoder, error) {
	if stream == nil || stream.Video == nil {
		return nil, internal_type.ErrNoTracks
	}
	if eo.MimeType != internal_type.ArtifactMimeType {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMime, eo.MimeType)
	}
	if opts.Path == "" {
		opts.Path = "ffmpeg"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if eo.FrameRate <= 0 {
		eo.FrameRate = 30
	}
	return &ffmpegEncoder{
		logger:  logger,
		stream:  stream,
		options: eo,
		opts:    opts,
		chunks:  make(chan []byte),
		stopped: make(chan struct{}),
	}, nil
}

func (e *ffmpegEncoder) args() []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.options.Width, e.options.Height),
		"-framerate", strconv.Itoa(e.options.FrameRate),
		"-i", "pipe:0",
	}
	if e.stream.Audio != nil {
		format := e.stream.Audio.Format()
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(format.SampleRate),
			"-ac", strconv.Itoa(format.Channels),
			"-i", "pipe:3",
		)
	}
	args = append(args, "-c:v", "libvpx", "-deadline", "realtime", "-cpu-used", "8")
	if e.opts.VideoBitrate != "" {
		args = append(args, "-b:v", e.opts.VideoBitrate)
	}
	if e.stream.Audio != nil {
		args = append(args, "-c:a", "libopus")
	}
	return append(args, "-f", "webm", "pipe:1")
}

func (e *ffmpegEncoder) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	e.cmd = exec.Command(e.opts.Path, e.args()...)
	e.stderr = new(bytes.Buffer)
	e.cmd.Stderr = e.stderr

	videoIn, err := e.cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	var audioRead, audioWrite *os.File
	if e.stream.Audio != nil {
		audioRead, audioWrite, err = os.Pipe()
		if err != nil {
			return err
		}
		e.cmd.ExtraFiles = []*os.File{audioRead}
	}

	if err := e.cmd.Start(); err != nil {
		if audioRead != nil {
			audioRead.Close()
			audioWrite.Close()
		}
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	if audioRead != nil {
		audioRead.Close()
	}
	e.logger.Infow("encoder started", "stream", e.stream.ID, "mime", e.options.MimeType, "audio", e.stream.Audio != nil)

	var g errgroup.Group
	g.Go(func() error { return e.feedVideo(videoIn) })
	if audioWrite != nil {
		g.Go(func() error { return e.feedAudio(audioWrite) })
	}
	g.Go(func() error { return e.readChunks(ctx, stdout) })

	go func() {
		// a teardown of the owner kills the pipeline instead of flushing it
		select {
		case <-ctx.Done():
			e.logger.Warnf("encoder context cancelled, killing ffmpeg")
			e.stopOnce.Do(func() { close(e.stopped) })
			_ = e.cmd.Process.Kill()
		case <-e.stopped:
		}
	}()

	go func() {
		gerr := g.Wait()
		werr := e.cmd.Wait()
		if gerr != nil || werr != nil {
			e.logger.Errorf("encoder finished with error: pipeline=%v process=%v stderr=%s",
				gerr, werr, strings.TrimSpace(e.stderr.String()))
		} else {
			e.logger.Debugf("encoder finished for stream %s", e.stream.ID)
		}
		e.stopOnce.Do(func() { close(e.stopped) })
		close(e.chunks)
	}()
	return nil
}

func (e *ffmpegEncoder) feedVideo(w io.WriteCloser) error {
	defer w.Close()
	frames := e.stream.Video.Frames()
	buf := image.NewRGBA(image.Rect(0, 0, e.options.Width, e.options.Height))
	for {
		select {
		case <-e.stopped:
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if e.paused.Load() {
				continue
			}
			if _, err := w.Write(e.rawFrame(frame, buf)); err != nil {
				return fmt.Errorf("writing frame: %w", err)
			}
		}
	}
}

// rawFrame returns tightly packed RGBA bytes of the configured size.
func (e *ffmpegEncoder) rawFrame(frame image.Image, buf *image.RGBA) []byte {
	if rgba, ok := frame.(*image.RGBA); ok &&
		rgba.Bounds() == buf.Bounds() && rgba.Stride == 4*e.options.Width {
		return rgba.Pix
	}
	draw.Draw(buf, buf.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return buf.Pix
}

func (e *ffmpegEncoder) feedAudio(w io.WriteCloser) error {
	defer w.Close()
	pcm, cancel := e.stream.Audio.Subscribe(audioSubscription)
	defer cancel()
	for {
		select {
		case <-e.stopped:
			return nil
		case buf, ok := <-pcm:
			if !ok {
				return nil
			}
			if e.paused.Load() {
				continue
			}
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("writing audio: %w", err)
			}
		}
	}
}

// readChunks emits stdout in ChunkSize slices, in order, until ffmpeg closes it.
func (e *ffmpegEncoder) readChunks(ctx context.Context, r io.Reader) error {
	buf := make([]byte, e.opts.ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case e.chunks <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading container: %w", err)
		}
	}
}

func (e *ffmpegEncoder) Pause() error {
	if err := e.usable(); err != nil {
		return err
	}
	e.paused.Store(true)
	return nil
}

func (e *ffmpegEncoder) Resume() error {
	if err := e.usable(); err != nil {
		return err
	}
	e.paused.Store(false)
	return nil
}

// Stop closes both inputs; ffmpeg then flushes the container and exits, after which
// the chunk channel is closed.
func (e *ffmpegEncoder) Stop() error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	e.stopOnce.Do(func() { close(e.stopped) })
	return nil
}

func (e *ffmpegEncoder) Chunks() <-chan []byte { return e.chunks }

func (e *ffmpegEncoder) usable() error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	select {
	case <-e.stopped:
		return ErrStopped
	default:
		return nil
	}
}
