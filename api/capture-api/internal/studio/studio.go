// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_studio

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	internal_capturer "github.com/rapidaai/capture-studio/api/capture-api/internal/capturer"
	internal_compositor "github.com/rapidaai/capture-studio/api/capture-api/internal/compositor"
	internal_recorder "github.com/rapidaai/capture-studio/api/capture-api/internal/recorder"
	internal_timer "github.com/rapidaai/capture-studio/api/capture-api/internal/timer"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/clock"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

var (
	ErrClosed  = errors.New("studio is closed")
	ErrRunning = errors.New("studio is already running")
)

const defaultDrainTimeout = 5 * time.Second

// Sources is the acquisition side the studio depends on.
type Sources interface {
	AcquireVideo(ctx context.Context, kind internal_type.SourceKind) (internal_type.LiveSource, error)
	AcquireAudio(ctx context.Context) (internal_type.LiveSource, error)
	Release(source internal_type.LiveSource)
}

type Options struct {
	InitialSource internal_type.SourceKind
	// DrainTimeout bounds how long teardown waits for a stopped encoder.
	DrainTimeout time.Duration
	Clock        clock.Clock
}

// Result is the reply to a control action.
type Result struct {
	Accepted bool `json:"accepted"`
	View     View `json:"view"`
}

type command struct {
	action Action
	reply  chan Result
}

type acquisition struct {
	generation uint64
	track      internal_type.TrackKind
	kind       internal_type.SourceKind
	source     internal_type.LiveSource
	err        error
}

// Studio owns the capture session. Every piece of mutable state below the channels is
// touched only by the Run goroutine; the rest of the program talks to it through
// commands and reads published views.
type Studio struct {
	logger     commons.Logger
	sources    Sources
	compositor *internal_compositor.Compositor
	recorder   *internal_recorder.Recorder
	timer      *internal_timer.Timer
	clock      clock.Clock
	opts       Options

	commands chan command
	acquired chan acquisition
	running  atomic.Bool
	done     chan struct{}
	view     atomic.Pointer[View]

	runCtx        context.Context
	encoderCtx    context.Context
	encoderCancel context.CancelFunc
	kind          internal_type.SourceKind
	video         internal_type.LiveSource
	audio         internal_type.LiveSource
	generation    uint64
	err           error

	mu          sync.Mutex
	closed      bool
	subscribers map[chan Event]struct{}
}

func New(
	logger commons.Logger,
	sources Sources,
	compositor *internal_compositor.Compositor,
	recorder *internal_recorder.Recorder,
	opts Options,
) *Studio {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	if !opts.InitialSource.Valid() {
		opts.InitialSource = internal_type.SourceCamera
	}
	s := &Studio{
		logger:      logger,
		sources:     sources,
		compositor:  compositor,
		recorder:    recorder,
		timer:       internal_timer.New(opts.Clock),
		clock:       opts.Clock,
		opts:        opts,
		commands:    make(chan command),
		acquired:    make(chan acquisition),
		done:        make(chan struct{}),
		kind:        opts.InitialSource,
		subscribers: make(map[chan Event]struct{}),
	}
	s.view.Store(s.buildView())
	return s
}

// Run mounts the studio and serves it until ctx is cancelled, then tears it down.
func (s *Studio) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	s.runCtx = ctx
	s.encoderCtx, s.encoderCancel = context.WithCancel(context.Background())

	draw := s.clock.NewTicker(s.compositor.Interval())
	defer draw.Stop()

	s.logger.Infow("studio mounted", "source", s.kind)
	s.requestVideo()
	s.requestAudio()
	s.publishView()

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return nil
		case cmd := <-s.commands:
			cmd.reply <- s.handle(cmd.action)
		case <-draw.C():
			s.compositor.Cycle(s.video)
		case <-s.timer.C():
			s.timer.Tick()
			s.publishView()
		case res := <-s.acquired:
			s.handleAcquisition(res)
		case chunk, ok := <-s.recorder.Chunks():
			if ok {
				s.recorder.Append(chunk)
			} else {
				s.finalize()
			}
		}
	}
}

// Done is closed after teardown has completed.
func (s *Studio) Done() <-chan struct{} { return s.done }

// View is the latest published view.
func (s *Studio) View() View { return *s.view.Load() }

// Surface exposes the composited output for previews.
func (s *Studio) Surface() *internal_compositor.Surface { return s.compositor.Surface() }

// Frames subscribes to composited frames, one per draw cycle.
func (s *Studio) Frames(capacity int) (<-chan image.Image, func()) {
	return s.compositor.Surface().Subscribe(capacity)
}

// Snapshot is the last composited frame, nil before the first draw.
func (s *Studio) Snapshot() *image.RGBA { return s.compositor.Surface().Snapshot() }

// Do sends a control action to the studio and waits for its outcome. Actions that are
// not valid in the current state are ignored and reported as not accepted.
func (s *Studio) Do(ctx context.Context, action Action) (Result, error) {
	reply := make(chan Result, 1)
	select {
	case s.commands <- command{action: action, reply: reply}:
	case <-s.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Refresh returns a view computed by the studio goroutine after everything queued
// before it has been handled.
func (s *Studio) Refresh(ctx context.Context) (View, error) {
	r, err := s.Do(ctx, "")
	return r.View, err
}

func (s *Studio) handle(action Action) Result {
	if action == "" {
		return Result{Accepted: true, View: *s.buildView()}
	}
	if s.err != nil {
		s.logger.Debugf("studio: %s ignored in error state", action)
		return Result{Accepted: false, View: *s.buildView()}
	}

	var accepted, recorderAction bool
	switch action {
	case ActionStart:
		recorderAction = true
		accepted = s.startRecording()
	case ActionStop:
		recorderAction = true
		accepted = s.recorder.Stop()
	case ActionPause:
		recorderAction = true
		accepted = s.recorder.Pause()
	case ActionResume:
		recorderAction = true
		accepted = s.recorder.Resume()
	case ActionTogglePause:
		recorderAction = true
		if s.recorder.State() == internal_type.RecorderPaused {
			accepted = s.recorder.Resume()
		} else {
			accepted = s.recorder.Pause()
		}
	case ActionSwitchSource:
		s.switchSource()
		accepted = true
	default:
		s.logger.Warnf("studio: unknown action %q", action)
	}

	if accepted {
		if recorderAction {
			s.timer.Sync(s.recorder.State())
		}
		s.publishView()
	}
	return Result{Accepted: accepted, View: *s.view.Load()}
}

// startRecording needs a live video source and an idle recorder with nothing draining.
func (s *Studio) startRecording() bool {
	if s.video == nil {
		s.logger.Debugf("studio: start ignored, no video source yet")
		return false
	}
	if s.recorder.State() != internal_type.RecorderIdle || s.recorder.Draining() {
		return false
	}
	stream := internal_capturer.CaptureStream(s.compositor.Surface(), s.audio)
	return s.recorder.Start(s.encoderCtx, stream)
}

// switchSource releases the current video source first and acquires the other kind
// asynchronously. The compositor draws only the watermark until it arrives.
func (s *Studio) switchSource() {
	previous := s.kind
	s.kind = s.kind.Toggle()
	if s.video != nil {
		s.sources.Release(s.video)
		s.video = nil
	}
	s.logger.Infow("switching video source", "from", previous, "to", s.kind)
	s.requestVideo()
}

func (s *Studio) requestVideo() {
	s.generation++
	generation, kind, ctx := s.generation, s.kind, s.runCtx
	go func() {
		source, err := s.sources.AcquireVideo(ctx, kind)
		s.deliver(acquisition{generation: generation, track: internal_type.TrackVideo, kind: kind, source: source, err: err})
	}()
}

func (s *Studio) requestAudio() {
	ctx := s.runCtx
	go func() {
		source, err := s.sources.AcquireAudio(ctx)
		s.deliver(acquisition{track: internal_type.TrackAudio, source: source, err: err})
	}()
}

func (s *Studio) deliver(a acquisition) {
	select {
	case s.acquired <- a:
	case <-s.done:
		if a.source != nil {
			s.sources.Release(a.source)
		}
	}
}

func (s *Studio) handleAcquisition(res acquisition) {
	switch res.track {
	case internal_type.TrackVideo:
		if res.generation != s.generation {
			if res.source != nil {
				s.logger.Infow("releasing superseded video source", "kind", res.kind, "source", res.source.ID())
				s.sources.Release(res.source)
			}
			return
		}
		if res.err != nil {
			s.fail(res.err)
			return
		}
		s.video = res.source
	case internal_type.TrackAudio:
		if res.err != nil {
			s.fail(res.err)
			return
		}
		s.audio = res.source
	}
	s.publishView()
}

// fail records the first acquisition error. It is terminal: controls disappear and an
// active recording is stopped so it still gets delivered.
func (s *Studio) fail(err error) {
	if s.err != nil {
		s.logger.Warnf("studio: further acquisition failure after terminal error: %v", err)
		return
	}
	s.err = err
	s.logger.Errorw("studio entered error state", "error", err)
	if s.recorder.Stop() {
		s.timer.Sync(s.recorder.State())
	}
	s.publishView()
}

func (s *Studio) finalize() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.DrainTimeout)
	defer cancel()

	prev := s.recorder.State()
	artifact, err := s.recorder.Finalize(ctx)
	if err != nil {
		s.logger.Errorf("studio: artifact delivery incomplete: %v", err)
	}
	// an encoder that exits on its own leaves Recording or Paused for Idle here
	if prev != internal_type.RecorderIdle && s.recorder.State() == internal_type.RecorderIdle {
		s.timer.Sync(internal_type.RecorderIdle)
	}
	if artifact != nil {
		s.emit(Event{Type: EventArtifact, Artifact: &ArtifactOffer{
			ID:        artifact.ID,
			Filename:  artifact.Filename,
			MimeType:  artifact.MimeType,
			Size:      artifact.Size(),
			CreatedAt: artifact.CreatedAt,
		}})
	}
	s.publishView()
}

// teardown stops an active recording and gives the encoder DrainTimeout to flush before
// the session is finalized, then releases every device.
func (s *Studio) teardown() {
	s.logger.Infof("studio tearing down")
	if s.recorder.Stop() {
		s.timer.Sync(s.recorder.State())
	}
	if chunks := s.recorder.Chunks(); chunks != nil {
		deadline := time.NewTimer(s.opts.DrainTimeout)
	drain:
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					break drain
				}
				s.recorder.Append(chunk)
			case <-deadline.C:
				s.logger.Warnf("studio: encoder did not drain within %s, finalizing partial recording", s.opts.DrainTimeout)
				break drain
			}
		}
		deadline.Stop()
		s.finalize()
	}
	s.encoderCancel()
	s.timer.Close()

	s.sources.Release(s.video)
	s.sources.Release(s.audio)
	s.video, s.audio = nil, nil
	s.publishView()

	close(s.done)
	s.closeSubscribers()
	s.logger.Infof("studio stopped")
}

func (s *Studio) publishView() {
	v := s.buildView()
	s.view.Store(v)
	s.emit(Event{Type: EventView, View: v})
}
