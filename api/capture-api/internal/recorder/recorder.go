// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"context"

	"github.com/google/uuid"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/clock"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// Recorder is the Idle / Recording / Paused state machine around one encoder at a
// time. It is not safe for concurrent use; the studio loop owns it.
//
// A stopped session keeps draining until its encoder closes the chunk channel, and
// only then is it finalized. A new session cannot start while one is draining.
type Recorder struct {
	logger   commons.Logger
	factory  internal_type.EncoderFactory
	delivery internal_type.Delivery
	clock    clock.Clock
	options  internal_type.EncoderOptions

	state  internal_type.RecorderState
	active *session
}

func NewRecorder(
	logger commons.Logger,
	factory internal_type.EncoderFactory,
	delivery internal_type.Delivery,
	c clock.Clock,
	frameRate int,
) *Recorder {
	if c == nil {
		c = clock.Real()
	}
	return &Recorder{
		logger:   logger,
		factory:  factory,
		delivery: delivery,
		clock:    c,
		options: internal_type.EncoderOptions{
			MimeType:  internal_type.ArtifactMimeType,
			Width:     internal_type.CaptureWidth,
			Height:    internal_type.CaptureHeight,
			FrameRate: frameRate,
		},
		state: internal_type.RecorderIdle,
	}
}

func (r *Recorder) State() internal_type.RecorderState { return r.state }

// Draining reports a stopped session whose encoder has not acknowledged the stop yet.
func (r *Recorder) Draining() bool {
	return r.active != nil && r.active.draining
}

// Start begins a session from Idle. A missing stream, a session still draining or an
// encoder that fails to start leave the state unchanged.
func (r *Recorder) Start(ctx context.Context, stream *internal_type.MediaStream) bool {
	if r.state != internal_type.RecorderIdle {
		return false
	}
	if r.active != nil {
		r.logger.Debugf("recorder: previous session %s still draining, ignoring start", r.active.id)
		return false
	}
	if stream == nil || stream.Video == nil {
		return false
	}

	encoder, err := r.factory(stream, r.options)
	if err != nil {
		r.logger.Errorf("recorder: unable to create encoder: %v", err)
		stream.Close()
		return false
	}
	if err := encoder.Start(ctx); err != nil {
		r.logger.Errorf("recorder: unable to start encoder: %v", err)
		stream.Close()
		return false
	}

	r.active = newSession(uuid.NewString(), encoder, stream)
	r.state = internal_type.RecorderRecording
	r.logger.Infow("recording started", "session", r.active.id, "audio", stream.Audio != nil)
	return true
}

func (r *Recorder) Pause() bool {
	if r.state != internal_type.RecorderRecording {
		return false
	}
	if err := r.active.encoder.Pause(); err != nil {
		r.logger.Warnf("recorder: pause failed: %v", err)
		return false
	}
	r.state = internal_type.RecorderPaused
	return true
}

func (r *Recorder) Resume() bool {
	if r.state != internal_type.RecorderPaused {
		return false
	}
	if err := r.active.encoder.Resume(); err != nil {
		r.logger.Warnf("recorder: resume failed: %v", err)
		return false
	}
	r.state = internal_type.RecorderRecording
	return true
}

// Stop asks the encoder to flush and returns to Idle right away. The artifact is built
// later, by Finalize, once the encoder has delivered every pending chunk.
func (r *Recorder) Stop() bool {
	if r.state != internal_type.RecorderRecording && r.state != internal_type.RecorderPaused {
		return false
	}
	if err := r.active.encoder.Stop(); err != nil {
		r.logger.Warnf("recorder: stop failed: %v", err)
	}
	r.active.draining = true
	r.state = internal_type.RecorderIdle
	chunks, size := r.active.stats()
	r.logger.Infow("recording stopped, draining encoder", "session", r.active.id, "chunks", chunks, "bytes", size)
	return true
}

// Chunks is the chunk channel of the current session, nil when there is none.
func (r *Recorder) Chunks() <-chan []byte {
	if r.active == nil {
		return nil
	}
	return r.active.encoder.Chunks()
}

// Append stores a chunk of the current session. Empty chunks are discarded.
func (r *Recorder) Append(chunk []byte) {
	if r.active == nil {
		return
	}
	r.active.push(chunk)
}

// Stats reports the chunk count and byte size buffered for the current session.
func (r *Recorder) Stats() (chunks int, size int) {
	if r.active == nil {
		return 0, 0
	}
	return r.active.stats()
}

// Finalize closes out the current session once its chunk channel is closed. With data
// buffered it builds the artifact, hands it to delivery and clears the buffer; with
// none it only releases the session. It never produces a second artifact for the same
// session.
func (r *Recorder) Finalize(ctx context.Context) (*internal_type.Artifact, error) {
	s := r.active
	if s == nil {
		return nil, nil
	}
	if !s.draining {
		// encoder ended on its own
		r.logger.Warnf("recorder: encoder for session %s ended without a stop", s.id)
		r.state = internal_type.RecorderIdle
	}
	r.active = nil
	defer s.stream.Close()

	data, ok, err := s.persist()
	if !ok {
		return nil, nil
	}
	if err != nil {
		r.logger.Infof("recorder: session %s produced no data, nothing to deliver", s.id)
		return nil, nil
	}

	artifact := &internal_type.Artifact{
		ID:        s.id,
		Filename:  internal_type.ArtifactFilename,
		MimeType:  internal_type.ArtifactMimeType,
		Data:      data,
		CreatedAt: r.clock.Now(),
	}
	r.logger.Infow("recording finalized", "session", s.id, "bytes", artifact.Size())
	if r.delivery != nil {
		if err := r.delivery.Deliver(ctx, artifact); err != nil {
			r.logger.Errorf("recorder: delivering %s failed: %v", artifact.Filename, err)
			return artifact, err
		}
	}
	return artifact, nil
}
