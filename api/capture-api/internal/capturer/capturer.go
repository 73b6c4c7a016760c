// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capturer

import (
	"image"
	"sync"

	"github.com/google/uuid"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
)

// FrameSource is anything that publishes composited frames.
type FrameSource interface {
	Subscribe(capacity int) (<-chan image.Image, func())
}

// frameBuffer is how many composited frames a canvas track holds before the compositor
// starts dropping for it.
const frameBuffer = 8

type canvasTrack struct {
	id     string
	frames <-chan image.Image
	cancel func()

	mu    sync.Mutex
	ended bool
}

func (t *canvasTrack) ID() string                    { return t.id }
func (t *canvasTrack) Kind() internal_type.TrackKind { return internal_type.TrackVideo }
func (t *canvasTrack) Label() string                 { return "canvas" }
func (t *canvasTrack) Frames() <-chan image.Image    { return t.frames }

func (t *canvasTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	t.ended = true
	t.cancel()
}

func (t *canvasTrack) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// CaptureStream derives a new stream from the surface plus the first audio track of
// audio, when there is one. A nil surface yields no stream. Every call subscribes a new
// canvas track, so streams are never shared between recordings.
func CaptureStream(surface FrameSource, audio internal_type.LiveSource) *internal_type.MediaStream {
	if surface == nil {
		return nil
	}
	frames, cancel := surface.Subscribe(frameBuffer)
	stream := &internal_type.MediaStream{
		ID: uuid.NewString(),
		Video: &canvasTrack{
			id:     uuid.NewString(),
			frames: frames,
			cancel: cancel,
		},
	}
	if track, ok := internal_type.FirstAudioTrack(audio); ok {
		stream.Audio = track
	}
	return stream
}
