// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"context"
	"errors"
	"image"
)

// Surface and capture resolution. Every video source is requested at this size and the
// composited surface never changes it.
const (
	CaptureWidth  = 640
	CaptureHeight = 480
)

var (
	// ErrSourceUnavailable covers denied permission, missing device, a cancelled share
	// picker or a device that never produced media.
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrCancelled         = errors.New("capture request was cancelled")
	ErrNoTracks          = errors.New("source returned no tracks")
)

type SourceKind string

const (
	SourceCamera SourceKind = "camera"
	SourceScreen SourceKind = "screen"
)

// Toggle returns the other video source kind.
func (k SourceKind) Toggle() SourceKind {
	if k == SourceScreen {
		return SourceCamera
	}
	return SourceScreen
}

func (k SourceKind) Valid() bool {
	return k == SourceCamera || k == SourceScreen
}

type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Constraints describe a capture request.
type Constraints struct {
	Width  int
	Height int
}

// DefaultConstraints is the fixed 640x480 request.
func DefaultConstraints() Constraints {
	return Constraints{Width: CaptureWidth, Height: CaptureHeight}
}

// Track is one live media track of a source.
type Track interface {
	ID() string
	Kind() TrackKind
	Label() string
	// Stop ends the track and releases the underlying device handle. Idempotent.
	Stop()
	Ended() bool
}

// VideoTrack exposes the newest decoded frame, the way a playing video element does.
type VideoTrack interface {
	Track
	CurrentFrame() (image.Image, bool)
}

// AudioFormat describes the PCM an audio track produces.
type AudioFormat struct {
	SampleRate int
	Channels   int
	// BitsPerSample is always 16 (signed little endian).
	BitsPerSample int
}

// AudioTrack fans PCM buffers out to subscribers. Sends never block the producer; a
// subscriber that does not keep up loses buffers.
type AudioTrack interface {
	Track
	Format() AudioFormat
	Subscribe(capacity int) (<-chan []byte, func())
}

// LiveSource is a granted capture: a video source (camera or screen) or the microphone.
type LiveSource interface {
	ID() string
	Kind() TrackKind
	Tracks() []Track
}

// VideoDevice is the camera or display capture subsystem.
type VideoDevice interface {
	RequestCapture(ctx context.Context, constraints Constraints) (LiveSource, error)
}

// AudioDevice is the microphone capture subsystem.
type AudioDevice interface {
	RequestAudioCapture(ctx context.Context) (LiveSource, error)
}

// FirstVideoTrack returns the first live video track of a source.
func FirstVideoTrack(source LiveSource) (VideoTrack, bool) {
	if source == nil {
		return nil, false
	}
	for _, t := range source.Tracks() {
		if vt, ok := t.(VideoTrack); ok && !vt.Ended() {
			return vt, true
		}
	}
	return nil, false
}

// FirstAudioTrack returns the first audio track of a source. Only the first one is ever
// used, even if the source carries more.
func FirstAudioTrack(source LiveSource) (AudioTrack, bool) {
	if source == nil {
		return nil, false
	}
	for _, t := range source.Tracks() {
		if at, ok := t.(AudioTrack); ok {
			return at, true
		}
	}
	return nil, false
}
