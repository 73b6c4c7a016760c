// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"context"
	"image"
	"time"
)

const (
	ArtifactFilename = "camera_feed.webm"
	ArtifactMimeType = "video/webm"
)

// RecorderState is the recording lifecycle: Idle, Recording and Paused.
type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderRecording RecorderState = "recording"
	RecorderPaused    RecorderState = "paused"
)

// CanvasTrack is the video track of a capturable stream derived from the composited
// surface. It yields one image per draw cycle.
type CanvasTrack interface {
	Track
	Frames() <-chan image.Image
}

// MediaStream is the encoder input: the canvas track plus at most one audio track.
type MediaStream struct {
	ID    string
	Video CanvasTrack
	// Audio is nil for a video-only stream.
	Audio AudioTrack
}

// Close stops the canvas track. The audio track belongs to the microphone source and
// is left running.
func (m *MediaStream) Close() {
	if m == nil || m.Video == nil {
		return
	}
	m.Video.Stop()
}

// EncoderOptions configure a new encoder.
type EncoderOptions struct {
	MimeType  string
	Width     int
	Height    int
	FrameRate int
}

// Encoder turns a MediaStream into container chunks.
type Encoder interface {
	Start(ctx context.Context) error
	Pause() error
	Resume() error
	// Stop asks the encoder to flush. The chunk channel is closed once every pending
	// chunk has been delivered, which is the acknowledgement of the stop.
	Stop() error
	// Chunks delivers encoded segments in temporal order. Segments may be empty.
	Chunks() <-chan []byte
}

// EncoderFactory builds an encoder for a freshly captured stream.
type EncoderFactory func(stream *MediaStream, opts EncoderOptions) (Encoder, error)

// Artifact is the finalized recording handed to delivery.
type Artifact struct {
	ID        string
	Filename  string
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

func (a *Artifact) Size() int {
	return len(a.Data)
}

// Delivery offers a finalized artifact for download.
type Delivery interface {
	Deliver(ctx context.Context, artifact *Artifact) error
}
