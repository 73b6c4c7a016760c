// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_source

import (
	"image"
	"sync"

	"github.com/google/uuid"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
)

// baseTrack carries identity and stop bookkeeping shared by every track.
type baseTrack struct {
	id     string
	kind   internal_type.TrackKind
	label  string
	once   sync.Once
	done   chan struct{}
	onStop func()
}

func newBaseTrack(kind internal_type.TrackKind, label string, onStop func()) baseTrack {
	return baseTrack{
		id:     uuid.New().String(),
		kind:   kind,
		label:  label,
		done:   make(chan struct{}),
		onStop: onStop,
	}
}

func (t *baseTrack) ID() string                    { return t.id }
func (t *baseTrack) Kind() internal_type.TrackKind { return t.kind }
func (t *baseTrack) Label() string                 { return t.label }

func (t *baseTrack) Stop() {
	t.once.Do(func() {
		close(t.done)
		if t.onStop != nil {
			t.onStop()
		}
	})
}

func (t *baseTrack) Ended() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// videoTrack holds the newest frame written by its producer.
type videoTrack struct {
	baseTrack
	mu    sync.RWMutex
	frame image.Image
}

func newVideoTrack(label string, onStop func()) *videoTrack {
	return &videoTrack{baseTrack: newBaseTrack(internal_type.TrackVideo, label, onStop)}
}

func (t *videoTrack) setFrame(frame image.Image) {
	t.mu.Lock()
	t.frame = frame
	t.mu.Unlock()
}

func (t *videoTrack) CurrentFrame() (image.Image, bool) {
	if t.Ended() {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frame, t.frame != nil
}

// audioTrack fans PCM buffers out to its subscribers.
type audioTrack struct {
	baseTrack
	format      internal_type.AudioFormat
	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

func newAudioTrack(label string, format internal_type.AudioFormat, onStop func()) *audioTrack {
	t := &audioTrack{
		format:      format,
		subscribers: make(map[chan []byte]struct{}),
	}
	t.baseTrack = newBaseTrack(internal_type.TrackAudio, label, func() {
		if onStop != nil {
			onStop()
		}
		t.closeSubscribers()
	})
	return t
}

func (t *audioTrack) Format() internal_type.AudioFormat { return t.format }

func (t *audioTrack) Subscribe(capacity int) (<-chan []byte, func()) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan []byte, capacity)
	t.mu.Lock()
	if t.Ended() {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subscribers[ch]; ok {
			delete(t.subscribers, ch)
			close(ch)
		}
	}
}

// publish never blocks; a full subscriber misses the buffer.
func (t *audioTrack) publish(pcm []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subscribers {
		select {
		case ch <- pcm:
		default:
		}
	}
}

func (t *audioTrack) closeSubscribers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subscribers {
		delete(t.subscribers, ch)
		close(ch)
	}
}

// liveSource groups the tracks granted by one capture request.
type liveSource struct {
	id     string
	kind   internal_type.TrackKind
	tracks []internal_type.Track
}

func newLiveSource(kind internal_type.TrackKind, tracks ...internal_type.Track) *liveSource {
	return &liveSource{id: uuid.New().String(), kind: kind, tracks: tracks}
}

func (s *liveSource) ID() string                    { return s.id }
func (s *liveSource) Kind() internal_type.TrackKind { return s.kind }
func (s *liveSource) Tracks() []internal_type.Track { return s.tracks }
