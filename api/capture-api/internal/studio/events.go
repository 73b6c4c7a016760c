// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_studio

import (
	"time"
)

type EventType string

const (
	EventView     EventType = "view"
	EventArtifact EventType = "artifact"
)

// ArtifactOffer announces a finalized recording that can be downloaded once.
type ArtifactOffer struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type Event struct {
	Type     EventType      `json:"type"`
	View     *View          `json:"view,omitempty"`
	Artifact *ArtifactOffer `json:"artifact,omitempty"`
}

// Subscribe registers an event consumer. A consumer that falls behind misses events
// rather than stalling the studio.
func (s *Studio) Subscribe(capacity int) (<-chan Event, func()) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan Event, capacity)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

func (s *Studio) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.logger.Debugf("studio: dropping %s event for slow subscriber", ev.Type)
		}
	}
}

func (s *Studio) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}
