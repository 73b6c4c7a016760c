// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"fmt"
	"sync"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
)

// session is one recording: the encoder, the stream feeding it and the container
// chunks collected so far. Chunks are kept in arrival order and never rewritten.
type session struct {
	id      string
	encoder internal_type.Encoder
	stream  *internal_type.MediaStream

	mu        sync.Mutex
	chunks    [][]byte
	size      int
	draining  bool
	finalized bool
}

func newSession(id string, encoder internal_type.Encoder, stream *internal_type.MediaStream) *session {
	return &session{id: id, encoder: encoder, stream: stream}
}

// push appends a copy of data. Empty chunks are dropped.
func (s *session) push(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return false
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.chunks = append(s.chunks, buf)
	s.size += len(buf)
	return true
}

func (s *session) stats() (chunks int, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks), s.size
}

// persist concatenates every chunk into one container and clears the buffer. It runs
// once per session; later calls report ok=false.
func (s *session) persist() (data []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, false, nil
	}
	s.finalized = true
	if len(s.chunks) == 0 {
		return nil, true, fmt.Errorf("no chunks to persist")
	}
	data = make([]byte, 0, s.size)
	for _, c := range s.chunks {
		data = append(data, c...)
	}
	s.chunks = nil
	s.size = 0
	return data, true, nil
}
