// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_delivery

import (
	"context"
	"sync"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/clock"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

type slotEntry struct {
	artifact  *internal_type.Artifact
	expiresAt time.Time
}

// DownloadSlot holds finalized artifacts for a single download each. The reference is
// dropped once served or when the TTL runs out, whichever comes first.
type DownloadSlot struct {
	logger commons.Logger
	clock  clock.Clock
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]slotEntry
}

func NewDownloadSlot(logger commons.Logger, c clock.Clock, ttl time.Duration) *DownloadSlot {
	if c == nil {
		c = clock.Real()
	}
	return &DownloadSlot{logger: logger, clock: c, ttl: ttl, entries: make(map[string]slotEntry)}
}

func (s *DownloadSlot) Deliver(_ context.Context, artifact *internal_type.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.entries[artifact.ID] = slotEntry{artifact: artifact, expiresAt: s.clock.Now().Add(s.ttl)}
	s.logger.Debugf("download offered for artifact %s (%d bytes)", artifact.ID, artifact.Size())
	return nil
}

// Take hands the artifact out once.
func (s *DownloadSlot) Take(id string) (*internal_type.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	delete(s.entries, id)
	return entry.artifact, true
}

// Pending is the number of artifacts waiting to be downloaded.
func (s *DownloadSlot) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.entries)
}

func (s *DownloadSlot) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.clock.Now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			s.logger.Debugf("download for artifact %s expired", id)
		}
	}
}
