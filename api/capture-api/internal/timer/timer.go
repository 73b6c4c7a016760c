// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_timer

import (
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/clock"
	"github.com/rapidaai/capture-studio/pkg/utils"
)

// TickInterval is both the ticker period and the amount added per tick.
const TickInterval = time.Second

// Timer counts elapsed recording time in whole seconds. It is not safe for concurrent
// use; the studio loop owns it and reads C in its select.
type Timer struct {
	clock   clock.Clock
	ticker  clock.Ticker
	elapsed time.Duration
}

func New(c clock.Clock) *Timer {
	if c == nil {
		c = clock.Real()
	}
	return &Timer{clock: c}
}

// Sync follows a recorder transition. Any running ticker is stopped first, so at most
// one tick source exists at a time.
func (t *Timer) Sync(state internal_type.RecorderState) {
	t.stop()
	switch state {
	case internal_type.RecorderRecording:
		t.ticker = t.clock.NewTicker(TickInterval)
	case internal_type.RecorderIdle:
		t.elapsed = 0
	}
}

// C is the tick channel, nil while not recording.
func (t *Timer) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}

// Tick adds one interval. Ticks that arrive without a running ticker are ignored.
func (t *Timer) Tick() {
	if t.ticker == nil {
		return
	}
	t.elapsed += TickInterval
}

func (t *Timer) Running() bool { return t.ticker != nil }

func (t *Timer) Elapsed() time.Duration { return t.elapsed }

// Display renders the elapsed time as MM:SS.
func (t *Timer) Display() string { return utils.FormatElapsed(t.elapsed) }

// Close stops the ticker without touching the elapsed value.
func (t *Timer) Close() { t.stop() }

func (t *Timer) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}
