// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package clock

import (
	"sync"
	"time"
)

// Clock is the time source for tickers and timestamps.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker mirrors time.Ticker behind an interface so it can be driven manually.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

// Real returns the wall clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Mock is a manually driven clock. Tick hands a tick to the receiver synchronously:
// when Tick returns true the receiving goroutine has taken the value.
type Mock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*mockTicker
}

// NewMock returns a Mock starting at a fixed instant.
func NewMock() *Mock {
	return &Mock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Add moves the clock forward without firing tickers.
func (m *Mock) Add(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Mock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTicker{period: d, c: make(chan time.Time), done: make(chan struct{})}
	m.tickers = append(m.tickers, t)
	return t
}

// Active reports how many unstopped tickers with the given period exist.
func (m *Mock) Active(d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		if t.period == d && !t.isStopped() {
			n++
		}
	}
	return n
}

// Tick advances the clock by d and delivers one tick to the newest live ticker with
// period d. It returns false when no such ticker exists or it was stopped while waiting.
func (m *Mock) Tick(d time.Duration) bool {
	m.mu.Lock()
	var target *mockTicker
	for i := len(m.tickers) - 1; i >= 0; i-- {
		if m.tickers[i].period == d && !m.tickers[i].isStopped() {
			target = m.tickers[i]
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return false
	}
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()

	select {
	case target.c <- now:
		return true
	case <-target.done:
		return false
	}
}

type mockTicker struct {
	period time.Duration
	c      chan time.Time
	once   sync.Once
	done   chan struct{}
}

func (t *mockTicker) C() <-chan time.Time { return t.c }

func (t *mockTicker) Stop() {
	t.once.Do(func() { close(t.done) })
}

func (t *mockTicker) isStopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
