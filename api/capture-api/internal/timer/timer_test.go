// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_timer

import (
	"testing"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/clock"
	"github.com/stretchr/testify/assert"
)

// drive delivers n ticks and feeds each one into the timer, the way the studio loop does.
func drive(t *testing.T, mock *clock.Mock, timer *Timer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		done := make(chan struct{})
		go func() {
			<-timer.C()
			timer.Tick()
			close(done)
		}()
		assert.True(t, mock.Tick(TickInterval))
		<-done
	}
}

func TestTimer_RecordPauseResume(t *testing.T) {
	mock := clock.NewMock()
	timer := New(mock)
	assert.Equal(t, "00:00", timer.Display())
	assert.Nil(t, timer.C())

	timer.Sync(internal_type.RecorderRecording)
	assert.Equal(t, 1, mock.Active(TickInterval))
	drive(t, mock, timer, 5)
	assert.Equal(t, "00:05", timer.Display())

	timer.Sync(internal_type.RecorderPaused)
	assert.Equal(t, 0, mock.Active(TickInterval))
	assert.False(t, mock.Tick(TickInterval), "no tick source while paused")
	assert.Equal(t, "00:05", timer.Display())

	timer.Sync(internal_type.RecorderRecording)
	drive(t, mock, timer, 2)
	assert.Equal(t, "00:07", timer.Display())

	timer.Sync(internal_type.RecorderIdle)
	assert.Equal(t, time.Duration(0), timer.Elapsed())
	assert.Equal(t, "00:00", timer.Display())
	assert.False(t, timer.Running())
}

func TestTimer_AtMostOneTicker(t *testing.T) {
	mock := clock.NewMock()
	timer := New(mock)
	timer.Sync(internal_type.RecorderRecording)
	timer.Sync(internal_type.RecorderRecording)
	timer.Sync(internal_type.RecorderRecording)
	assert.Equal(t, 1, mock.Active(TickInterval))
	timer.Close()
	assert.Equal(t, 0, mock.Active(TickInterval))
}

func TestTimer_TickWithoutTickerIgnored(t *testing.T) {
	timer := New(clock.NewMock())
	timer.Tick()
	assert.Equal(t, "00:00", timer.Display())
}

func TestTimer_MinutesPastAnHour(t *testing.T) {
	mock := clock.NewMock()
	timer := New(mock)
	timer.Sync(internal_type.RecorderRecording)
	timer.elapsed = 61*time.Minute + 4*time.Second
	assert.Equal(t, "61:04", timer.Display())
}
