package utils

import (
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "00:00"},
		{5 * time.Second, "00:05"},
		{7*time.Second + 900*time.Millisecond, "00:07"},
		{59 * time.Second, "00:59"},
		{time.Minute, "01:00"},
		{61 * time.Minute, "61:00"},
		{100*time.Minute + 9*time.Second, "100:09"},
		{-3 * time.Second, "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatElapsed(tt.input); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
