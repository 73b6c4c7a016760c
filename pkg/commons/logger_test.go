// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewApplicationLogger_Defaults(t *testing.T) {
	logger, err := NewApplicationLogger()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
}

func TestNewApplicationLogger_InvalidLevel(t *testing.T) {
	logger, err := NewApplicationLogger(Level("loud"))
	assert.Error(t, err)
	assert.Nil(t, logger)
}

func TestNewApplicationLogger_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewApplicationLogger(Name("test-studio"), Path(dir), Level("info"))
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, logger.Level())

	logger.Infow("recording started", "session", "abc")
	logger.Benchmark("draw", 2*time.Millisecond)
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test-studio.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "recording started")
	// benchmark lines are debug and filtered at info
	assert.NotContains(t, string(data), "benchmark")
}
