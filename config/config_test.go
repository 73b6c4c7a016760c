// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnvFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ENV_PATH", path)
}

func TestGetApplicationConfig_Defaults(t *testing.T) {
	withEnvFile(t, "")
	v, err := InitConfig()
	require.NoError(t, err)

	cfg, err := GetApplicationConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "capture-studio", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "camera", cfg.InitialSource)
	assert.Equal(t, "pattern", cfg.Capture.Backend)
	assert.Equal(t, 30, cfg.Compositor.RefreshRate)
	assert.Equal(t, 64*1024, cfg.Recorder.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.Capture.AcquireTimeout())
	assert.Equal(t, 5*time.Second, cfg.Recorder.DrainTimeout())
	assert.Equal(t, 10*time.Minute, cfg.Recorder.DownloadTTL())
}

func TestGetApplicationConfig_NestedOverridesFromFile(t *testing.T) {
	withEnvFile(t, "PORT=8181\nCAPTURE__BACKEND=ffmpeg\nCOMPOSITOR__REFRESH_RATE=60\nRECORDER__OUTPUT_DIR=/tmp/out\n")
	v, err := InitConfig()
	require.NoError(t, err)

	cfg, err := GetApplicationConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "ffmpeg", cfg.Capture.Backend)
	assert.Equal(t, 60, cfg.Compositor.RefreshRate)
	assert.Equal(t, "/tmp/out", cfg.Recorder.OutputDir)
}

func TestGetApplicationConfig_RejectsUnknownBackend(t *testing.T) {
	withEnvFile(t, "CAPTURE__BACKEND=gstreamer\n")
	v, err := InitConfig()
	require.NoError(t, err)

	cfg, err := GetApplicationConfig(v)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestGetApplicationConfig_RejectsUnknownInitialSource(t *testing.T) {
	withEnvFile(t, "INITIAL_SOURCE=window\n")
	v, err := InitConfig()
	require.NoError(t, err)

	_, err = GetApplicationConfig(v)
	assert.Error(t, err)
}
