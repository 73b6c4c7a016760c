// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_source

import (
	"context"
	"errors"
	"fmt"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// Manager acquires the video source of the requested kind and the microphone, and
// releases them. It keeps no state of its own: the caller owns the returned sources.
type Manager struct {
	logger     commons.Logger
	camera     internal_type.VideoDevice
	screen     internal_type.VideoDevice
	microphone internal_type.AudioDevice
}

func NewManager(logger commons.Logger, camera, screen internal_type.VideoDevice, microphone internal_type.AudioDevice) *Manager {
	return &Manager{
		logger:     logger,
		camera:     camera,
		screen:     screen,
		microphone: microphone,
	}
}

// AcquireVideo requests a 640x480 capture from the camera or the display. Any failure
// is reported as ErrSourceUnavailable and is never retried.
func (m *Manager) AcquireVideo(ctx context.Context, kind internal_type.SourceKind) (internal_type.LiveSource, error) {
	var device internal_type.VideoDevice
	switch kind {
	case internal_type.SourceCamera:
		device = m.camera
	case internal_type.SourceScreen:
		device = m.screen
	}
	if device == nil {
		return nil, fmt.Errorf("%w: no %q device configured", internal_type.ErrSourceUnavailable, kind)
	}

	source, err := device.RequestCapture(ctx, internal_type.DefaultConstraints())
	if err != nil {
		m.logger.Errorw("video acquisition failed", "kind", kind, "error", err)
		return nil, unavailable(err)
	}
	if _, ok := internal_type.FirstVideoTrack(source); !ok {
		m.Release(source)
		return nil, fmt.Errorf("%w: %w", internal_type.ErrSourceUnavailable, internal_type.ErrNoTracks)
	}
	m.logger.Infow("video source acquired", "kind", kind, "source", source.ID())
	return source, nil
}

// AcquireAudio requests the microphone. It is independent of the video kind.
func (m *Manager) AcquireAudio(ctx context.Context) (internal_type.LiveSource, error) {
	if m.microphone == nil {
		return nil, fmt.Errorf("%w: no microphone configured", internal_type.ErrSourceUnavailable)
	}
	source, err := m.microphone.RequestAudioCapture(ctx)
	if err != nil {
		m.logger.Errorw("audio acquisition failed", "error", err)
		return nil, unavailable(err)
	}
	m.logger.Infow("audio source acquired", "source", source.ID())
	return source, nil
}

// Release stops every track of the source. Safe on nil and on already released sources.
func (m *Manager) Release(source internal_type.LiveSource) {
	if source == nil {
		return
	}
	for _, track := range source.Tracks() {
		track.Stop()
	}
	m.logger.Debugf("released source %s", source.ID())
}

func unavailable(err error) error {
	if errors.Is(err, internal_type.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", internal_type.ErrSourceUnavailable, err)
}
