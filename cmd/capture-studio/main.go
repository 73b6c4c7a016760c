// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	internal_compositor "github.com/rapidaai/capture-studio/api/capture-api/internal/compositor"
	internal_delivery "github.com/rapidaai/capture-studio/api/capture-api/internal/delivery"
	internal_encoder "github.com/rapidaai/capture-studio/api/capture-api/internal/encoder"
	internal_recorder "github.com/rapidaai/capture-studio/api/capture-api/internal/recorder"
	internal_source "github.com/rapidaai/capture-studio/api/capture-api/internal/source"
	internal_studio "github.com/rapidaai/capture-studio/api/capture-api/internal/studio"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	capture_routers "github.com/rapidaai/capture-studio/api/capture-api/router"
	"github.com/rapidaai/capture-studio/config"
	"github.com/rapidaai/capture-studio/pkg/clock"
	"github.com/rapidaai/capture-studio/pkg/commons"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(v)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("capture studio stopped: %v", err)
	}
}

func devices(cfg *config.AppConfig, logger commons.Logger) (camera, screen internal_type.VideoDevice, microphone internal_type.AudioDevice) {
	if cfg.Capture.Backend == "pattern" {
		return internal_source.NewPatternVideoDevice(logger, internal_type.SourceCamera),
			internal_source.NewPatternVideoDevice(logger, internal_type.SourceScreen),
			internal_source.NewPatternAudioDevice(logger, cfg.Capture.AudioSampleRate)
	}

	base := internal_source.FFmpegOptions{
		Path:           cfg.Capture.FFmpegPath,
		FrameRate:      cfg.Compositor.RefreshRate,
		SampleRate:     cfg.Capture.AudioSampleRate,
		AcquireTimeout: cfg.Capture.AcquireTimeout(),
	}
	cameraOpts, screenOpts, micOpts := base, base, base
	cameraOpts.Format, cameraOpts.Device = cfg.Capture.InputFormat, cfg.Capture.CameraDevice
	screenOpts.Format, screenOpts.Device = cfg.Capture.ScreenFormat, cfg.Capture.ScreenDevice
	micOpts.Format, micOpts.Device = cfg.Capture.AudioFormat, cfg.Capture.MicrophoneDevice

	return internal_source.NewFFmpegVideoDevice(logger, internal_type.SourceCamera, cameraOpts),
		internal_source.NewFFmpegVideoDevice(logger, internal_type.SourceScreen, screenOpts),
		internal_source.NewFFmpegAudioDevice(logger, micOpts)
}

func run(ctx context.Context, cfg *config.AppConfig, logger commons.Logger) error {
	camera, screen, microphone := devices(cfg, logger)
	sources := internal_source.NewManager(logger, camera, screen, microphone)

	surface, err := internal_compositor.NewSurface(internal_type.CaptureWidth, internal_type.CaptureHeight)
	if err != nil {
		return err
	}
	compositor := internal_compositor.NewCompositor(logger, surface, cfg.Compositor.RefreshRate)

	downloads := internal_delivery.NewDownloadSlot(logger, clock.Real(), cfg.Recorder.DownloadTTL())
	delivery := internal_delivery.Multi{downloads}
	if cfg.Recorder.OutputDir != "" {
		delivery = append(delivery, internal_delivery.NewDirectory(logger, cfg.Recorder.OutputDir))
	}

	factory := internal_encoder.NewFactory(logger, internal_encoder.Options{
		Path:         cfg.Capture.FFmpegPath,
		VideoBitrate: cfg.Recorder.VideoBitrate,
		ChunkSize:    cfg.Recorder.ChunkSize,
	})
	recorder := internal_recorder.NewRecorder(logger, factory, delivery, clock.Real(), cfg.Compositor.RefreshRate)

	studio := internal_studio.New(logger, sources, compositor, recorder, internal_studio.Options{
		InitialSource: internal_type.SourceKind(cfg.InitialSource),
		DrainTimeout:  cfg.Recorder.DrainTimeout(),
	})

	engine := capture_routers.NewEngine(cfg)
	capture_routers.HealthCheckRoutes(cfg, engine, logger, studio)
	capture_routers.StudioRoutes(cfg, engine, logger, studio, downloads)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return studio.Run(gCtx)
	})
	g.Go(func() error {
		logger.Infow("capture studio listening", "addr", server.Addr, "backend", cfg.Capture.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		// the studio flushes the active recording before the listener goes away
		<-studio.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
