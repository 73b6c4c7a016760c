// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package capture_routers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	captureApi "github.com/rapidaai/capture-studio/api/capture-api/api"
	internal_studio "github.com/rapidaai/capture-studio/api/capture-api/internal/studio"
	"github.com/rapidaai/capture-studio/config"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// NewEngine builds the gin engine with recovery and permissive CORS; the UI is served
// from another origin.
func NewEngine(cfg *config.AppConfig) *gin.Engine {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition", "Content-Length"},
		AllowWebSockets:  true,
		AllowCredentials: false,
	}))
	return engine
}

func StudioRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	studio captureApi.Studio,
	downloads captureApi.Downloads,
) {
	logger.Info("Internal StudioRoutes added to engine.")
	apiv1 := engine.Group("v1/studio")
	studioApi := captureApi.NewStudioApi(cfg, logger, studio, downloads)
	{
		apiv1.GET("/view", studioApi.View)
		apiv1.POST("/start", studioApi.Action(internal_studio.ActionStart))
		apiv1.POST("/stop", studioApi.Action(internal_studio.ActionStop))
		apiv1.POST("/pause", studioApi.Action(internal_studio.ActionPause))
		apiv1.POST("/resume", studioApi.Action(internal_studio.ActionResume))
		apiv1.POST("/toggle-pause", studioApi.Action(internal_studio.ActionTogglePause))
		apiv1.POST("/switch-source", studioApi.Action(internal_studio.ActionSwitchSource))
		apiv1.GET("/preview", studioApi.Preview)
		apiv1.GET("/artifacts/:artifactId", studioApi.Download)
		apiv1.GET("/events", studioApi.Events)
	}
}
