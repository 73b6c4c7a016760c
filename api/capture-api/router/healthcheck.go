// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package capture_routers

import (
	"github.com/gin-gonic/gin"
	captureApi "github.com/rapidaai/capture-studio/api/capture-api/api"
	"github.com/rapidaai/capture-studio/config"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, studio captureApi.Studio) {
	logger.Info("Internal HealthCheckRoutes added to engine.")
	apiv1 := engine.Group("")
	hcApi := captureApi.NewHealthCheckApi(cfg, logger, studio)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
