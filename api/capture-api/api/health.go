// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package capture_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaai/capture-studio/config"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

type HealthCheckApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	studio Studio
}

func NewHealthCheckApi(cfg *config.AppConfig, logger commons.Logger, studio Studio) *HealthCheckApi {
	return &HealthCheckApi{cfg: cfg, logger: logger, studio: studio}
}

func (hApi *HealthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"healthy": true, "service": hApi.cfg.Name, "version": hApi.cfg.Version})
}

// Readiness is ready while the studio is running. A studio in its terminal error state
// is still ready: it serves the error view.
func (hApi *HealthCheckApi) Readiness(c *gin.Context) {
	select {
	case <-hApi.studio.Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
	default:
		c.JSON(http.StatusOK, gin.H{"ready": true, "source": hApi.studio.View().Source})
	}
}
