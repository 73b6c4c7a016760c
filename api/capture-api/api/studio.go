// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package capture_api

import (
	"context"
	"errors"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"
	internal_studio "github.com/rapidaai/capture-studio/api/capture-api/internal/studio"
	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/config"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// Studio is the part of the capture session the HTTP surface drives.
type Studio interface {
	View() internal_studio.View
	Do(ctx context.Context, action internal_studio.Action) (internal_studio.Result, error)
	Subscribe(capacity int) (<-chan internal_studio.Event, func())
	Frames(capacity int) (<-chan image.Image, func())
	Snapshot() *image.RGBA
	Done() <-chan struct{}
}

// Downloads hands out finalized recordings once.
type Downloads interface {
	Take(id string) (*internal_type.Artifact, bool)
}

type StudioApi struct {
	cfg       *config.AppConfig
	logger    commons.Logger
	studio    Studio
	downloads Downloads
}

func NewStudioApi(cfg *config.AppConfig, logger commons.Logger, studio Studio, downloads Downloads) *StudioApi {
	return &StudioApi{cfg: cfg, logger: logger, studio: studio, downloads: downloads}
}

// View returns what the UI should render right now.
//
// @Router /v1/studio/view [get]
func (sApi *StudioApi) View(c *gin.Context) {
	c.JSON(http.StatusOK, sApi.studio.View())
}

// Action returns a handler applying one control action. Actions that the current
// state does not allow are answered with 409 and the unchanged view.
func (sApi *StudioApi) Action(action internal_studio.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := sApi.studio.Do(c.Request.Context(), action)
		if err != nil {
			if errors.Is(err, internal_studio.ErrClosed) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			sApi.logger.Warnf("studio action %s failed: %v", action, err)
			c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
			return
		}
		if !result.Accepted {
			c.JSON(http.StatusConflict, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// Download serves a finalized recording once.
//
// @Router /v1/studio/artifacts/:artifactId [get]
func (sApi *StudioApi) Download(c *gin.Context) {
	artifact, ok := sApi.downloads.Take(c.Param("artifactId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "recording not found or already downloaded"})
		return
	}
	sApi.logger.Infow("serving recording", "artifact", artifact.ID, "bytes", artifact.Size())
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, artifact.MimeType, artifact.Data)
}
