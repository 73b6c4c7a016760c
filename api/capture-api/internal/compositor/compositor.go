// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_compositor

import (
	"image"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// Compositor runs one draw cycle per refresh tick for as long as its owner lives. It is
// never paused for recorder state.
type Compositor struct {
	logger   commons.Logger
	surface  *Surface
	interval time.Duration

	cycles      uint64
	skipped     uint64
	flushErrors uint64
	gap         bool
}

func NewCompositor(logger commons.Logger, surface *Surface, refreshRate int) *Compositor {
	if refreshRate <= 0 {
		refreshRate = 30
	}
	return &Compositor{
		logger:   logger,
		surface:  surface,
		interval: time.Second / time.Duration(refreshRate),
	}
}

// Interval is the period between draw cycles.
func (c *Compositor) Interval() time.Duration { return c.interval }

func (c *Compositor) Surface() *Surface { return c.surface }

// Cycle draws the current frame of source, if any, then the watermark. An absent
// source or a track without a frame yet only skips the frame.
func (c *Compositor) Cycle(source internal_type.LiveSource) {
	c.cycles++
	frame := currentFrame(source)
	if frame == nil {
		c.skipped++
		if !c.gap {
			c.logger.Debugf("compositor: no video frame, drawing watermark only")
			c.gap = true
		}
	} else if c.gap {
		c.logger.Debugf("compositor: video frames resumed after %d skipped cycles", c.skipped)
		c.gap = false
	}
	if _, err := c.surface.Draw(frame); err != nil {
		c.flushErrors++
		c.logger.Debugf("compositor: cycle %d: %v", c.cycles, err)
	}
}

func (c *Compositor) Cycles() uint64      { return c.cycles }
func (c *Compositor) Skipped() uint64     { return c.skipped }
func (c *Compositor) FlushErrors() uint64 { return c.flushErrors }

func currentFrame(source internal_type.LiveSource) image.Image {
	if source == nil {
		return nil
	}
	track, ok := internal_type.FirstVideoTrack(source)
	if !ok {
		return nil
	}
	frame, ok := track.CurrentFrame()
	if !ok {
		return nil
	}
	return frame
}
