// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Watermark stamped on every composited frame. Content, font and position are fixed.
const (
	WatermarkText     = "Tripurari"
	WatermarkFontSize = 20
	WatermarkX        = 10
	// WatermarkBaselineOffset is the distance of the text baseline from the bottom edge.
	WatermarkBaselineOffset = 10
)

var WatermarkColor = color.White

// Surface is the drawing target frames and the watermark are rendered onto. Only the
// draw loop calls Draw; snapshots and subscriber frames are immutable copies.
type Surface struct {
	dc     *gg.Context
	face   text.Face
	flush  func() error
	width  int
	height int

	latest atomic.Pointer[image.RGBA]

	mu          sync.Mutex
	subscribers map[chan image.Image]struct{}
}

func NewSurface(width, height int) (*Surface, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading watermark font: %w", err)
	}
	dc := gg.NewContext(width, height)
	return &Surface{
		dc:          dc,
		face:        source.Face(WatermarkFontSize),
		flush:       dc.FlushGPU,
		width:       width,
		height:      height,
		subscribers: make(map[chan image.Image]struct{}),
	}, nil
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// Draw renders one cycle: the frame scaled to fill the surface (skipped when nil, the
// previous content then stays), then the watermark on top. The result is published to
// subscribers and kept as the latest snapshot. A failed GPU flush is returned, the
// frame is still published from the CPU pixmap.
func (s *Surface) Draw(frame image.Image) (*image.RGBA, error) {
	if frame != nil {
		s.dc.DrawImageEx(gg.ImageBufFromImage(frame), gg.DrawImageOptions{
			X:             0,
			Y:             0,
			DstWidth:      float64(s.width),
			DstHeight:     float64(s.height),
			Interpolation: gg.InterpBilinear,
			Opacity:       1.0,
			BlendMode:     gg.BlendNormal,
		})
	}

	s.dc.SetFont(s.face)
	s.dc.SetColor(WatermarkColor)
	s.dc.DrawString(WatermarkText, WatermarkX, float64(s.height-WatermarkBaselineOffset))

	flushErr := s.flush()
	rendered := s.dc.Image()
	img, ok := rendered.(*image.RGBA)
	if !ok {
		img = image.NewRGBA(image.Rect(0, 0, s.width, s.height))
		draw.Draw(img, img.Bounds(), rendered, image.Point{}, draw.Src)
	}
	s.latest.Store(img)
	s.publish(img)
	if flushErr != nil {
		return img, fmt.Errorf("flushing surface: %w", flushErr)
	}
	return img, nil
}

// Snapshot returns the last composited image, or nil before the first cycle.
func (s *Surface) Snapshot() *image.RGBA {
	return s.latest.Load()
}

// Subscribe registers a consumer of composited frames, one per draw cycle.
func (s *Surface) Subscribe(capacity int) (<-chan image.Image, func()) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan image.Image, capacity)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

func (s *Surface) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *Surface) publish(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- img:
		default:
		}
	}
}
