// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_source

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// patternBars are the SMPTE-like columns of the synthetic camera.
var patternBars = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

// PatternVideoDevice is a device-free video backend: colour bars for the camera and a
// horizontal gradient for the screen.
type PatternVideoDevice struct {
	logger commons.Logger
	kind   internal_type.SourceKind
}

func NewPatternVideoDevice(logger commons.Logger, kind internal_type.SourceKind) *PatternVideoDevice {
	return &PatternVideoDevice{logger: logger, kind: kind}
}

func (d *PatternVideoDevice) RequestCapture(ctx context.Context, constraints internal_type.Constraints) (internal_type.LiveSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", internal_type.ErrSourceUnavailable, internal_type.ErrCancelled)
	}
	if constraints.Width <= 0 || constraints.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid constraints %dx%d", internal_type.ErrSourceUnavailable, constraints.Width, constraints.Height)
	}

	var frame *image.RGBA
	label := "pattern camera"
	if d.kind == internal_type.SourceScreen {
		frame = gradientFrame(constraints.Width, constraints.Height)
		label = "pattern screen"
	} else {
		frame = barsFrame(constraints.Width, constraints.Height)
	}

	track := newVideoTrack(label, nil)
	track.setFrame(frame)
	d.logger.Debugf("pattern %s granted at %dx%d", d.kind, constraints.Width, constraints.Height)
	return newLiveSource(internal_type.TrackVideo, track), nil
}

func barsFrame(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		c := patternBars[x*len(patternBars)/width]
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func gradientFrame(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		v := uint8(x * 255 / width)
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

// PatternAudioDevice is a device-free microphone producing a 440 Hz tone.
type PatternAudioDevice struct {
	logger     commons.Logger
	sampleRate int
	frame      time.Duration
}

func NewPatternAudioDevice(logger commons.Logger, sampleRate int) *PatternAudioDevice {
	return &PatternAudioDevice{logger: logger, sampleRate: sampleRate, frame: 20 * time.Millisecond}
}

func (d *PatternAudioDevice) RequestAudioCapture(ctx context.Context) (internal_type.LiveSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", internal_type.ErrSourceUnavailable, internal_type.ErrCancelled)
	}
	format := internal_type.AudioFormat{SampleRate: d.sampleRate, Channels: 1, BitsPerSample: 16}
	stop := make(chan struct{})
	track := newAudioTrack("pattern microphone", format, func() { close(stop) })

	go d.generate(track, stop)
	return newLiveSource(internal_type.TrackAudio, track), nil
}

func (d *PatternAudioDevice) generate(track *audioTrack, stop <-chan struct{}) {
	samplesPerFrame := int(int64(d.sampleRate) * int64(d.frame) / int64(time.Second))
	ticker := time.NewTicker(d.frame)
	defer ticker.Stop()

	phase := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pcm := make([]byte, samplesPerFrame*2)
			for i := 0; i < samplesPerFrame; i++ {
				v := math.Sin(2 * math.Pi * 440 * float64(phase) / float64(d.sampleRate))
				binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*8000)))
				phase++
			}
			track.publish(pcm)
		}
	}
}
