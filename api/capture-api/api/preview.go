// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package capture_api

import (
	"bytes"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	previewBoundary = "frame"
	previewQuality  = 80
)

// Preview streams the composited surface as MJPEG until the client goes away or the
// studio shuts down.
//
// @Router /v1/studio/preview [get]
func (sApi *StudioApi) Preview(c *gin.Context) {
	frames, cancel := sApi.studio.Frames(2)
	defer cancel()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+previewBoundary)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "close")
	c.Status(http.StatusOK)

	mw := multipart.NewWriter(c.Writer)
	if err := mw.SetBoundary(previewBoundary); err != nil {
		sApi.logger.Errorf("preview: %v", err)
		return
	}

	if snapshot := sApi.studio.Snapshot(); snapshot != nil {
		if err := writeJPEGFrame(mw, snapshot); err != nil {
			return
		}
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sApi.studio.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := writeJPEGFrame(mw, frame); err != nil {
				sApi.logger.Debugf("preview client gone: %v", err)
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeJPEGFrame(mw *multipart.Writer, frame image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: previewQuality}); err != nil {
		return err
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "image/jpeg")
	header.Set("Content-Length", strconv.Itoa(buf.Len()))

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(buf.Bytes())
	return err
}
