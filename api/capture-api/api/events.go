// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package capture_api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	internal_studio "github.com/rapidaai/capture-studio/api/capture-api/internal/studio"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// eventMessage is an event as sent to clients; artifact offers carry their download path.
type eventMessage struct {
	internal_studio.Event
	DownloadURL string `json:"downloadUrl,omitempty"`
}

func artifactPath(id string) string {
	return "/v1/studio/artifacts/" + id
}

// Events pushes view changes and download offers over a websocket. The first message
// is always the current view.
//
// @Router /v1/studio/events [get]
func (sApi *StudioApi) Events(c *gin.Context) {
	conn, err := eventsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sApi.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := sApi.studio.Subscribe(eventBuffer)
	defer cancel()

	// reader only notices the client closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	view := sApi.studio.View()
	if err := sApi.write(conn, eventMessage{Event: internal_studio.Event{Type: internal_studio.EventView, View: &view}}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "studio stopped"),
					time.Now().Add(writeTimeout))
				return
			}
			msg := eventMessage{Event: ev}
			if ev.Type == internal_studio.EventArtifact && ev.Artifact != nil {
				msg.DownloadURL = artifactPath(ev.Artifact.ID)
			}
			if err := sApi.write(conn, msg); err != nil {
				sApi.logger.Debugf("events client gone: %v", err)
				return
			}
		}
	}
}

func (sApi *StudioApi) write(conn *websocket.Conn, msg eventMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}
