// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package api

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The progress stream is read-only and carries no credentials, so any
	// origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler serves GET /api/v1/ws: upgrades the connection and
// attaches it to the progress hub.
type WebSocketHandler struct {
	hub *websocket.Hub
}

// NewWebSocketHandler creates the upgrade handler. hub may be nil when the
// progress stream is disabled by config.
func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Serve handles the upgrade request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeConfiguration, "progress stream disabled", nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	client.Start()
}
