// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/pipeline"
	"github.com/tomtom215/ghostbus/internal/state"
	ws "github.com/tomtom215/ghostbus/internal/websocket"
)

const serviceVersion = "1.0.0"

// Handler carries the dependencies API handlers read from and write to.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrade (this file)
//   - handlers_helpers.go: response envelope and parameter helpers
//   - handlers_buses.go: fleet read endpoints and the synchronous update
//   - handlers_stats.go: fleet aggregates
//   - handlers_health.go: liveness and readiness probes
//   - router.go: chi route composition
type Handler struct {
	vehicles  state.Store
	pipeline  *pipeline.Pipeline
	hub       *ws.Hub
	config    *config.Config
	chiMw     *ChiMiddleware
	startTime time.Time
}

// NewHandler creates the API handler. vehicles and pl must be non-nil;
// hub may be nil, in which case /ws answers 503. cfg may be nil in tests
// and falls back to permissive middleware defaults.
func NewHandler(vehicles state.Store, pl *pipeline.Pipeline, hub *ws.Hub, cfg *config.Config) *Handler {
	chiMw := NewChiMiddleware(nil)
	if cfg != nil {
		chiMw = NewChiMiddlewareFromSecurity(cfg.Security)
	}

	return &Handler{
		vehicles:  vehicles,
		pipeline:  pl,
		hub:       hub,
		config:    cfg,
		chiMw:     chiMw,
		startTime: time.Now(),
	}
}

// WebSocket upgrades the connection and hands it to the hub. The client
// receives the fleet snapshot first, then live classified updates.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("websocket connection rejected: hub not initialized")
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "websocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error to the client.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

// getUpgrader builds the WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Browsers always send Origin on WebSocket handshakes, so an
// empty header is rejected rather than waved through.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}

	// No config means a test harness; fail open.
	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}
