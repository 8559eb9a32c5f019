// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/ghostbus/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can sit in r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Routes builds the full HTTP handler tree.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route in order. CORS is global so
	// OPTIONS preflights get answered before routing.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.chiMw.CORS())

	// Chi owns routing and method matching, so unknown paths and wrong
	// methods get the same envelope every JSON endpoint uses.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "NOT_FOUND", "unknown endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed for this endpoint", nil)
	})

	// Health endpoints sit in their own group with a permissive limit so
	// orchestrator probes never trip the API limiter.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(h.chiMw.RateLimitHealth())
		r.Get("/", h.Health)
		r.Get("/ready", h.HealthReady)
	})

	// Core API group: rate limit, Prometheus instrumentation, gzip.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.chiMw.RateLimit())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/buses", h.Buses)
		r.Get("/buses/active", h.BusesActive)
		r.Get("/buses/ghosts", h.BusesGhosts)
		r.Get("/buses/{id}", h.BusByID)
		r.Post("/buses/update", h.BusUpdate)
		r.Get("/stats", h.Stats)
	})

	// The WebSocket upgrade stays outside the instrumentation and gzip
	// wrappers: their response writers do not expose http.Hijacker, and
	// the gorilla upgrader needs it.
	r.With(h.chiMw.RateLimit()).Get("/ws", h.WebSocket)

	// Prometheus exposition for scrapers. Not wrapped in the API group:
	// instrumenting the scrape itself only adds noise.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
