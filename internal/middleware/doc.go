// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package middleware provides HTTP middleware for the API surface.

The middlewares here are plain func(http.HandlerFunc) http.HandlerFunc
wrappers; the api package adapts them onto the chi router alongside
chi's own RealIP/Recoverer and the go-chi cors and httprate handlers.

Key Components:

  - RequestID: X-Request-ID propagation plus logging context seeding
    (request_id and correlation_id on every log line for the request)
  - PrometheusMetrics: request counter and duration histogram labeled by
    method, route pattern, and status, plus a slow-request warning log
  - Compression: gzip negotiation for JSON responses, skipping WebSocket
    upgrades

Middleware Stack:

The api router applies them in this order:

	RequestID -> RealIP -> Recoverer -> CORS -> rate limit ->
	    PrometheusMetrics -> Compression -> handler

Thread Safety:

All middleware here is safe for concurrent requests: Compression pools
gzip writers per request, RequestID only touches the request context,
and PrometheusMetrics records through atomic Prometheus collectors.
*/
package middleware
