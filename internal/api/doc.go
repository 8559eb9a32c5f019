// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package api provides the HTTP surface: the fleet REST endpoints, the
WebSocket upgrade, health probes, and Prometheus exposition, routed
through chi.

Endpoints:

  - GET  /api/v1/buses          fleet view (route_id and include_ghost filters)
  - GET  /api/v1/buses/active   vehicles classified active
  - GET  /api/v1/buses/ghosts   vehicles classified ghost
  - GET  /api/v1/buses/{id}     one vehicle, 404 when it never reported
  - POST /api/v1/buses/update   synchronous classify of one position record
  - GET  /api/v1/stats          fleet aggregate counts
  - GET  /api/v1/health         liveness
  - GET  /api/v1/health/ready   readiness (state store + breaker)
  - GET  /ws                    WebSocket, snapshot then live updates
  - GET  /metrics               Prometheus exposition

Every JSON endpoint responds with the models.APIResponse envelope. Reads
come from the per-vehicle state store; the only write path is
/buses/update, which runs the same pipeline the bus consumer runs,
synchronously, so HTTP feeders see validation and classification results
in the response.

Middleware per route group: request ID and CORS run globally, the API
group adds rate limiting, Prometheus instrumentation, and gzip; health
endpoints get a permissive rate limit so monitors can poll freely; the
WebSocket endpoint skips the instrumentation wrappers because they hide
http.Hijacker from the upgrader.
*/
package api
