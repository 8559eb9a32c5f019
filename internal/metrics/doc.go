// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package metrics provides Prometheus metrics collection and export for observability.

All metrics register against the default Prometheus registry via promauto at
package init, so importing the package is enough to make them scrapeable.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Pipeline Metrics:
  - pipeline_records_total: Records processed (counter)
    Labels: result (ok, validation_error, storage_error)
  - pipeline_process_duration_seconds: Per-record latency (histogram)
  - pipeline_poison_messages_total: Messages diverted to the poison queue (counter)

Detection Metrics:
  - detector_checks_total: Detector evaluations (counter)
    Labels: detector (stale, not_moving, speed)
  - detector_anomalies_total: Anomalies flagged (counter)
    Labels: anomaly_type (stale, not_moving, speed_spike, speed_drop)
  - ghost_score: Distribution of computed ghost scores (histogram)

Fleet State Metrics:
  - fleet_vehicles_total: Tracked vehicles (gauge)
  - fleet_ghost_vehicles: Vehicles currently classified as ghosts (gauge)

Storage Metrics:
  - storage_operation_duration_seconds: Backend operation latency (histogram)
    Labels: operation (push, read, upsert, get, all)
  - storage_errors_total: Backend failures (counter)
    Labels: operation

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total: Messages sent (counter)
  - websocket_slow_clients_dropped_total: Clients removed for full send queues (counter)
  - websocket_errors_total: Errors (counter)
    Labels: error_type

Ingest Metrics:
  - ingest_records_total: Records received (counter)
    Labels: source (http, kafka, simulator)
  - ingest_errors_total: Ingest failures (counter)
    Labels: source, error_type

Bus Metrics:
  - bus_messages_published_total: Internal bus publishes (counter)
    Labels: topic

API Metrics:
  - api_requests_total: API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

# Usage Example

	import (
	    "github.com/tomtom215/ghostbus/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    metrics.RecordPipelineResult("ok", 450*time.Microsecond)
	    metrics.RecordAnomaly("stale")
	    metrics.UpdateFleetGauges(9, 2)
	}
*/
package metrics
