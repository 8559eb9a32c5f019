// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Position pipeline throughput and latency
// - Detector checks and anomaly counts
// - Fleet state (active/ghost vehicles)
// - Storage backend performance
// - WebSocket connections
// - Ingest sources

var (
	// Pipeline Metrics
	PipelineRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_records_total",
			Help: "Total number of position records processed by the pipeline",
		},
		[]string{"result"}, // "ok", "validation_error", "storage_error"
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_process_duration_seconds",
			Help:    "Duration of a single position record pass through the pipeline",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		},
	)

	PipelinePoisonTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_poison_messages_total",
			Help: "Total number of messages routed to the poison queue",
		},
	)

	// Detection Metrics
	DetectorChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_checks_total",
			Help: "Total number of detector evaluations",
		},
		[]string{"detector"}, // "stale", "not_moving", "speed"
	)

	DetectorAnomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_anomalies_total",
			Help: "Total number of anomalies flagged by detectors",
		},
		[]string{"anomaly_type"}, // "stale", "not_moving", "speed_spike", "speed_drop"
	)

	GhostScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghost_score",
			Help:    "Distribution of computed ghost scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	// Fleet State Metrics
	FleetVehiclesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleet_vehicles_total",
			Help: "Current number of tracked vehicles",
		},
	)

	FleetGhostVehicles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleet_ghost_vehicles",
			Help: "Current number of vehicles classified as ghosts",
		},
	)

	// Storage Metrics
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Duration of storage backend operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "push", "read", "upsert", "get", "all"
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Total number of storage backend errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSSlowClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_clients_dropped_total",
			Help: "Total number of clients disconnected for not draining their send queue",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Ingest Metrics
	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Total number of position records received per source",
		},
		[]string{"source"}, // "http", "kafka", "simulator"
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of ingest errors per source",
		},
		[]string{"source", "error_type"}, // error_type: "decode", "publish", "transport"
	)

	// Bus Metrics
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total number of messages published to the internal bus",
		},
		[]string{"topic"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordPipelineResult records a completed pipeline pass
func RecordPipelineResult(result string, duration time.Duration) {
	PipelineRecordsTotal.WithLabelValues(result).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

// RecordPoisonMessage records a message diverted to the poison queue
func RecordPoisonMessage() {
	PipelinePoisonTotal.Inc()
}

// RecordDetectorCheck records a detector evaluation
func RecordDetectorCheck(detector string) {
	DetectorChecks.WithLabelValues(detector).Inc()
}

// RecordAnomaly records an anomaly flagged by a detector
func RecordAnomaly(anomalyType string) {
	DetectorAnomalies.WithLabelValues(anomalyType).Inc()
}

// RecordGhostScore records a computed ghost score
func RecordGhostScore(score float64) {
	GhostScoreDistribution.Observe(score)
}

// UpdateFleetGauges updates the fleet state gauges
func UpdateFleetGauges(total, ghosts int) {
	FleetVehiclesTotal.Set(float64(total))
	FleetGhostVehicles.Set(float64(ghosts))
}

// RecordStorageOperation records a storage backend operation
func RecordStorageOperation(operation string, duration time.Duration, err error) {
	StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StorageErrors.WithLabelValues(operation).Inc()
	}
}

// RecordBreakerRequest records a request passing through a circuit breaker
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetBreakerState sets the circuit breaker state gauge
// (0=closed, 1=half-open, 2=open)
func SetBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordIngest records a position record received from a source
func RecordIngest(source string) {
	IngestRecords.WithLabelValues(source).Inc()
}

// RecordIngestError records an ingest failure
func RecordIngestError(source, errorType string) {
	IngestErrors.WithLabelValues(source, errorType).Inc()
}

// RecordBusPublish records a message published to the internal bus
func RecordBusPublish(topic string) {
	BusMessagesPublished.WithLabelValues(topic).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// TrackWSConnection tracks the active WebSocket connection gauge
func TrackWSConnection(inc bool) {
	if inc {
		WSConnections.Inc()
	} else {
		WSConnections.Dec()
	}
}

// RecordWSMessageSent records one message delivered to one client
func RecordWSMessageSent() {
	WSMessagesSent.Inc()
}

// RecordWSSlowClientDropped records a client removed for a full send queue
func RecordWSSlowClientDropped() {
	WSSlowClientsDropped.Inc()
}

// RecordWSError records a WebSocket failure by type
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}
