// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package main is the entry point for the Ghostbus server.

Ghostbus watches a transit fleet's position feed and flags ghost vehicles:
buses that are still being reported by the feed but are not actually in
service. Stale timestamps, frozen positions, and implausible speeds each
contribute to a per-vehicle ghost score; vehicles at or above the threshold
are classified as ghosts and pushed to dashboards over WebSocket.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("ghostbus")
	├── DataSupervisor ("data-layer")
	│   └── Badger value-log GC (badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (snapshot-then-live fan-out)
	│   ├── Event Bus (Watermill router: classify positions)
	│   └── Ingest Manager (simulator and/or Kafka sources)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API + /ws + /metrics)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Storage: window store factory (memory or BadgerDB) + vehicle state
 4. Detection Engine: stale, not_moving, and speed rules
 5. WebSocket Hub: real-time classified updates
 6. Pipeline + Event Bus: validation, windows, classification, persistence
 7. Ingest Manager: configured position sources
 8. Supervisor Tree: Suture v4 process supervision
 9. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority
wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8080               # HTTP listen port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Storage (memory by default)
	STORAGE_BACKEND=memory       # memory or badger
	STORAGE_PATH=/data/ghostbus  # badger data directory

	# Ingest sources
	INGEST_SOURCES=simulator     # simulator, kafka, or both
	KAFKA_BROKERS=localhost:9092
	KAFKA_TOPIC=positions

	# Detection thresholds
	STALE_THRESHOLD_SECONDS=90   # demo deployments run 20
	GHOST_SCORE_THRESHOLD=0.6

See config.example.yaml for the complete reference.

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server              # Standard build
	go build -tags nats ./cmd/server   # Enable the NATS JetStream mirror

The nats tag compiles in a JetStream publisher that mirrors every
classified record to a NATS subject for consumers outside the process,
plus an optional embedded nats-server (NATS_EMBEDDED=true) for
single-binary deployments.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Disconnects WebSocket clients
 3. Waits for in-flight requests (10s timeout)
 4. Stops ingest sources and the bus router
 5. Closes the window store
 6. Reports any services that failed to stop

# Usage Examples

Development (synthetic fleet, console logs):

	export LOG_FORMAT=console
	export STALE_THRESHOLD_SECONDS=20
	go run ./cmd/server

Production (Kafka feed, persistent windows):

	export INGEST_SOURCES=kafka
	export KAFKA_BROKERS=kafka-1:9092,kafka-2:9092
	export STORAGE_BACKEND=badger
	export STORAGE_PATH=/data/ghostbus
	./ghostbus

Docker:

	docker run -d \
	  -e INGEST_SOURCES=simulator \
	  -e STALE_THRESHOLD_SECONDS=20 \
	  -p 8080:8080 \
	  ghcr.io/tomtom215/ghostbus

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/pipeline: Classification pipeline and event bus
  - internal/api: HTTP handlers and routing
  - internal/detection: Ghost detection rules
*/
package main
