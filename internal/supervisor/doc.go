// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package supervisor provides process supervision for Ghostbus using suture v4.

The package implements a hierarchical supervisor tree that manages the
lifecycle of every long-running service in the application, with automatic
restart, failure isolation, and graceful shutdown.

# Overview

Services are organized into three layers:

	RootSupervisor ("ghostbus")
	├── DataSupervisor ("data-layer")
	│   └── BadgerGCService (badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   ├── EventBusService
	│   └── IngestManagerService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The hierarchy ensures a crashing ingest source does not take down the
WebSocket fan-out, and storage maintenance failures never touch API
availability: the HTTP server keeps answering from the last classified
fleet state while the messaging layer restarts.

# Failure Handling

Each supervisor keeps a failure counter with exponential decay. A service
crash increments it; when the counter passes FailureThreshold the
supervisor waits FailureBackoff before restarting, which prevents restart
storms when a dependency is down. Defaults match suture's own (threshold
5, decay 30s, backoff 15s).

# Usage

	logger := slog.Default()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventBusService(bus))
	tree.AddMessagingService(services.NewIngestManagerService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	// ... wait for a signal, cancel ctx, then drain errCh.

Service return behavior follows suture's contract: returning an error
triggers a restart, returning with the context canceled stops the
service. If anything refuses to stop within ShutdownTimeout it shows up
in UnstoppedServiceReport.

Structured supervision events (starts, failures, backoff) go through the
sutureslog adapter to the process logger.
*/
package supervisor
