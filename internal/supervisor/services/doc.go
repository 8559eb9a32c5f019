// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package services provides suture.Service wrappers for Ghostbus components.

Each wrapper adapts a component's lifecycle (Run, RunWithContext,
ListenAndServe/Shutdown, GC tick loop) to suture's context-aware Serve
pattern and names itself via fmt.Stringer so supervision events are
attributable.

Available wrappers:

  - HTTPServerService: *http.Server with graceful shutdown draining
  - WebSocketHubService: the dashboard fan-out hub
  - EventBusService: the Watermill router consuming position messages
  - IngestManagerService: the feed source group
  - BadgerGCService: periodic value-log garbage collection

Wrappers depend on narrow local interfaces rather than the concrete
packages, which keeps this package import-light and the wrappers easy to
test with stubs.
*/
package services
