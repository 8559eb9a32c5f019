// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package websocket fans classified vehicle records out to dashboard
// clients in real time.
//
// Protocol:
//
//	connect -> {"type":"snapshot","data":[...all vehicles...]}
//	        -> {"type":"bus.update","data":{...one vehicle...}}
//	        -> ...
//
// The snapshot is queued to a client's send channel before the client
// joins the broadcast set, so a client never sees an update for a vehicle
// it has no baseline for. Clients that stop draining their send channel
// are dropped; a stuck consumer never blocks the pipeline or the other
// clients.
package websocket
