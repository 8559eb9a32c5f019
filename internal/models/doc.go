// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package models defines the shared data types that flow through Ghostbus:
// the normalized PositionRecord accepted from feed collaborators, the
// ClassifiedRecord produced by the anomaly engine, and the standard API
// response envelope.
//
// PositionRecord is the immutable input unit. ClassifiedRecord is derived
// deterministically from a record plus the vehicle's rolling windows and is
// never mutated independently. Both serialize with snake_case JSON field
// names matching the upstream feed conventions.
package models
