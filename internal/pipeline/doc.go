// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package pipeline orchestrates the path of a position report through the
// system: validation, window updates, classification, persistence, and
// fan-out.
//
// Architecture:
//
//	ingest -> position.received -> Router -> Pipeline.Process
//	                                           |- windows (push + read)
//	                                           |- detection.Engine.Classify
//	                                           |- state.Upsert (circuit breaker)
//	                                           |- hub broadcast (non-blocking)
//	                                           `- vehicle.classified publish
//
// Process is per-vehicle atomic: updates for the same vehicle id are
// serialized by a keyed mutex while different vehicles proceed in parallel.
// The freshly pushed samples are visible to the classification, so the new
// point participates in the distance and mean computations.
//
// Storage mutations run through a sony/gobreaker circuit breaker. When the
// backend fails or the circuit is open the record is logged, counted, and
// skipped; previously known vehicle state is preserved and other vehicles
// are unaffected.
//
// The Bus wraps a Watermill router over the in-process gochannel Pub/Sub.
// Messages that keep failing after retries are diverted to a poison topic
// and counted by a monitor handler.
package pipeline
