// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package detection classifies transit vehicles as active or ghost by
// evaluating detection rules against each position report and the
// vehicle's rolling telemetry windows.
//
// Detection Architecture:
//
//	PositionRecord + Windows -> Engine -> ClassifiedRecord
//	                              |
//	                              v
//	                        Rule Evaluators
//
// The engine is invoked inline by the update pipeline after the windows
// are refreshed. It is a pure function of its inputs: rules that lack
// enough samples skip quietly, and malformed input is rejected upstream
// before it ever reaches the engine.
//
// Detection Rules, in evaluation order:
//   - Stale: the report's timestamp is older than the staleness threshold
//   - Not Moving: the retained positions trace less path than a bus
//     covers in a single crawl through station traffic
//   - Speed: the reported speed sits far outside the vehicle's own
//     recent band, as a spike or a drop
//
// Scoring:
// Each fired rule contributes a fixed amount to the ghost score; the sum
// is clamped to [0, 1]. A score at or above the configured threshold
// marks the vehicle a ghost, and two or more distinct anomaly tags
// escalate severity to critical.
package detection
