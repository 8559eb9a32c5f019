// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package ingest runs the position feed sources and admits their records
// to the event bus.
//
// A Source is one feed: the synthetic simulator, a Kafka topic carrying
// normalized PositionRecord JSON, or a polled upstream behind a Fetcher.
// The Manager runs the configured sources as a group and applies a global
// admission rate limit so one misbehaving feed cannot flood the pipeline.
// Wire-format decoding of real fleet feeds (GTFS-RT and friends) stays
// outside this package; sources deal in already-normalized records.
package ingest
