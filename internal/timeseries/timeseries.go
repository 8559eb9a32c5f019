// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package timeseries stores short rolling windows of vehicle telemetry,
// one window per (vehicle, signal) pair. Windows are newest-first and
// capped: pushing to a full window drops the oldest sample. Samples are
// kept in arrival order, never re-sorted, so detectors see exactly the
// sequence the feed delivered.
package timeseries

import (
	"context"
)

// Key prefixes separating the two signal windows per vehicle.
const (
	locationKeyPrefix = "loc:"
	speedKeyPrefix    = "spd:"
)

// LocationKey returns the window key for a vehicle's location samples.
func LocationKey(vehicleID string) string {
	return locationKeyPrefix + vehicleID
}

// SpeedKey returns the window key for a vehicle's speed samples.
func SpeedKey(vehicleID string) string {
	return speedKeyPrefix + vehicleID
}

// Sample is a single telemetry point in a window. Location samples carry
// Lat/Lon/TS; speed samples carry Speed/TS. TS is epoch seconds as
// reported by the vehicle, not ingest time.
type Sample struct {
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
	Speed float64 `json:"speed,omitempty"`
	TS    float64 `json:"ts"`
}

// NewLocationSample builds a location-window sample.
func NewLocationSample(lat, lon, ts float64) Sample {
	return Sample{Lat: lat, Lon: lon, TS: ts}
}

// NewSpeedSample builds a speed-window sample.
func NewSpeedSample(speed, ts float64) Sample {
	return Sample{Speed: speed, TS: ts}
}

// Store is a rolling-window store keyed by (vehicle, signal).
//
// Push prepends a sample and trims the window to maxLen; the push and
// trim are atomic from a reader's point of view. Read returns a snapshot
// copy, newest sample first; a key that was never pushed reads as an
// empty window, not an error.
type Store interface {
	Push(ctx context.Context, key string, sample Sample, maxLen int) error
	Read(ctx context.Context, key string) ([]Sample, error)
}
