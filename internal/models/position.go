// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package models

import (
	"fmt"
	"math"
)

// Coordinate bounds in degrees.
const (
	MaxLatitude  = 90.0
	MinLatitude  = -90.0
	MaxLongitude = 180.0
	MinLongitude = -180.0
)

// PositionRecord is a single normalized vehicle position report.
//
// VehicleID is the identity key and must be non-empty. Timestamp is seconds
// since the Unix epoch; it is monotonic per vehicle in practice but not
// guaranteed, and a zero value means "not reported" (the pipeline defaults
// it to the current time). Speed and Bearing are optional; a nil pointer
// means the feed did not include the field.
type PositionRecord struct {
	VehicleID string   `json:"vehicle_id" validate:"required"`
	Lat       float64  `json:"lat" validate:"latitude"`
	Lon       float64  `json:"lon" validate:"longitude"`
	Timestamp float64  `json:"timestamp,omitempty"`
	RouteID   string   `json:"route_id,omitempty"`
	TripID    string   `json:"trip_id,omitempty"`
	Speed     *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
	Bearing   *float64 `json:"bearing,omitempty"`
}

// ValidationError describes a malformed input record. It is surfaced to the
// caller before the record enters the pipeline and is never silently dropped.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Validate checks the structural validity of the record: identity key
// present, coordinates finite and in range, optional numeric fields finite.
// A zero Timestamp is valid (defaulted later); a negative Speed is not.
func (r *PositionRecord) Validate() *ValidationError {
	if r.VehicleID == "" {
		return &ValidationError{Field: "vehicle_id", Message: "vehicle_id is required"}
	}
	if !isFinite(r.Lat) {
		return &ValidationError{Field: "lat", Message: "latitude must be a finite number"}
	}
	if r.Lat < MinLatitude || r.Lat > MaxLatitude {
		return &ValidationError{Field: "lat", Message: fmt.Sprintf("latitude %v out of range [%v, %v]", r.Lat, MinLatitude, MaxLatitude)}
	}
	if !isFinite(r.Lon) {
		return &ValidationError{Field: "lon", Message: "longitude must be a finite number"}
	}
	if r.Lon < MinLongitude || r.Lon > MaxLongitude {
		return &ValidationError{Field: "lon", Message: fmt.Sprintf("longitude %v out of range [%v, %v]", r.Lon, MinLongitude, MaxLongitude)}
	}
	if !isFinite(r.Timestamp) {
		return &ValidationError{Field: "timestamp", Message: "timestamp must be a finite number"}
	}
	if r.Speed != nil {
		if !isFinite(*r.Speed) {
			return &ValidationError{Field: "speed", Message: "speed must be a finite number"}
		}
		if *r.Speed < 0 {
			return &ValidationError{Field: "speed", Message: "speed must be >= 0"}
		}
	}
	if r.Bearing != nil && !isFinite(*r.Bearing) {
		return &ValidationError{Field: "bearing", Message: "bearing must be a finite number"}
	}
	return nil
}

// Clone returns a deep copy. The optional pointer fields are duplicated so
// the copy shares no mutable state with the original.
func (r *PositionRecord) Clone() *PositionRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Speed != nil {
		v := *r.Speed
		out.Speed = &v
	}
	if r.Bearing != nil {
		v := *r.Bearing
		out.Bearing = &v
	}
	return &out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
