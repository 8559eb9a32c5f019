// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package models

import (
	"math"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestPositionRecordValidate(t *testing.T) {
	tests := []struct {
		name      string
		record    PositionRecord
		wantField string // empty means valid
	}{
		{
			name:   "valid minimal record",
			record: PositionRecord{VehicleID: "B101", Lat: 12.9716, Lon: 77.5946},
		},
		{
			name: "valid full record",
			record: PositionRecord{
				VehicleID: "B101",
				Lat:       12.9716,
				Lon:       77.5946,
				Timestamp: 1700000000,
				RouteID:   "R1",
				TripID:    "T1-1",
				Speed:     floatPtr(22.5),
				Bearing:   floatPtr(45),
			},
		},
		{
			name:      "missing vehicle id",
			record:    PositionRecord{Lat: 10, Lon: 20},
			wantField: "vehicle_id",
		},
		{
			name:      "latitude above range",
			record:    PositionRecord{VehicleID: "B101", Lat: 90.1, Lon: 0},
			wantField: "lat",
		},
		{
			name:      "latitude below range",
			record:    PositionRecord{VehicleID: "B101", Lat: -91, Lon: 0},
			wantField: "lat",
		},
		{
			name:      "longitude above range",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: 180.5},
			wantField: "lon",
		},
		{
			name:      "longitude below range",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: -181},
			wantField: "lon",
		},
		{
			name:      "NaN latitude",
			record:    PositionRecord{VehicleID: "B101", Lat: math.NaN(), Lon: 0},
			wantField: "lat",
		},
		{
			name:      "infinite longitude",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: math.Inf(1)},
			wantField: "lon",
		},
		{
			name:      "NaN timestamp",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: 0, Timestamp: math.NaN()},
			wantField: "timestamp",
		},
		{
			name:      "negative speed",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: 0, Speed: floatPtr(-1)},
			wantField: "speed",
		},
		{
			name:      "NaN speed",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: 0, Speed: floatPtr(math.NaN())},
			wantField: "speed",
		},
		{
			name:      "infinite bearing",
			record:    PositionRecord{VehicleID: "B101", Lat: 0, Lon: 0, Bearing: floatPtr(math.Inf(-1))},
			wantField: "bearing",
		},
		{
			name:   "boundary coordinates are valid",
			record: PositionRecord{VehicleID: "B101", Lat: 90, Lon: -180},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid record, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected validation error on field %q, got nil", tt.wantField)
			}
			if err.Field != tt.wantField {
				t.Errorf("error field = %q, want %q", err.Field, tt.wantField)
			}
		})
	}
}

func TestPositionRecordClone(t *testing.T) {
	orig := &PositionRecord{
		VehicleID: "B101",
		Lat:       12.9716,
		Lon:       77.5946,
		Speed:     floatPtr(20),
		Bearing:   floatPtr(90),
	}

	cp := orig.Clone()
	if cp == orig {
		t.Fatal("clone returned the same pointer")
	}
	if cp.Speed == orig.Speed || cp.Bearing == orig.Bearing {
		t.Fatal("clone shares pointer fields with the original")
	}

	*cp.Speed = 99
	if *orig.Speed != 20 {
		t.Errorf("mutating clone changed original speed to %v", *orig.Speed)
	}
}
