// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package detection

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/models"
	"github.com/tomtom215/ghostbus/internal/timeseries"
)

// DetectorType identifies a detection rule.
type DetectorType string

const (
	// DetectorStale flags telemetry older than the staleness threshold.
	DetectorStale DetectorType = "stale"

	// DetectorNotMoving flags vehicles whose retained positions barely move.
	DetectorNotMoving DetectorType = "not_moving"

	// DetectorSpeed flags speeds far outside the vehicle's recent band.
	DetectorSpeed DetectorType = "speed"
)

// Windows holds the rolling telemetry read for one vehicle, newest first.
// Detectors treat the slices as read-only.
type Windows struct {
	Locations []timeseries.Sample
	Speeds    []timeseries.Sample
}

// Finding is the outcome of a single detector that fired. Tags lists the
// anomaly labels in rule order, Score is the rule's ghost-score
// contribution, and Severity is the floor the rule demands for the final
// classification.
type Finding struct {
	Tags     []models.AnomalyType
	Score    float64
	Severity models.Severity
}

// Detector is the interface all detection rules implement.
type Detector interface {
	// Type returns the rule type this detector handles.
	Type() DetectorType

	// Check evaluates one record against the rule. It returns a finding
	// when the rule fires and (nil, nil) otherwise, including when the
	// windows are too short to judge.
	Check(ctx context.Context, record *models.PositionRecord, windows *Windows) (*Finding, error)

	// Configure updates the detector configuration.
	Configure(config json.RawMessage) error

	// Enabled returns whether this detector is currently enabled.
	Enabled() bool

	// SetEnabled enables or disables the detector.
	SetEnabled(enabled bool)
}
