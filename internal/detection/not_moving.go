// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package detection

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/models"
)

// notMovingScore is the ghost-score contribution of a frozen position.
const notMovingScore = 0.25

// NotMovingConfig configures the frozen-position detector.
type NotMovingConfig struct {
	// DistanceMeters is the path length below which the vehicle counts as
	// not moving across the retained window.
	DistanceMeters float64 `json:"distance_meters"`

	// MinSamples is the minimum number of location samples required before
	// the rule is allowed to judge.
	MinSamples int `json:"min_samples"`
}

// DefaultNotMovingConfig returns sensible defaults.
func DefaultNotMovingConfig() NotMovingConfig {
	return NotMovingConfig{
		DistanceMeters: 5,
		MinSamples:     5,
	}
}

// NotMovingDetector flags vehicles that keep reporting from the same spot.
// A transponder wedged at a depot or replaying a cached fix produces fresh
// timestamps with no movement, which staleness alone never catches.
type NotMovingDetector struct {
	config  NotMovingConfig
	enabled bool
	mu      sync.RWMutex
}

// NewNotMovingDetector creates a new frozen-position detector.
func NewNotMovingDetector(config NotMovingConfig) *NotMovingDetector {
	return &NotMovingDetector{
		config:  config,
		enabled: true,
	}
}

// Type returns the rule type.
func (d *NotMovingDetector) Type() DetectorType {
	return DetectorNotMoving
}

// Check sums the haversine distance over consecutive window samples. The
// window arrives newest first; distance is symmetric, so summing adjacent
// pairs in stored order measures the total path length either way.
func (d *NotMovingDetector) Check(ctx context.Context, record *models.PositionRecord, windows *Windows) (*Finding, error) {
	d.mu.RLock()
	if !d.enabled {
		d.mu.RUnlock()
		return nil, nil
	}
	config := d.config
	d.mu.RUnlock()

	locations := windows.Locations
	if len(locations) < config.MinSamples {
		return nil, nil
	}

	var totalMeters float64
	for i := 0; i < len(locations)-1; i++ {
		totalMeters += haversineMeters(
			locations[i].Lat, locations[i].Lon,
			locations[i+1].Lat, locations[i+1].Lon,
		)
	}

	if totalMeters >= config.DistanceMeters {
		return nil, nil
	}

	return &Finding{
		Tags:     []models.AnomalyType{models.AnomalyNotMoving},
		Score:    notMovingScore,
		Severity: models.SeverityWarning,
	}, nil
}

// Configure updates the detector configuration.
func (d *NotMovingDetector) Configure(config json.RawMessage) error {
	var newConfig NotMovingConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.DistanceMeters <= 0 {
		return fmt.Errorf("distance_meters must be positive")
	}
	if newConfig.MinSamples < 2 {
		return fmt.Errorf("min_samples must be at least 2")
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	return nil
}

// Enabled returns whether this detector is enabled.
func (d *NotMovingDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *NotMovingDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Config returns the current configuration.
func (d *NotMovingDetector) Config() NotMovingConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}
