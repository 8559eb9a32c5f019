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
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/models"
)

// speedDropScore is the ghost-score contribution of a speed drop. Spikes
// contribute no score; they usually mean a bad sensor read, not a ghost.
const speedDropScore = 0.2

// SpeedConfig configures the speed-band detector.
type SpeedConfig struct {
	// SpikeMultiplier flags speeds above this multiple of the window mean.
	SpikeMultiplier float64 `json:"spike_multiplier"`

	// DropMultiplier flags speeds below this fraction of the window mean.
	DropMultiplier float64 `json:"drop_multiplier"`

	// MinSamples is the minimum number of speed samples required before
	// the rule is allowed to judge.
	MinSamples int `json:"min_samples"`
}

// DefaultSpeedConfig returns sensible defaults.
func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		SpikeMultiplier: 3,
		DropMultiplier:  0.3,
		MinSamples:      5,
	}
}

// SpeedDetector flags reported speeds far outside the vehicle's own recent
// band. Replayed or fabricated telemetry tends to carry speeds that no
// longer match the vehicle's history.
type SpeedDetector struct {
	config  SpeedConfig
	enabled bool
	mu      sync.RWMutex
}

// NewSpeedDetector creates a new speed-band detector.
func NewSpeedDetector(config SpeedConfig) *SpeedDetector {
	return &SpeedDetector{
		config:  config,
		enabled: true,
	}
}

// Type returns the rule type.
func (d *SpeedDetector) Type() DetectorType {
	return DetectorSpeed
}

// Check compares the current speed against the window mean. The window
// already contains the current sample when this runs, so the mean includes
// it. Records without a speed reading skip the rule entirely. A spike is
// checked before a drop; with non-negative speeds at most one can fire.
func (d *SpeedDetector) Check(ctx context.Context, record *models.PositionRecord, windows *Windows) (*Finding, error) {
	d.mu.RLock()
	if !d.enabled {
		d.mu.RUnlock()
		return nil, nil
	}
	config := d.config
	d.mu.RUnlock()

	if record.Speed == nil {
		return nil, nil
	}

	speeds := windows.Speeds
	if len(speeds) < config.MinSamples {
		return nil, nil
	}

	values := make([]float64, len(speeds))
	for i, s := range speeds {
		values[i] = s.Speed
	}

	mean := stat.Mean(values, nil)
	stddev := stat.PopStdDev(values, nil)
	current := *record.Speed

	finding := &Finding{Severity: models.SeverityInfo}

	if current > config.SpikeMultiplier*mean {
		finding.Tags = append(finding.Tags, models.AnomalySpeedSpike)
	}
	if mean > 0 && current < config.DropMultiplier*mean {
		finding.Tags = append(finding.Tags, models.AnomalySpeedDrop)
		finding.Score = speedDropScore
	}

	if len(finding.Tags) == 0 {
		return nil, nil
	}

	logging.Debug().
		Str("vehicle_id", record.VehicleID).
		Float64("current", current).
		Float64("mean", mean).
		Float64("stddev", stddev).
		Int("samples", len(values)).
		Msg("speed outside recent band")

	return finding, nil
}

// Configure updates the detector configuration.
func (d *SpeedDetector) Configure(config json.RawMessage) error {
	var newConfig SpeedConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.SpikeMultiplier <= 1 {
		return fmt.Errorf("spike_multiplier must be greater than 1")
	}
	if newConfig.DropMultiplier <= 0 || newConfig.DropMultiplier >= 1 {
		return fmt.Errorf("drop_multiplier must be between 0 and 1 exclusive")
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
func (d *SpeedDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *SpeedDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Config returns the current configuration.
func (d *SpeedDetector) Config() SpeedConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}
