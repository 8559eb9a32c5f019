// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/models"
)

// staleScore is the ghost-score contribution of a stale record.
const staleScore = 0.4

// StaleConfig configures the staleness detector.
type StaleConfig struct {
	// ThresholdSeconds is the maximum telemetry age before a record counts
	// as stale. Production fleets run 90s; demo deployments run 20s for
	// faster feedback.
	ThresholdSeconds float64 `json:"threshold_seconds"`
}

// DefaultStaleConfig returns sensible defaults.
func DefaultStaleConfig() StaleConfig {
	return StaleConfig{
		ThresholdSeconds: 90,
	}
}

// StaleDetector flags vehicles whose most recent report is older than the
// configured threshold. A bus that stopped reporting is the most common
// ghost signature, so this rule carries the largest score contribution.
type StaleDetector struct {
	config  StaleConfig
	enabled bool
	mu      sync.RWMutex
}

// NewStaleDetector creates a new staleness detector.
func NewStaleDetector(config StaleConfig) *StaleDetector {
	return &StaleDetector{
		config:  config,
		enabled: true,
	}
}

// Type returns the rule type.
func (d *StaleDetector) Type() DetectorType {
	return DetectorStale
}

// Check evaluates the record's age against the staleness threshold.
func (d *StaleDetector) Check(ctx context.Context, record *models.PositionRecord, windows *Windows) (*Finding, error) {
	d.mu.RLock()
	if !d.enabled {
		d.mu.RUnlock()
		return nil, nil
	}
	config := d.config
	d.mu.RUnlock()

	age := nowEpochSeconds() - record.Timestamp
	if age <= config.ThresholdSeconds {
		return nil, nil
	}

	return &Finding{
		Tags:     []models.AnomalyType{models.AnomalyStale},
		Score:    staleScore,
		Severity: models.SeverityWarning,
	}, nil
}

// Configure updates the detector configuration.
func (d *StaleDetector) Configure(config json.RawMessage) error {
	var newConfig StaleConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.ThresholdSeconds <= 0 {
		return fmt.Errorf("threshold_seconds must be positive")
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	return nil
}

// Enabled returns whether this detector is enabled.
func (d *StaleDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *StaleDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Config returns the current configuration.
func (d *StaleDetector) Config() StaleConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// nowEpochSeconds returns the current wall clock as fractional Unix
// seconds, the representation inbound telemetry timestamps use.
func nowEpochSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
