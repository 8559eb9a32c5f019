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

	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Engine evaluates detection rules against a record and its telemetry
// windows and produces the final classification. It holds detectors in
// registration order; tag order in the output follows that order.
//
// Classify reads only its arguments. It never touches a store and never
// mutates the caller's record, so two calls with the same inputs agree.
type Engine struct {
	mu        sync.RWMutex
	detectors []Detector
	threshold float64
	enabled   bool
}

// NewEngine creates a detection engine. Records scoring at or above
// ghostScoreThreshold are classified as ghosts.
func NewEngine(ghostScoreThreshold float64) *Engine {
	return &Engine{
		detectors: make([]Detector, 0, 3),
		threshold: ghostScoreThreshold,
		enabled:   true,
	}
}

// RegisterDetector adds a detector to the engine. Registering a detector
// whose type is already present replaces it in place, keeping rule order.
func (e *Engine) RegisterDetector(detector Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.detectors {
		if existing.Type() == detector.Type() {
			e.detectors[i] = detector
			logging.Info().Str("detector", string(detector.Type())).Msg("replaced detector")
			return
		}
	}

	e.detectors = append(e.detectors, detector)
	logging.Info().Str("detector", string(detector.Type())).Msg("registered detector")
}

// Classify runs every enabled detector against the record and finalizes
// the verdict: the ghost score is the clamped sum of rule contributions,
// a score at or above the threshold makes the vehicle a ghost, and two or
// more distinct tags escalate severity to critical. Rules that lack the
// data they need skip quietly; a clean record comes back info/active with
// score zero.
func (e *Engine) Classify(ctx context.Context, record *models.PositionRecord, windows *Windows) *models.ClassifiedRecord {
	e.mu.RLock()
	detectors := make([]Detector, len(e.detectors))
	copy(detectors, e.detectors)
	threshold := e.threshold
	enabled := e.enabled
	e.mu.RUnlock()

	classified := &models.ClassifiedRecord{
		PositionRecord: *record.Clone(),
		AnomalyTypes:   []models.AnomalyType{},
		Severity:       models.SeverityInfo,
		Status:         models.StatusActive,
	}

	if !enabled {
		return classified
	}

	var score float64
	severity := models.SeverityInfo

	for _, detector := range detectors {
		if !detector.Enabled() {
			continue
		}

		metrics.RecordDetectorCheck(string(detector.Type()))

		finding, err := detector.Check(ctx, record, windows)
		if err != nil {
			logging.Error().
				Err(err).
				Str("detector", string(detector.Type())).
				Str("vehicle_id", record.VehicleID).
				Msg("detector check failed")
			continue
		}
		if finding == nil {
			continue
		}

		for _, tag := range finding.Tags {
			if classified.HasAnomaly(tag) {
				continue
			}
			classified.AnomalyTypes = append(classified.AnomalyTypes, tag)
			metrics.RecordAnomaly(string(tag))
		}

		score += finding.Score
		if severityRank(finding.Severity) > severityRank(severity) {
			severity = finding.Severity
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	if len(classified.AnomalyTypes) >= 2 {
		severity = models.SeverityCritical
	}

	classified.Anomaly = len(classified.AnomalyTypes) > 0
	classified.GhostScore = score
	classified.Severity = severity
	classified.IsGhost = score >= threshold
	if classified.IsGhost {
		classified.Status = models.StatusGhost
	}

	metrics.RecordGhostScore(score)

	return classified
}

// Detector returns a registered detector by type.
func (e *Engine) Detector(detectorType DetectorType) (Detector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, d := range e.detectors {
		if d.Type() == detectorType {
			return d, true
		}
	}
	return nil, false
}

// Detectors returns all registered detectors in rule order.
func (e *Engine) Detectors() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Detector, len(e.detectors))
	copy(out, e.detectors)
	return out
}

// ConfigureDetector updates a detector's configuration.
func (e *Engine) ConfigureDetector(detectorType DetectorType, config json.RawMessage) error {
	detector, ok := e.Detector(detectorType)
	if !ok {
		return fmt.Errorf("detector not found: %s", detectorType)
	}
	return detector.Configure(config)
}

// SetDetectorEnabled enables or disables a specific detector.
func (e *Engine) SetDetectorEnabled(detectorType DetectorType, enabled bool) error {
	detector, ok := e.Detector(detectorType)
	if !ok {
		return fmt.Errorf("detector not found: %s", detectorType)
	}
	detector.SetEnabled(enabled)
	return nil
}

// SetEnabled enables or disables the whole engine. A disabled engine
// classifies every record as clean.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Enabled returns whether the engine is enabled.
func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}

// Threshold returns the ghost-score threshold.
func (e *Engine) Threshold() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.threshold
}

// severityRank orders severities for floor comparisons. Unknown values
// rank lowest.
func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return 2
	case models.SeverityWarning:
		return 1
	default:
		return 0
	}
}
