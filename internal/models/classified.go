// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package models

import (
	"math"
	"time"
)

// AnomalyType names a detection rule that fired for a record.
type AnomalyType string

// Anomaly tags, in the order the rules are evaluated.
const (
	AnomalyStale      AnomalyType = "stale"
	AnomalyNotMoving  AnomalyType = "not_moving"
	AnomalySpeedSpike AnomalyType = "speed_spike"
	AnomalySpeedDrop  AnomalyType = "speed_drop"
)

// Severity is the escalation level of a classification.
type Severity string

// Severity levels.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Status is the top-level health verdict for a vehicle.
type Status string

// Vehicle statuses.
const (
	StatusActive Status = "active"
	StatusGhost  Status = "ghost"
)

// ClassifiedRecord is a PositionRecord plus the anomaly verdict derived from
// the vehicle's rolling windows. AnomalyTypes preserves rule evaluation
// order and never contains duplicates. GhostScore is clamped to [0, 1].
// LastUpdate is the wall-clock time the state store accepted the record.
type ClassifiedRecord struct {
	PositionRecord

	AnomalyTypes []AnomalyType `json:"anomaly_types"`
	Anomaly      bool          `json:"anomaly"`
	GhostScore   float64       `json:"ghost_score"`
	Severity     Severity      `json:"severity"`
	IsGhost      bool          `json:"is_ghost"`
	Status       Status        `json:"status"`
	LastUpdate   time.Time     `json:"last_update"`
}

// Clone returns a deep copy, including the embedded record's pointer fields
// and the anomaly tag slice.
func (c *ClassifiedRecord) Clone() *ClassifiedRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.PositionRecord = *c.PositionRecord.Clone()
	if c.AnomalyTypes != nil {
		out.AnomalyTypes = make([]AnomalyType, len(c.AnomalyTypes))
		copy(out.AnomalyTypes, c.AnomalyTypes)
	}
	return &out
}

// HasAnomaly reports whether the given tag is present.
func (c *ClassifiedRecord) HasAnomaly(t AnomalyType) bool {
	for _, a := range c.AnomalyTypes {
		if a == t {
			return true
		}
	}
	return false
}

// StatsSummary is the aggregate fleet view returned by the stats endpoint.
type StatsSummary struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Ghost           int     `json:"ghost"`
	GhostPercentage float64 `json:"ghost_percentage"`
}

// NewStatsSummary computes the summary for the given counts. The percentage
// is rounded to one decimal place and is 0 when the fleet is empty.
func NewStatsSummary(total, ghost int) StatsSummary {
	s := StatsSummary{
		Total:  total,
		Active: total - ghost,
		Ghost:  ghost,
	}
	if total > 0 {
		s.GhostPercentage = math.Round(float64(ghost)/float64(total)*1000) / 10
	}
	return s
}
