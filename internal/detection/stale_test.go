// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package detection

import (
	"context"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/models"
)

func TestStaleDetector_Check(t *testing.T) {
	tests := []struct {
		name             string
		ageSeconds       float64
		thresholdSeconds float64
		wantFinding      bool
	}{
		{
			name:             "fresh record",
			ageSeconds:       5,
			thresholdSeconds: 90,
			wantFinding:      false,
		},
		{
			name:             "just under threshold",
			ageSeconds:       89,
			thresholdSeconds: 90,
			wantFinding:      false,
		},
		{
			name:             "just over threshold",
			ageSeconds:       91,
			thresholdSeconds: 90,
			wantFinding:      true,
		},
		{
			name:             "stopped reporting",
			ageSeconds:       100,
			thresholdSeconds: 90,
			wantFinding:      true,
		},
		{
			name:             "stale against demo threshold",
			ageSeconds:       25,
			thresholdSeconds: 20,
			wantFinding:      true,
		},
		{
			name:             "fresh against demo threshold",
			ageSeconds:       15,
			thresholdSeconds: 20,
			wantFinding:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewStaleDetector(StaleConfig{ThresholdSeconds: tt.thresholdSeconds})
			record := &models.PositionRecord{
				VehicleID: "B101",
				Lat:       12.9716,
				Lon:       77.5946,
				Timestamp: nowEpochSeconds() - tt.ageSeconds,
			}

			finding, err := detector.Check(context.Background(), record, &Windows{})
			if err != nil {
				t.Fatalf("Check error: %v", err)
			}

			if !tt.wantFinding {
				if finding != nil {
					t.Fatalf("Check returned finding %+v, want nil", finding)
				}
				return
			}

			if finding == nil {
				t.Fatal("Check returned nil, want a finding")
			}
			if len(finding.Tags) != 1 || finding.Tags[0] != models.AnomalyStale {
				t.Errorf("Tags = %v, want [stale]", finding.Tags)
			}
			if finding.Score != staleScore {
				t.Errorf("Score = %v, want %v", finding.Score, staleScore)
			}
			if finding.Severity != models.SeverityWarning {
				t.Errorf("Severity = %q, want warning", finding.Severity)
			}
		})
	}
}

func TestStaleDetector_Disabled(t *testing.T) {
	detector := NewStaleDetector(DefaultStaleConfig())
	detector.SetEnabled(false)

	record := &models.PositionRecord{
		VehicleID: "B101",
		Timestamp: nowEpochSeconds() - 1000,
	}

	finding, err := detector.Check(context.Background(), record, &Windows{})
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if finding != nil {
		t.Errorf("disabled detector returned finding %+v, want nil", finding)
	}
	if detector.Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}
}

func TestStaleDetector_Configure(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"valid demo threshold", `{"threshold_seconds": 20}`, false},
		{"zero threshold", `{"threshold_seconds": 0}`, true},
		{"negative threshold", `{"threshold_seconds": -5}`, true},
		{"malformed json", `{threshold`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewStaleDetector(DefaultStaleConfig())
			err := detector.Configure(json.RawMessage(tt.config))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Configure error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && detector.Config().ThresholdSeconds != 20 {
				t.Errorf("ThresholdSeconds = %v, want 20", detector.Config().ThresholdSeconds)
			}
		})
	}
}
