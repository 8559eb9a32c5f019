// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

//go:build nats

package main

import (
	"context"
	"testing"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/pipeline"
)

// TestNATSComponents_Shutdown tests the Shutdown method.
func TestNATSComponents_Shutdown(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		var c *NATSComponents
		// Should not panic
		c.Shutdown(context.Background())
	})

	t.Run("no embedded server", func(t *testing.T) {
		c := &NATSComponents{}
		// Should not panic
		c.Shutdown(context.Background())
	})
}

// TestInitNATS_Disabled verifies disabled config is a no-op.
func TestInitNATS_Disabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.NATS.Enabled = false

	components, err := InitNATS(cfg, &pipeline.Bus{})
	if err != nil {
		t.Fatalf("InitNATS() error: %v", err)
	}
	if components != nil {
		t.Errorf("InitNATS() with disabled config = %v, want nil", components)
	}
}
