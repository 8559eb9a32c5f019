// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

//go:build !nats

package main

import (
	"context"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/pipeline"
)

// NATSComponents is a stub for non-NATS builds.
type NATSComponents struct{}

// InitNATS is a no-op stub for non-NATS builds.
// Returns nil to indicate the mirror is not available.
func InitNATS(cfg *config.Config, _ *pipeline.Bus) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Shutdown is a no-op stub for non-NATS builds.
func (c *NATSComponents) Shutdown(_ context.Context) {}
