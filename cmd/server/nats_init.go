// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/pipeline"
)

// NATSComponents holds the optional mirror infrastructure for lifecycle
// management: the embedded server when one was started, nothing otherwise.
// The mirror handler itself runs inside the supervised bus router.
type NATSComponents struct {
	server *pipeline.EmbeddedNATSServer
}

// InitNATS attaches the JetStream mirror to the event bus when
// NATS_ENABLED=true. With NATS_EMBEDDED=true an in-process nats-server is
// started first and the mirror connects to it instead of NATS_URL.
//
// Must be called before the bus router starts.
func InitNATS(cfg *config.Config, bus *pipeline.Bus) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS mirror disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	components := &NATSComponents{}
	mirrorCfg := cfg.NATS

	if cfg.NATS.EmbeddedServer {
		srv, err := pipeline.NewEmbeddedNATSServer(cfg.NATS.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = srv
		mirrorCfg.URL = srv.ClientURL()
		logging.Info().Str("url", mirrorCfg.URL).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", mirrorCfg.URL).Msg("Using external NATS server")
	}

	if err := bus.AttachNATSMirror(mirrorCfg); err != nil {
		components.Shutdown(context.Background())
		return nil, err
	}

	return components, nil
}

// Shutdown stops the embedded server if one was started. Safe on a nil
// receiver so main can call it unconditionally.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil || c.server == nil {
		return
	}
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
	}
}
