// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

//go:build !nats

package pipeline

import (
	"fmt"

	"github.com/tomtom215/ghostbus/internal/config"
)

// AttachNATSMirror is a stub when NATS support is not compiled in. Build
// with -tags=nats to enable the JetStream mirror.
func (b *Bus) AttachNATSMirror(cfg config.NATSConfig) error {
	if !cfg.Enabled {
		return nil
	}
	return fmt.Errorf("NATS mirror not available: build with -tags=nats")
}
