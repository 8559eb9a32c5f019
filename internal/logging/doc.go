// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package logging provides centralized zerolog-based structured logging for Ghostbus.
//
// The package wraps a single global zerolog logger behind package-level
// functions so every component emits the same JSON stream. Console output
// is available for development.
//
// # Quick Start
//
//	import "github.com/tomtom215/ghostbus/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("vehicle_id", "B101").Msg("Position ingested")
//	logging.Error().Err(err).Msg("Classification failed")
//
// # Component Loggers
//
// Create component-specific loggers with default fields:
//
//	pipelineLogger := logging.With().Str("component", "pipeline").Logger()
//	pipelineLogger.Info().Msg("Router started")
//
// # slog Adapter
//
// NewSlogLogger returns an *slog.Logger backed by the global zerolog
// logger, for libraries that require slog (the suture supervisor's
// sutureslog handler in particular).
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
package logging
