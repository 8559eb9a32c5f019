// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

/*
Package config provides centralized configuration management for Ghostbus.

This package handles loading, validation, and parsing of configuration for
all application components. It ensures consistent configuration across the
detection pipeline and provides sensible defaults for every setting, so a
bare `ghostbus` invocation runs a working simulated fleet.

# Configuration Sources

Configuration is loaded through Koanf v2 in three layers, later layers
overriding earlier ones:

  1. Built-in defaults (defaultConfig)
  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
  3. Environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - DetectionConfig: ghost detection thresholds and window sizes
  - StorageConfig: telemetry window backend (memory or badger)
  - IngestConfig: which position sources run and their rate limits
  - KafkaConfig: Kafka consumer settings for the kafka ingest source
  - SimulatorConfig: synthetic fleet generation parameters
  - BusConfig: event bus router retry and poison queue settings
  - NATSConfig: optional NATS mirror of classification events
  - SecurityConfig: CORS and API rate limiting
  - LoggingConfig: log level and output format

# Environment Variables

Every setting can be overridden by an environment variable. The mapping
from variable name to config path lives in envTransformFunc; unknown
variables are ignored rather than partially matched, which keeps random
host environment (PATH, HOME) out of the configuration tree.

Detection thresholds (DetectionConfig):
  - STALE_THRESHOLD_SECONDS: Seconds without an update before a vehicle
    is considered stale (default: 90)
  - NOT_MOVING_DISTANCE_METERS: Total window travel below which a vehicle
    is considered frozen (default: 5)
  - SPEED_SPIKE_MULTIPLIER: Current speed above mean*multiplier flags a
    spike (default: 3)
  - SPEED_DROP_MULTIPLIER: Current speed below mean*multiplier flags a
    drop (default: 0.3)
  - GHOST_SCORE_THRESHOLD: Score at which a vehicle is declared a ghost
    (default: 0.6)

Comma-separated list variables (INGEST_SOURCES, KAFKA_BROKERS,
CORS_ORIGINS, SIM_GHOST_VEHICLES) are split and trimmed before
unmarshaling.

# Validation

Validate runs after loading and rejects configurations that could never
detect anything, for example NOT_MOVING_MIN_SAMPLES larger than
LOCATION_WINDOW_SIZE. Validation errors name the environment variable
that needs fixing rather than the internal field.
*/
package config
