// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDetection(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateIngest(); err != nil {
		return err
	}

	if err := c.validateBus(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}

	env := strings.ToLower(c.Server.Environment)
	if env != "development" && env != "production" && env != "test" {
		return fmt.Errorf("ENVIRONMENT must be one of: development, production, test (got %q)", c.Server.Environment)
	}
	return nil
}

// validateDetection validates detection thresholds. Every threshold is
// operator-tunable, so range errors here are the only thing standing
// between a typo and a fleet that never flags anything.
func (c *Config) validateDetection() error {
	d := c.Detection

	if d.StaleThresholdSeconds <= 0 {
		return fmt.Errorf("STALE_THRESHOLD_SECONDS must be positive, got %v", d.StaleThresholdSeconds)
	}
	if d.NotMovingDistanceMeters <= 0 {
		return fmt.Errorf("NOT_MOVING_DISTANCE_METERS must be positive, got %v", d.NotMovingDistanceMeters)
	}
	if d.NotMovingMinSamples < 2 {
		return fmt.Errorf("NOT_MOVING_MIN_SAMPLES must be at least 2, got %d", d.NotMovingMinSamples)
	}
	if d.SpeedSpikeMultiplier <= 1 {
		return fmt.Errorf("SPEED_SPIKE_MULTIPLIER must be greater than 1, got %v", d.SpeedSpikeMultiplier)
	}
	if d.SpeedDropMultiplier <= 0 || d.SpeedDropMultiplier >= 1 {
		return fmt.Errorf("SPEED_DROP_MULTIPLIER must be between 0 and 1 exclusive, got %v", d.SpeedDropMultiplier)
	}
	if d.SpeedMinSamples < 2 {
		return fmt.Errorf("SPEED_MIN_SAMPLES must be at least 2, got %d", d.SpeedMinSamples)
	}
	if d.LocationWindowSize < 1 {
		return fmt.Errorf("LOCATION_WINDOW_SIZE must be at least 1, got %d", d.LocationWindowSize)
	}
	if d.SpeedWindowSize < 1 {
		return fmt.Errorf("SPEED_WINDOW_SIZE must be at least 1, got %d", d.SpeedWindowSize)
	}
	if d.GhostScoreThreshold <= 0 || d.GhostScoreThreshold > 1 {
		return fmt.Errorf("GHOST_SCORE_THRESHOLD must be in (0, 1], got %v", d.GhostScoreThreshold)
	}

	// The frozen rule needs at least min-samples points in the window to
	// ever fire.
	if d.NotMovingMinSamples > d.LocationWindowSize {
		return fmt.Errorf("NOT_MOVING_MIN_SAMPLES (%d) cannot exceed LOCATION_WINDOW_SIZE (%d)",
			d.NotMovingMinSamples, d.LocationWindowSize)
	}
	if d.SpeedMinSamples > d.SpeedWindowSize {
		return fmt.Errorf("SPEED_MIN_SAMPLES (%d) cannot exceed SPEED_WINDOW_SIZE (%d)",
			d.SpeedMinSamples, d.SpeedWindowSize)
	}

	return nil
}

// validateStorage validates the storage backend selection
func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "memory":
		return nil
	case "badger":
		if c.Storage.Path == "" {
			return fmt.Errorf("STORAGE_PATH is required when STORAGE_BACKEND=badger")
		}
		if c.Storage.WindowTTL <= 0 {
			return fmt.Errorf("STORAGE_WINDOW_TTL must be positive when STORAGE_BACKEND=badger")
		}
		return nil
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: memory, badger (got %q)", c.Storage.Backend)
	}
}

// validateIngest validates ingest source configuration
func (c *Config) validateIngest() error {
	for _, source := range c.Ingest.Sources {
		switch strings.ToLower(source) {
		case "simulator", "kafka":
		default:
			return fmt.Errorf("INGEST_SOURCES contains unknown source %q (valid: simulator, kafka)", source)
		}
	}

	if c.Ingest.PollInterval <= 0 {
		return fmt.Errorf("INGEST_POLL_INTERVAL must be positive")
	}
	if c.Ingest.RateLimit <= 0 {
		return fmt.Errorf("INGEST_RATE_LIMIT must be positive")
	}
	if c.Ingest.RateBurst < 1 {
		return fmt.Errorf("INGEST_RATE_BURST must be at least 1")
	}

	if c.Ingest.SourceEnabled("kafka") {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when the kafka ingest source is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC is required when the kafka ingest source is enabled")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("KAFKA_GROUP_ID is required when the kafka ingest source is enabled")
		}
	}

	if c.Ingest.SourceEnabled("simulator") {
		if c.Simulator.Interval <= 0 {
			return fmt.Errorf("SIM_INTERVAL must be positive")
		}
		if c.Simulator.Routes < 1 || c.Simulator.BusesPerRoute < 1 {
			return fmt.Errorf("SIM_ROUTES and SIM_BUSES_PER_ROUTE must be at least 1")
		}
		if c.Simulator.CenterLat < -90 || c.Simulator.CenterLat > 90 {
			return fmt.Errorf("SIM_CENTER_LAT must be between -90 and 90")
		}
		if c.Simulator.CenterLon < -180 || c.Simulator.CenterLon > 180 {
			return fmt.Errorf("SIM_CENTER_LON must be between -180 and 180")
		}
	}

	return nil
}

// validateBus validates the event bus router configuration
func (c *Config) validateBus() error {
	if c.Bus.RetryCount < 0 {
		return fmt.Errorf("BUS_RETRY_COUNT must not be negative")
	}
	if c.Bus.RetryInterval <= 0 {
		return fmt.Errorf("BUS_RETRY_INTERVAL must be positive")
	}
	if c.Bus.PoisonTopic == "" {
		return fmt.Errorf("BUS_POISON_TOPIC must not be empty")
	}
	if c.Bus.CloseTimeout <= 0 {
		return fmt.Errorf("BUS_CLOSE_TIMEOUT must be positive")
	}
	return nil
}

// validateNATS validates NATS mirror configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT must not be empty")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

// validateSecurity validates CORS and rate limit configuration
func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if len(c.Security.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must not be empty (use * to allow all)")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic (got %q)", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of: json, console (got %q)", c.Logging.Format)
	}

	return nil
}
