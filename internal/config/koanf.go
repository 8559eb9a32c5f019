// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ghostbus/config.yaml",
	"/etc/ghostbus/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Detection: DetectionConfig{
			StaleThresholdSeconds:   90,
			NotMovingDistanceMeters: 5,
			NotMovingMinSamples:     5,
			SpeedSpikeMultiplier:    3,
			SpeedDropMultiplier:     0.3,
			SpeedMinSamples:         5,
			LocationWindowSize:      10,
			SpeedWindowSize:         60,
			GhostScoreThreshold:     0.6,
		},
		Storage: StorageConfig{
			Backend:   "memory",
			Path:      "/data/ghostbus",
			WindowTTL: time.Hour,
		},
		Ingest: IngestConfig{
			Sources:      []string{"simulator"},
			PollInterval: 5 * time.Second,
			RateLimit:    200,
			RateBurst:    50,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{"localhost:9092"},
			Topic:    "positions",
			GroupID:  "ghostbus",
			MinBytes: 1,
			MaxBytes: 10 << 20, // 10MB
			MaxWait:  time.Second,
		},
		Simulator: SimulatorConfig{
			Interval:      5 * time.Second,
			Routes:        3,
			BusesPerRoute: 3,
			GhostVehicles: []string{"B103", "B302"},
			CenterLat:     12.9716,
			CenterLon:     77.5946,
		},
		Bus: BusConfig{
			RetryCount:    3,
			RetryInterval: 100 * time.Millisecond,
			PoisonTopic:   "position.poison",
			CloseTimeout:  30 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
			Subject:        "ghostbus.vehicle.classified",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// STALE_THRESHOLD_SECONDS -> detection.stale_threshold_seconds
	// STORAGE_BACKEND -> storage.backend
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"ingest.sources",
	"kafka.brokers",
	"simulator.ghost_vehicles",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - STALE_THRESHOLD_SECONDS -> detection.stale_threshold_seconds
//   - STORAGE_BACKEND -> storage.backend
//   - KAFKA_BROKERS -> kafka.brokers
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Map environment variable names to config sections
	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Detection mappings
		"stale_threshold_seconds":    "detection.stale_threshold_seconds",
		"not_moving_distance_meters": "detection.not_moving_distance_meters",
		"not_moving_min_samples":     "detection.not_moving_min_samples",
		"speed_spike_multiplier":     "detection.speed_spike_multiplier",
		"speed_drop_multiplier":      "detection.speed_drop_multiplier",
		"speed_min_samples":          "detection.speed_min_samples",
		"location_window_size":       "detection.location_window_size",
		"speed_window_size":          "detection.speed_window_size",
		"ghost_score_threshold":      "detection.ghost_score_threshold",

		// Storage mappings
		"storage_backend":    "storage.backend",
		"storage_path":       "storage.path",
		"storage_window_ttl": "storage.window_ttl",

		// Ingest mappings
		"ingest_sources":       "ingest.sources",
		"ingest_poll_interval": "ingest.poll_interval",
		"ingest_rate_limit":    "ingest.rate_limit",
		"ingest_rate_burst":    "ingest.rate_burst",

		// Kafka mappings
		"kafka_brokers":   "kafka.brokers",
		"kafka_topic":     "kafka.topic",
		"kafka_group_id":  "kafka.group_id",
		"kafka_min_bytes": "kafka.min_bytes",
		"kafka_max_bytes": "kafka.max_bytes",
		"kafka_max_wait":  "kafka.max_wait",

		// Simulator mappings
		"sim_interval":        "simulator.interval",
		"sim_routes":          "simulator.routes",
		"sim_buses_per_route": "simulator.buses_per_route",
		"sim_ghost_vehicles":  "simulator.ghost_vehicles",
		"sim_center_lat":      "simulator.center_lat",
		"sim_center_lon":      "simulator.center_lon",

		// Bus mappings
		"bus_retry_count":    "bus.retry_count",
		"bus_retry_interval": "bus.retry_interval",
		"bus_poison_topic":   "bus.poison_topic",
		"bus_close_timeout":  "bus.close_timeout",

		// NATS mappings
		"nats_enabled":   "nats.enabled",
		"nats_url":       "nats.url",
		"nats_embedded":  "nats.embedded_server",
		"nats_store_dir": "nats.store_dir",
		"nats_subject":   "nats.subject",

		// Security mappings
		"cors_origins":        "security.cors_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
