// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package config

import (
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components including
// detection thresholds, storage backends, ingest sources, the event bus, and the HTTP server.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Detection.StaleThresholdSeconds, cfg.Storage.Backend, etc. are now populated
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Detection DetectionConfig `koanf:"detection"`
	Storage   StorageConfig   `koanf:"storage"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Kafka     KafkaConfig     `koanf:"kafka"`     // Optional: Kafka position feed (enabled via ingest.sources)
	Simulator SimulatorConfig `koanf:"simulator"` // Optional: synthetic fleet feed (enabled via ingest.sources)
	Bus       BusConfig       `koanf:"bus"`
	NATS      NATSConfig      `koanf:"nats"` // Optional: JetStream mirror of classified updates (build with -tags=nats)
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8080)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DetectionConfig holds the anomaly detection thresholds.
//
// Every rule threshold is configurable so demo deployments can run tighter
// cycles (e.g. STALE_THRESHOLD_SECONDS=20) without code changes. The
// defaults match live fleet operation.
//
// Environment Variables:
//   - STALE_THRESHOLD_SECONDS: Seconds without an update before a vehicle is stale (default: 90)
//   - NOT_MOVING_DISTANCE_METERS: Total window travel below which a vehicle is frozen (default: 5)
//   - NOT_MOVING_MIN_SAMPLES: Location samples required before the frozen rule fires (default: 5)
//   - SPEED_SPIKE_MULTIPLIER: Current speed above mean×multiplier flags a spike (default: 3)
//   - SPEED_DROP_MULTIPLIER: Current speed below mean×multiplier flags a drop (default: 0.3)
//   - SPEED_MIN_SAMPLES: Speed samples required before the speed rule fires (default: 5)
//   - LOCATION_WINDOW_SIZE: Rolling location window cap (default: 10)
//   - SPEED_WINDOW_SIZE: Rolling speed window cap (default: 60)
//   - GHOST_SCORE_THRESHOLD: Score at or above which a vehicle is a ghost (default: 0.6)
type DetectionConfig struct {
	StaleThresholdSeconds   float64 `koanf:"stale_threshold_seconds"`
	NotMovingDistanceMeters float64 `koanf:"not_moving_distance_meters"`
	NotMovingMinSamples     int     `koanf:"not_moving_min_samples"`
	SpeedSpikeMultiplier    float64 `koanf:"speed_spike_multiplier"`
	SpeedDropMultiplier     float64 `koanf:"speed_drop_multiplier"`
	SpeedMinSamples         int     `koanf:"speed_min_samples"`
	LocationWindowSize      int     `koanf:"location_window_size"`
	SpeedWindowSize         int     `koanf:"speed_window_size"`
	GhostScoreThreshold     float64 `koanf:"ghost_score_threshold"`
}

// StorageConfig selects and configures the window/state storage backend.
//
// The memory backend keeps everything in process and is the default. The
// badger backend persists windows and vehicle state to disk, surviving
// restarts; window entries carry a TTL so stale windows expire on their own.
//
// Environment Variables:
//   - STORAGE_BACKEND: memory or badger (default: memory)
//   - STORAGE_PATH: Badger data directory (default: /data/ghostbus)
//   - STORAGE_WINDOW_TTL: TTL applied to window entries in badger (default: 1h)
type StorageConfig struct {
	Backend   string        `koanf:"backend"`
	Path      string        `koanf:"path"`
	WindowTTL time.Duration `koanf:"window_ttl"`
}

// IngestConfig controls which position sources run and how fast they may
// publish into the pipeline.
//
// Environment Variables:
//   - INGEST_SOURCES: Comma-separated list: simulator, kafka (default: simulator)
//   - INGEST_POLL_INTERVAL: Poll source tick interval (default: 5s)
//   - INGEST_RATE_LIMIT: Records per second admitted to the bus (default: 200)
//   - INGEST_RATE_BURST: Burst size for the rate limiter (default: 50)
type IngestConfig struct {
	Sources      []string      `koanf:"sources"`
	PollInterval time.Duration `koanf:"poll_interval"`
	RateLimit    float64       `koanf:"rate_limit"`
	RateBurst    int           `koanf:"rate_burst"`
}

// KafkaConfig holds Kafka consumer settings for the kafka ingest source.
// Messages on the topic are normalized PositionRecord JSON.
//
// Environment Variables:
//   - KAFKA_BROKERS: Comma-separated broker list (default: localhost:9092)
//   - KAFKA_TOPIC: Topic carrying position JSON (default: positions)
//   - KAFKA_GROUP_ID: Consumer group id (default: ghostbus)
//   - KAFKA_MIN_BYTES / KAFKA_MAX_BYTES: Fetch sizing (defaults: 1 / 10MB)
//   - KAFKA_MAX_WAIT: Max fetch wait (default: 1s)
type KafkaConfig struct {
	Brokers  []string      `koanf:"brokers"`
	Topic    string        `koanf:"topic"`
	GroupID  string        `koanf:"group_id"`
	MinBytes int           `koanf:"min_bytes"`
	MaxBytes int           `koanf:"max_bytes"`
	MaxWait  time.Duration `koanf:"max_wait"`
}

// SimulatorConfig holds the synthetic fleet generator settings. The
// simulator drives demo deployments and exercises every detection rule:
// designated ghost vehicles skip most of their updates and barely move.
//
// Environment Variables:
//   - SIM_INTERVAL: Tick interval (default: 5s)
//   - SIM_ROUTES: Number of circular routes (default: 3)
//   - SIM_BUSES_PER_ROUTE: Buses per route (default: 3)
//   - SIM_GHOST_VEHICLES: Comma-separated ghost vehicle ids (default: B103,B302)
//   - SIM_CENTER_LAT / SIM_CENTER_LON: Route center (default: 12.9716, 77.5946)
type SimulatorConfig struct {
	Interval      time.Duration `koanf:"interval"`
	Routes        int           `koanf:"routes"`
	BusesPerRoute int           `koanf:"buses_per_route"`
	GhostVehicles []string      `koanf:"ghost_vehicles"`
	CenterLat     float64       `koanf:"center_lat"`
	CenterLon     float64       `koanf:"center_lon"`
}

// BusConfig holds the internal event bus (Watermill router) settings.
//
// Environment Variables:
//   - BUS_RETRY_COUNT: Handler retries before poisoning a message (default: 3)
//   - BUS_RETRY_INTERVAL: Initial retry backoff (default: 100ms)
//   - BUS_POISON_TOPIC: Topic for messages that exhaust retries (default: position.poison)
//   - BUS_CLOSE_TIMEOUT: Router close timeout on shutdown (default: 30s)
type BusConfig struct {
	RetryCount    int           `koanf:"retry_count"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	PoisonTopic   string        `koanf:"poison_topic"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`
}

// NATSConfig holds settings for the optional JetStream mirror. The mirror
// republishes classified updates to a NATS subject for external consumers
// and only compiles in with the nats build tag.
//
// Environment Variables:
//   - NATS_ENABLED: Enable the mirror (default: false)
//   - NATS_URL: Server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded nats-server (default: false)
//   - NATS_STORE_DIR: JetStream store dir for the embedded server (default: /data/nats/jetstream)
//   - NATS_SUBJECT: Mirror subject (default: ghostbus.vehicle.classified)
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	Subject        string `koanf:"subject"`
}

// SecurityConfig holds the HTTP surface protections. Authentication is out
// of scope for this service; the knobs here cover CORS and rate limiting.
//
// Environment Variables:
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS: Requests per window per IP (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: Disable rate limiting entirely (default: false)
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SourceEnabled reports whether the named ingest source is configured to run.
// Matching is case insensitive so INGEST_SOURCES=Simulator still works.
func (c *IngestConfig) SourceEnabled(name string) bool {
	for _, s := range c.Sources {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Load reads configuration from environment variables and optional config file.
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
