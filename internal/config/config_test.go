// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a default configuration known to pass validation.
// Tests mutate one field at a time to isolate each rule.
func validConfig() *Config {
	return defaultConfig()
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Server.Timeout = 0 },
			wantErr: "HTTP_TIMEOUT",
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: "ENVIRONMENT",
		},
		{
			name:   "production environment",
			mutate: func(c *Config) { c.Server.Environment = "production" },
		},
		{
			name:   "environment is case insensitive",
			mutate: func(c *Config) { c.Server.Environment = "PRODUCTION" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateDetection(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "stale threshold zero",
			mutate:  func(c *Config) { c.Detection.StaleThresholdSeconds = 0 },
			wantErr: "STALE_THRESHOLD_SECONDS",
		},
		{
			name:    "stale threshold negative",
			mutate:  func(c *Config) { c.Detection.StaleThresholdSeconds = -5 },
			wantErr: "STALE_THRESHOLD_SECONDS",
		},
		{
			name:    "movement distance zero",
			mutate:  func(c *Config) { c.Detection.NotMovingDistanceMeters = 0 },
			wantErr: "NOT_MOVING_DISTANCE_METERS",
		},
		{
			name:    "min samples below two",
			mutate:  func(c *Config) { c.Detection.NotMovingMinSamples = 1 },
			wantErr: "NOT_MOVING_MIN_SAMPLES",
		},
		{
			name:    "spike multiplier exactly one",
			mutate:  func(c *Config) { c.Detection.SpeedSpikeMultiplier = 1 },
			wantErr: "SPEED_SPIKE_MULTIPLIER",
		},
		{
			name:   "spike multiplier just above one",
			mutate: func(c *Config) { c.Detection.SpeedSpikeMultiplier = 1.01 },
		},
		{
			name:    "drop multiplier zero",
			mutate:  func(c *Config) { c.Detection.SpeedDropMultiplier = 0 },
			wantErr: "SPEED_DROP_MULTIPLIER",
		},
		{
			name:    "drop multiplier exactly one",
			mutate:  func(c *Config) { c.Detection.SpeedDropMultiplier = 1 },
			wantErr: "SPEED_DROP_MULTIPLIER",
		},
		{
			name:    "speed min samples below two",
			mutate:  func(c *Config) { c.Detection.SpeedMinSamples = 0 },
			wantErr: "SPEED_MIN_SAMPLES",
		},
		{
			name:    "location window zero",
			mutate:  func(c *Config) { c.Detection.LocationWindowSize = 0 },
			wantErr: "LOCATION_WINDOW_SIZE",
		},
		{
			name:    "speed window zero",
			mutate:  func(c *Config) { c.Detection.SpeedWindowSize = 0 },
			wantErr: "SPEED_WINDOW_SIZE",
		},
		{
			name:    "ghost threshold zero",
			mutate:  func(c *Config) { c.Detection.GhostScoreThreshold = 0 },
			wantErr: "GHOST_SCORE_THRESHOLD",
		},
		{
			name:    "ghost threshold above one",
			mutate:  func(c *Config) { c.Detection.GhostScoreThreshold = 1.1 },
			wantErr: "GHOST_SCORE_THRESHOLD",
		},
		{
			name:   "ghost threshold exactly one",
			mutate: func(c *Config) { c.Detection.GhostScoreThreshold = 1 },
		},
		{
			name: "frozen min samples exceed location window",
			mutate: func(c *Config) {
				c.Detection.NotMovingMinSamples = 11
				c.Detection.LocationWindowSize = 10
			},
			wantErr: "NOT_MOVING_MIN_SAMPLES",
		},
		{
			name: "speed min samples exceed speed window",
			mutate: func(c *Config) {
				c.Detection.SpeedMinSamples = 61
				c.Detection.SpeedWindowSize = 60
			},
			wantErr: "SPEED_MIN_SAMPLES",
		},
		{
			name: "min samples equal to window is allowed",
			mutate: func(c *Config) {
				c.Detection.NotMovingMinSamples = 10
				c.Detection.LocationWindowSize = 10
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateStorage(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "memory backend",
			mutate: func(c *Config) { c.Storage.Backend = "memory" },
		},
		{
			name:   "badger backend with path",
			mutate: func(c *Config) { c.Storage.Backend = "badger" },
		},
		{
			name: "badger backend without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "badger"
				c.Storage.Path = ""
			},
			wantErr: "STORAGE_PATH",
		},
		{
			name: "badger backend without ttl",
			mutate: func(c *Config) {
				c.Storage.Backend = "badger"
				c.Storage.WindowTTL = 0
			},
			wantErr: "STORAGE_WINDOW_TTL",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "redis" },
			wantErr: "STORAGE_BACKEND",
		},
		{
			name:    "empty backend",
			mutate:  func(c *Config) { c.Storage.Backend = "" },
			wantErr: "STORAGE_BACKEND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateIngest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "simulator source",
			mutate: func(c *Config) { c.Ingest.Sources = []string{"simulator"} },
		},
		{
			name:   "kafka source with defaults",
			mutate: func(c *Config) { c.Ingest.Sources = []string{"kafka"} },
		},
		{
			name:   "both sources",
			mutate: func(c *Config) { c.Ingest.Sources = []string{"simulator", "kafka"} },
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Ingest.Sources = []string{"mqtt"} },
			wantErr: "INGEST_SOURCES",
		},
		{
			name:    "poll interval zero",
			mutate:  func(c *Config) { c.Ingest.PollInterval = 0 },
			wantErr: "INGEST_POLL_INTERVAL",
		},
		{
			name:    "rate limit zero",
			mutate:  func(c *Config) { c.Ingest.RateLimit = 0 },
			wantErr: "INGEST_RATE_LIMIT",
		},
		{
			name:    "rate burst zero",
			mutate:  func(c *Config) { c.Ingest.RateBurst = 0 },
			wantErr: "INGEST_RATE_BURST",
		},
		{
			name: "kafka source without brokers",
			mutate: func(c *Config) {
				c.Ingest.Sources = []string{"kafka"}
				c.Kafka.Brokers = nil
			},
			wantErr: "KAFKA_BROKERS",
		},
		{
			name: "kafka source without topic",
			mutate: func(c *Config) {
				c.Ingest.Sources = []string{"kafka"}
				c.Kafka.Topic = ""
			},
			wantErr: "KAFKA_TOPIC",
		},
		{
			name: "kafka source without group id",
			mutate: func(c *Config) {
				c.Ingest.Sources = []string{"kafka"}
				c.Kafka.GroupID = ""
			},
			wantErr: "KAFKA_GROUP_ID",
		},
		{
			name: "missing kafka brokers ignored when source disabled",
			mutate: func(c *Config) {
				c.Ingest.Sources = []string{"simulator"}
				c.Kafka.Brokers = nil
			},
		},
		{
			name:    "simulator interval zero",
			mutate:  func(c *Config) { c.Simulator.Interval = 0 },
			wantErr: "SIM_INTERVAL",
		},
		{
			name:    "simulator routes zero",
			mutate:  func(c *Config) { c.Simulator.Routes = 0 },
			wantErr: "SIM_ROUTES",
		},
		{
			name:    "simulator center latitude out of range",
			mutate:  func(c *Config) { c.Simulator.CenterLat = 91 },
			wantErr: "SIM_CENTER_LAT",
		},
		{
			name:    "simulator center longitude out of range",
			mutate:  func(c *Config) { c.Simulator.CenterLon = -181 },
			wantErr: "SIM_CENTER_LON",
		},
		{
			name: "broken simulator ignored when source disabled",
			mutate: func(c *Config) {
				c.Ingest.Sources = []string{"kafka"}
				c.Simulator.Interval = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateBus(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "zero retries allowed",
			mutate: func(c *Config) { c.Bus.RetryCount = 0 },
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Bus.RetryCount = -1 },
			wantErr: "BUS_RETRY_COUNT",
		},
		{
			name:    "retry interval zero",
			mutate:  func(c *Config) { c.Bus.RetryInterval = 0 },
			wantErr: "BUS_RETRY_INTERVAL",
		},
		{
			name:    "empty poison topic",
			mutate:  func(c *Config) { c.Bus.PoisonTopic = "" },
			wantErr: "BUS_POISON_TOPIC",
		},
		{
			name:    "close timeout zero",
			mutate:  func(c *Config) { c.Bus.CloseTimeout = 0 },
			wantErr: "BUS_CLOSE_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateNATS(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "disabled skips checks",
			mutate: func(c *Config) { c.NATS.Enabled = false; c.NATS.URL = "garbage" },
		},
		{
			name:   "enabled with nats url",
			mutate: func(c *Config) { c.NATS.Enabled = true },
		},
		{
			name: "enabled with tls url",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.URL = "tls://nats.example.com:4222"
			},
		},
		{
			name: "enabled with empty url",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.URL = ""
			},
			wantErr: "NATS_URL",
		},
		{
			name: "enabled with http url",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.URL = "http://localhost:4222"
			},
			wantErr: "NATS_URL",
		},
		{
			name: "enabled with empty subject",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.Subject = ""
			},
			wantErr: "NATS_SUBJECT",
		},
		{
			name: "embedded server without store dir",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.EmbeddedServer = true
				c.NATS.StoreDir = ""
			},
			wantErr: "NATS_STORE_DIR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateSecurity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "rate limit requests zero",
			mutate:  func(c *Config) { c.Security.RateLimitReqs = 0 },
			wantErr: "RATE_LIMIT_REQUESTS",
		},
		{
			name:    "rate limit window zero",
			mutate:  func(c *Config) { c.Security.RateLimitWindow = 0 },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name: "rate limit checks skipped when disabled",
			mutate: func(c *Config) {
				c.Security.RateLimitDisabled = true
				c.Security.RateLimitReqs = 0
				c.Security.RateLimitWindow = 0
			},
		},
		{
			name:    "empty cors origins",
			mutate:  func(c *Config) { c.Security.CORSOrigins = nil },
			wantErr: "CORS_ORIGINS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "console format",
			mutate: func(c *Config) { c.Logging.Format = "console" },
		},
		{
			name:   "warning alias",
			mutate: func(c *Config) { c.Logging.Level = "warning" },
		},
		{
			name:   "level is case insensitive",
			mutate: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
		{
			name:    "unknown level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertValidation(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestSourceEnabled(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		query   string
		want    bool
	}{
		{"simulator enabled", []string{"simulator"}, "simulator", true},
		{"kafka not enabled", []string{"simulator"}, "kafka", false},
		{"both enabled", []string{"simulator", "kafka"}, "kafka", true},
		{"case insensitive", []string{"Simulator"}, "simulator", true},
		{"empty sources", nil, "simulator", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ig := IngestConfig{Sources: tt.sources}
			if got := ig.SourceEnabled(tt.query); got != tt.want {
				t.Errorf("SourceEnabled(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestValidateErrorPropagation(t *testing.T) {
	// Each section's errors must surface through the top-level Validate.
	cfg := validConfig()
	cfg.Storage.Backend = "cassandra"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unknown backend, got nil")
	}
	if !strings.Contains(err.Error(), "cassandra") {
		t.Errorf("Validate() error = %v, want mention of the rejected value", err)
	}
}

func TestValidateDurationFields(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Timeout = -1 * time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for negative timeout, got nil")
	}
}

// assertValidation checks a Validate result against an expected error fragment.
// An empty fragment means validation must succeed.
func assertValidation(t *testing.T, err error, wantErr string) {
	t.Helper()
	if wantErr == "" {
		if err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("Validate() expected error containing %q, got nil", wantErr)
	}
	if !strings.Contains(err.Error(), wantErr) {
		t.Errorf("Validate() error = %v, want error containing %q", err, wantErr)
	}
}
