// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ghostbus/internal/api"
	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/detection"
	"github.com/tomtom215/ghostbus/internal/ingest"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/pipeline"
	"github.com/tomtom215/ghostbus/internal/simulator"
	"github.com/tomtom215/ghostbus/internal/state"
	"github.com/tomtom215/ghostbus/internal/supervisor"
	"github.com/tomtom215/ghostbus/internal/supervisor/services"
	"github.com/tomtom215/ghostbus/internal/timeseries"
	ws "github.com/tomtom215/ghostbus/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Ghostbus with supervisor tree")
	logging.Info().
		Str("storage_backend", cfg.Storage.Backend).
		Strs("ingest_sources", cfg.Ingest.Sources).
		Float64("stale_threshold_seconds", cfg.Detection.StaleThresholdSeconds).
		Float64("ghost_score_threshold", cfg.Detection.GhostScoreThreshold).
		Msg("Configuration loaded")

	// Initialize storage. The factory owns the badger handle when that
	// backend is selected; the window store and vehicle state share it.
	factory, err := timeseries.NewStoreFactory(
		timeseries.StoreBackend(cfg.Storage.Backend),
		cfg.Storage.Path,
		cfg.Storage.WindowTTL,
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		if err := factory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	windows := factory.CreateStore()

	var vehicles state.Store
	if factory.DB() != nil {
		vehicles = state.NewBadgerStore(factory.DB())
		logging.Info().Str("path", cfg.Storage.Path).Msg("Storage initialized (badger, persistent)")
	} else {
		vehicles = state.NewMemoryStore()
		logging.Info().Msg("Storage initialized (memory)")
	}

	// Initialize the detection engine with configured rule thresholds
	engine := buildEngine(cfg.Detection)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub: new clients get the current classified fleet as a
	// snapshot before live updates
	hub := ws.NewHub(vehicles.All)

	// Pipeline + event bus: ingest sources publish positions, the router
	// runs each through the pipeline, classified records fan out to the hub
	pipe := pipeline.New(windows, vehicles, engine, hub, pipeline.Config{
		LocationWindowSize: cfg.Detection.LocationWindowSize,
		SpeedWindowSize:    cfg.Detection.SpeedWindowSize,
	})

	bus, err := pipeline.NewBus(pipe, cfg.Bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event bus")
	}

	// Initialize the NATS mirror (optional - requires build with -tags nats)
	natsComponents, err := InitNATS(cfg, bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS mirror")
	}

	// Ingest manager runs the configured position sources
	manager := ingest.NewManager(bus, cfg.Ingest)
	if cfg.Ingest.SourceEnabled("simulator") {
		manager.AddSource(simulator.New(manager, cfg.Simulator))
		logging.Info().
			Int("routes", cfg.Simulator.Routes).
			Int("buses_per_route", cfg.Simulator.BusesPerRoute).
			Strs("ghost_vehicles", cfg.Simulator.GhostVehicles).
			Msg("Simulator source enabled")
	}
	if cfg.Ingest.SourceEnabled("kafka") {
		source, err := ingest.NewKafkaSource(cfg.Kafka, manager)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create Kafka source")
		}
		manager.AddSource(source)
		logging.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Kafka source enabled")
	}
	if len(cfg.Ingest.Sources) == 0 {
		logging.Warn().Msg("No ingest sources configured; positions arrive via POST /api/v1/buses/update only")
	}

	handler := api.NewHandler(vehicles, pipe, hub, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer: badger never garbage-collects its value log on its own
	if factory.DB() != nil {
		tree.AddDataService(services.NewBadgerGCService(factory.DB(), 5*time.Minute))
		logging.Info().Msg("Badger GC service added to supervisor tree")
	}

	// Messaging layer
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventBusService(bus))
	tree.AddMessagingService(services.NewIngestManagerService(manager))
	logging.Info().Msg("WebSocket hub, event bus, and ingest manager added to supervisor tree")

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	// The router is stopped by now. Close the bus before the mirror's
	// embedded server (if any) goes away.
	if err := bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event bus")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	natsComponents.Shutdown(shutdownCtx)

	logging.Info().Msg("Application stopped gracefully")
}

// buildEngine wires the detection rules from configuration. Load has
// already range-checked every threshold.
func buildEngine(cfg config.DetectionConfig) *detection.Engine {
	engine := detection.NewEngine(cfg.GhostScoreThreshold)

	engine.RegisterDetector(detection.NewStaleDetector(detection.StaleConfig{
		ThresholdSeconds: cfg.StaleThresholdSeconds,
	}))
	engine.RegisterDetector(detection.NewNotMovingDetector(detection.NotMovingConfig{
		DistanceMeters: cfg.NotMovingDistanceMeters,
		MinSamples:     cfg.NotMovingMinSamples,
	}))
	engine.RegisterDetector(detection.NewSpeedDetector(detection.SpeedConfig{
		SpikeMultiplier: cfg.SpeedSpikeMultiplier,
		DropMultiplier:  cfg.SpeedDropMultiplier,
		MinSamples:      cfg.SpeedMinSamples,
	}))

	logging.Info().
		Float64("ghost_score_threshold", cfg.GhostScoreThreshold).
		Int("detectors", len(engine.Detectors())).
		Msg("Detection engine initialized")

	return engine
}
