// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/detection"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
	"github.com/tomtom215/ghostbus/internal/state"
	"github.com/tomtom215/ghostbus/internal/timeseries"
)

// Broadcaster receives classified records for live fan-out. The hub's
// implementation never blocks; a full queue drops the update.
type Broadcaster interface {
	BroadcastClassified(record *models.ClassifiedRecord)
}

// Config bounds the rolling windows fed to the detection engine.
type Config struct {
	LocationWindowSize int
	SpeedWindowSize    int
}

// DefaultConfig returns the standard window caps: ten positions cover the
// not-moving distance sum, sixty speeds cover the mean/stddev baseline.
func DefaultConfig() Config {
	return Config{
		LocationWindowSize: 10,
		SpeedWindowSize:    60,
	}
}

// Pipeline runs a position record through validation, window updates,
// classification, and persistence. It is the only writer of the window and
// state stores.
type Pipeline struct {
	windows  timeseries.Store
	vehicles state.Store
	engine   *detection.Engine
	hub      Broadcaster
	breaker  *storageBreaker
	config   Config

	pubMu         sync.RWMutex
	classifiedPub message.Publisher

	vehicleLocks sync.Map // vehicle id -> *sync.Mutex
}

// New builds a Pipeline. hub may be nil when no live fan-out is wanted.
// Window caps at or below zero fall back to the defaults.
func New(windows timeseries.Store, vehicles state.Store, engine *detection.Engine, hub Broadcaster, cfg Config) *Pipeline {
	defaults := DefaultConfig()
	if cfg.LocationWindowSize <= 0 {
		cfg.LocationWindowSize = defaults.LocationWindowSize
	}
	if cfg.SpeedWindowSize <= 0 {
		cfg.SpeedWindowSize = defaults.SpeedWindowSize
	}

	return &Pipeline{
		windows:  windows,
		vehicles: vehicles,
		engine:   engine,
		hub:      hub,
		breaker:  newStorageBreaker(),
		config:   cfg,
	}
}

// SetClassifiedPublisher attaches the event bus publisher for classified
// records. Publishing is best effort; failures are logged, never returned.
func (p *Pipeline) SetClassifiedPublisher(pub message.Publisher) {
	p.pubMu.Lock()
	p.classifiedPub = pub
	p.pubMu.Unlock()
}

// Process runs one position record through the pipeline and returns the
// classified result.
//
// The sequence per record: validate, default a missing timestamp, then under
// the vehicle's lock push the location (and speed, when present) samples,
// read the windows back, classify, and upsert the vehicle state. Broadcast
// and bus publish happen after the lock is released and never block.
//
// A validation failure returns *models.ValidationError. A storage failure
// (including an open circuit, reported as ErrStorageUnavailable) skips the
// record: the error is logged and counted, previously known state stays
// intact, and other vehicles are unaffected.
func (p *Pipeline) Process(ctx context.Context, record *models.PositionRecord) (*models.ClassifiedRecord, error) {
	start := time.Now()

	if record == nil {
		metrics.RecordPipelineResult("validation_error", time.Since(start))
		return nil, &models.ValidationError{Field: "record", Message: "record is required"}
	}
	if verr := record.Validate(); verr != nil {
		metrics.RecordPipelineResult("validation_error", time.Since(start))
		logging.Warn().
			Str("vehicle_id", record.VehicleID).
			Str("field", verr.Field).
			Msg("rejected invalid position record")
		return nil, verr
	}

	rec := record.Clone()
	if rec.Timestamp <= 0 {
		rec.Timestamp = float64(time.Now().UnixNano()) / float64(time.Second)
	}

	classified, err := p.processVehicle(ctx, rec)
	if err != nil {
		metrics.RecordPipelineResult("storage_error", time.Since(start))
		logging.Error().
			Err(err).
			Str("vehicle_id", rec.VehicleID).
			Msg("record skipped, keeping last known vehicle state")
		return nil, err
	}

	metrics.RecordPipelineResult("ok", time.Since(start))

	if p.hub != nil {
		p.hub.BroadcastClassified(classified)
	}
	p.publishClassified(classified)

	return classified, nil
}

// processVehicle holds the per-vehicle critical section: window mutations,
// window reads, classification, and the state upsert. Updates for the same
// vehicle apply in receipt order; the new sample is already in the window
// when the engine reads it.
func (p *Pipeline) processVehicle(ctx context.Context, rec *models.PositionRecord) (*models.ClassifiedRecord, error) {
	unlock := p.lockVehicle(rec.VehicleID)
	defer unlock()

	locKey := timeseries.LocationKey(rec.VehicleID)
	err := p.breaker.execute("window_push", func() error {
		return p.windows.Push(ctx, locKey, timeseries.NewLocationSample(rec.Lat, rec.Lon, rec.Timestamp), p.config.LocationWindowSize)
	})
	if err != nil {
		return nil, err
	}

	if rec.Speed != nil {
		err := p.breaker.execute("window_push", func() error {
			return p.windows.Push(ctx, timeseries.SpeedKey(rec.VehicleID), timeseries.NewSpeedSample(*rec.Speed, rec.Timestamp), p.config.SpeedWindowSize)
		})
		if err != nil {
			return nil, err
		}
	}

	windows, err := p.readWindows(ctx, rec)
	if err != nil {
		return nil, err
	}

	classified := p.engine.Classify(ctx, rec, windows)

	err = p.breaker.execute("state_upsert", func() error {
		return p.vehicles.Upsert(ctx, classified)
	})
	if err != nil {
		return nil, err
	}

	return classified, nil
}

func (p *Pipeline) readWindows(ctx context.Context, rec *models.PositionRecord) (*detection.Windows, error) {
	locations, err := p.windows.Read(ctx, timeseries.LocationKey(rec.VehicleID))
	if err != nil {
		return nil, fmt.Errorf("window_read: %w", err)
	}

	windows := &detection.Windows{Locations: locations}

	// The speed rule skips without a current speed, so the window is only
	// worth reading when the record carries one.
	if rec.Speed != nil {
		speeds, err := p.windows.Read(ctx, timeseries.SpeedKey(rec.VehicleID))
		if err != nil {
			return nil, fmt.Errorf("window_read: %w", err)
		}
		windows.Speeds = speeds
	}

	return windows, nil
}

// lockVehicle serializes updates for one vehicle id; distinct ids proceed in
// parallel. Lock entries live for the process lifetime, matching the state
// store's no-eviction policy.
func (p *Pipeline) lockVehicle(vehicleID string) func() {
	v, _ := p.vehicleLocks.LoadOrStore(vehicleID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// publishClassified emits the classified record to the event bus for
// downstream consumers. No publisher attached means no-op.
func (p *Pipeline) publishClassified(classified *models.ClassifiedRecord) {
	p.pubMu.RLock()
	pub := p.classifiedPub
	p.pubMu.RUnlock()
	if pub == nil {
		return
	}

	payload, err := json.Marshal(classified)
	if err != nil {
		logging.Error().
			Err(err).
			Str("vehicle_id", classified.VehicleID).
			Msg("classified record marshal failed")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("vehicle_id", classified.VehicleID)

	if err := pub.Publish(TopicVehicleClassified, msg); err != nil {
		logging.Error().
			Err(err).
			Str("vehicle_id", classified.VehicleID).
			Msg("classified record publish failed")
		return
	}
	metrics.RecordBusPublish(TopicVehicleClassified)
}

// BreakerState reports the storage circuit state for readiness checks.
func (p *Pipeline) BreakerState() string {
	return p.breaker.State()
}
