// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package simulator generates a synthetic fleet for demos and tests.
//
// Buses run circular routes around a city center, each advancing along the
// shared heading by speed x interval every tick. Designated ghost vehicles
// skip most of their updates and barely move, so they trip the stale and
// not-moving rules organically instead of needing injected anomalies.
package simulator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/ingest"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/models"
)

const sourceName = "simulator"

const (
	defaultInterval      = 5 * time.Second
	defaultRoutes        = 3
	defaultBusesPerRoute = 3
	defaultCenterLat     = 12.9716
	defaultCenterLon     = 77.5946

	// routeSpacingMeters separates route centers on a ring around the
	// city center; routeRadiusMeters spreads each route's buses so they
	// start staggered instead of stacked.
	routeSpacingMeters = 600.0
	routeRadiusMeters  = 1100.0
)

// bus is one simulated vehicle. phase is its index within the route and
// offsets its speed so buses on the same route never pace-lock.
type bus struct {
	id      string
	routeID string
	tripID  string
	phase   int
	lat     float64
	lon     float64
}

// Simulator emits synthetic position records into the ingest manager. It
// implements ingest.Source.
type Simulator struct {
	emitter  ingest.Emitter
	interval time.Duration
	buses    []*bus
	ghosts   map[string]struct{}
	step     int
}

// New builds the fleet: cfg.Routes circular routes, cfg.BusesPerRoute
// buses each, ids B{route}{01..}. Zero or negative settings fall back to
// the demo defaults (3x3 around Bengaluru).
func New(emitter ingest.Emitter, cfg config.SimulatorConfig) *Simulator {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	routes := cfg.Routes
	if routes <= 0 {
		routes = defaultRoutes
	}
	perRoute := cfg.BusesPerRoute
	if perRoute <= 0 {
		perRoute = defaultBusesPerRoute
	}
	centerLat := cfg.CenterLat
	centerLon := cfg.CenterLon
	if centerLat == 0 && centerLon == 0 {
		centerLat = defaultCenterLat
		centerLon = defaultCenterLon
	}

	ghosts := make(map[string]struct{}, len(cfg.GhostVehicles))
	for _, id := range cfg.GhostVehicles {
		ghosts[id] = struct{}{}
	}

	s := &Simulator{
		emitter:  emitter,
		interval: interval,
		ghosts:   ghosts,
	}

	for r := 1; r <= routes; r++ {
		routeLat, routeLon := destinationPoint(
			centerLat, centerLon,
			float64(r-1)*360/float64(routes), routeSpacingMeters,
		)
		for i := 0; i < perRoute; i++ {
			lat, lon := destinationPoint(
				routeLat, routeLon,
				float64(i)*360/float64(perRoute), routeRadiusMeters,
			)
			s.buses = append(s.buses, &bus{
				id:      fmt.Sprintf("B%d%02d", r, i+1),
				routeID: fmt.Sprintf("R%d", r),
				tripID:  fmt.Sprintf("T%d-%d", r, i+1),
				phase:   i,
				lat:     lat,
				lon:     lon,
			})
		}
	}

	return s
}

// String returns the source name used in logs and metric labels.
func (s *Simulator) String() string {
	return sourceName
}

// Run emits one tick immediately, then one per interval until ctx is
// canceled.
func (s *Simulator) Run(ctx context.Context) error {
	logging.Info().
		Int("buses", len(s.buses)).
		Int("ghosts", len(s.ghosts)).
		Dur("interval", s.interval).
		Msg("simulator started")

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick advances every bus and publishes its report. Ghost vehicles skip
// eight ticks out of ten and cover a tenth of the distance when they do
// report, mimicking a wedged transponder replaying its position.
func (s *Simulator) tick(ctx context.Context) {
	step := s.step
	s.step++

	heading := math.Mod(45+2*float64(step), 360)

	for _, b := range s.buses {
		_, ghost := s.ghosts[b.id]
		if ghost && step%10 < 8 {
			continue
		}

		speed := 20 + 5*float64(b.phase) + 5*math.Sin(0.1*float64(step))
		distance := speed * s.interval.Seconds()
		if ghost {
			distance *= 0.1
		}

		b.lat, b.lon = destinationPoint(b.lat, b.lon, heading, distance)

		spd := speed
		brg := heading
		record := &models.PositionRecord{
			VehicleID: b.id,
			Lat:       b.lat,
			Lon:       b.lon,
			Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
			RouteID:   b.routeID,
			TripID:    b.tripID,
			Speed:     &spd,
			Bearing:   &brg,
		}

		if err := s.emitter.Publish(ctx, sourceName, record); err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Warn().
				Err(err).
				Str("vehicle_id", b.id).
				Msg("simulator publish failed")
		}
	}
}
