// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package ingest

import (
	"context"
	"time"

	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

const defaultPollInterval = 5 * time.Second

// Fetcher pulls one batch of normalized records from an upstream feed.
// Implementations own transport and wire-format concerns; the poll source
// only paces them.
type Fetcher interface {
	Fetch(ctx context.Context) ([]*models.PositionRecord, error)
}

// PollSource pulls batches from a Fetcher on a fixed interval. A failed
// fetch is logged and counted, and the next tick tries again; a flaky
// upstream degrades the feed, it does not stop it.
type PollSource struct {
	name     string
	fetcher  Fetcher
	emitter  Emitter
	interval time.Duration
}

// NewPollSource builds a poll source. An interval at or below zero falls
// back to the 5s default.
func NewPollSource(name string, fetcher Fetcher, emitter Emitter, interval time.Duration) *PollSource {
	if name == "" {
		name = "poll"
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &PollSource{
		name:     name,
		fetcher:  fetcher,
		emitter:  emitter,
		interval: interval,
	}
}

// String returns the source name used in logs and metric labels.
func (s *PollSource) String() string {
	return s.name
}

// Run polls once immediately, then on every tick until ctx is canceled.
func (s *PollSource) Run(ctx context.Context) error {
	logging.Info().
		Str("source", s.name).
		Dur("interval", s.interval).
		Msg("poll source started")

	s.poll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *PollSource) poll(ctx context.Context) {
	records, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.RecordIngestError(s.name, "fetch")
		logging.Warn().
			Err(err).
			Str("source", s.name).
			Msg("feed fetch failed")
		return
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := s.emitter.Publish(ctx, s.name, record); err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Warn().
				Err(err).
				Str("source", s.name).
				Str("vehicle_id", record.VehicleID).
				Msg("record publish failed")
		}
	}
}
