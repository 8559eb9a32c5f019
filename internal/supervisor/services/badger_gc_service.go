// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/ghostbus/internal/logging"
)

// ValueLogGC matches *badger.DB's garbage collection entry point.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// BadgerGCService periodically reclaims value-log space. Badger never
// garbage-collects on its own, and the window store's TTL'd samples churn
// constantly, so without this loop the value log grows until the disk
// fills.
type BadgerGCService struct {
	db           ValueLogGC
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewBadgerGCService creates a GC service for the given database.
// Non-positive intervals become 5 minutes. The discard ratio is fixed at
// 0.5: files are rewritten when at least half their space is reclaimable.
func NewBadgerGCService(db ValueLogGC, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &BadgerGCService{
		db:           db,
		interval:     interval,
		discardRatio: 0.5,
		name:         "badger-gc",
	}
}

// Serve implements suture.Service. Each tick runs GC until badger reports
// nothing left to rewrite. GC failures are logged and retried next tick
// rather than crashing the service; a restart would not make them
// succeed.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect()
		}
	}
}

func (s *BadgerGCService) collect() {
	start := time.Now()
	rewrites := 0
	for {
		err := s.db.RunValueLogGC(s.discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			logging.Warn().Err(err).Msg("badger value-log GC failed")
			return
		}
		rewrites++
	}

	if rewrites > 0 {
		logging.Debug().
			Int("rewrites", rewrites).
			Dur("duration", time.Since(start)).
			Msg("badger value-log GC completed")
	}
}

// String implements fmt.Stringer for supervision events.
func (s *BadgerGCService) String() string {
	return s.name
}
