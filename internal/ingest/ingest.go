// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package ingest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Source is one feed of normalized position records. Run blocks until ctx
// is canceled; a non-cancellation error stops the whole source group so
// the supervisor restarts ingestion as a unit.
type Source interface {
	fmt.Stringer
	Run(ctx context.Context) error
}

// Publisher places normalized records on the event bus.
type Publisher interface {
	PublishPosition(record *models.PositionRecord) error
}

// Emitter is the sink sources hand records to. The Manager implements it,
// applying the global admission rate limit before the bus publish.
type Emitter interface {
	Publish(ctx context.Context, source string, record *models.PositionRecord) error
}

// Manager runs the configured sources and paces their records onto the
// event bus.
type Manager struct {
	publisher Publisher
	limiter   *rate.Limiter
	sources   []Source
}

// NewManager builds a Manager. A rate limit at or below zero disables
// pacing; a burst below one is raised to one so a configured limit can
// ever admit anything.
func NewManager(publisher Publisher, cfg config.IngestConfig) *Manager {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Manager{
		publisher: publisher,
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// AddSource registers a source. Call before Run; the set is fixed once the
// manager starts.
func (m *Manager) AddSource(source Source) {
	if source == nil {
		return
	}
	m.sources = append(m.sources, source)
}

// Run runs every registered source until ctx is canceled or a source
// fails. Cancellation is a clean stop; any other source error cancels the
// group and is returned.
func (m *Manager) Run(ctx context.Context) error {
	if len(m.sources) == 0 {
		logging.Info().Msg("no ingest sources configured")
		<-ctx.Done()
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, source := range m.sources {
		g.Go(func() error {
			logging.Info().Str("source", source.String()).Msg("ingest source started")
			err := source.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", source, err)
			}
			logging.Info().Str("source", source.String()).Msg("ingest source stopped")
			return nil
		})
	}
	return g.Wait()
}

// Publish admits one record to the bus. Wait blocks under the rate limit,
// smoothing feed bursts instead of dropping them; it returns early when
// ctx is canceled or the wait would outlive its deadline.
func (m *Manager) Publish(ctx context.Context, source string, record *models.PositionRecord) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if err := m.publisher.PublishPosition(record); err != nil {
		metrics.RecordIngestError(source, "publish")
		return fmt.Errorf("publish position: %w", err)
	}
	metrics.RecordIngest(source)
	return nil
}
