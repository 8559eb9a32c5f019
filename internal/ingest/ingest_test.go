// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package ingest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/ghostbus/internal/config"
	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// stubPublisher records bus publishes.
type stubPublisher struct {
	mu      sync.Mutex
	err     error
	records []*models.PositionRecord
}

func (p *stubPublisher) PublishPosition(record *models.PositionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, record)
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// stubSource runs a caller-supplied loop.
type stubSource struct {
	name string
	run  func(ctx context.Context) error
}

func (s *stubSource) String() string { return s.name }

func (s *stubSource) Run(ctx context.Context) error { return s.run(ctx) }

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		Sources:      []string{"simulator"},
		PollInterval: 5 * time.Second,
		RateLimit:    0,
		RateBurst:    0,
	}
}

func positionFor(vehicleID string) *models.PositionRecord {
	return &models.PositionRecord{
		VehicleID: vehicleID,
		Lat:       12.9716,
		Lon:       77.5946,
		Timestamp: float64(time.Now().Unix()),
		RouteID:   "R1",
	}
}

func waitForPublished(t *testing.T, pub *stubPublisher, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pub.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("published count = %d, want at least %d", pub.count(), want)
}

func TestNewManager_UnlimitedByDefault(t *testing.T) {
	m := NewManager(&stubPublisher{}, testIngestConfig())

	if m.limiter.Limit() != rate.Inf {
		t.Errorf("limiter limit = %v, want rate.Inf", m.limiter.Limit())
	}
}

func TestNewManager_BurstFloor(t *testing.T) {
	cfg := testIngestConfig()
	cfg.RateLimit = 10
	cfg.RateBurst = 0
	m := NewManager(&stubPublisher{}, cfg)

	if m.limiter.Burst() != 1 {
		t.Errorf("limiter burst = %d, want 1", m.limiter.Burst())
	}
	if m.limiter.Limit() != rate.Limit(10) {
		t.Errorf("limiter limit = %v, want 10", m.limiter.Limit())
	}
}

func TestManager_Publish(t *testing.T) {
	pub := &stubPublisher{}
	m := NewManager(pub, testIngestConfig())

	record := positionFor("B101")
	if err := m.Publish(context.Background(), "simulator", record); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if pub.count() != 1 {
		t.Fatalf("published count = %d, want 1", pub.count())
	}
	if pub.records[0].VehicleID != "B101" {
		t.Errorf("published VehicleID = %q, want B101", pub.records[0].VehicleID)
	}
}

func TestManager_Publish_PublisherError(t *testing.T) {
	busErr := errors.New("bus closed")
	m := NewManager(&stubPublisher{err: busErr}, testIngestConfig())

	err := m.Publish(context.Background(), "simulator", positionFor("B101"))
	if !errors.Is(err, busErr) {
		t.Errorf("Publish() error = %v, want wrapped bus error", err)
	}
}

func TestManager_Publish_RateLimitHonorsContext(t *testing.T) {
	cfg := testIngestConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	pub := &stubPublisher{}
	m := NewManager(pub, cfg)

	// The single burst token admits the first record.
	if err := m.Publish(context.Background(), "simulator", positionFor("B101")); err != nil {
		t.Fatalf("Publish() #1 error = %v", err)
	}

	// The second would wait ~1000s, far past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := m.Publish(ctx, "simulator", positionFor("B102")); err == nil {
		t.Error("Publish() #2 error = nil, want rate limit error")
	}

	if pub.count() != 1 {
		t.Errorf("published count = %d, want 1", pub.count())
	}
}

func TestManager_Run_NoSources(t *testing.T) {
	m := NewManager(&stubPublisher{}, testIngestConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestManager_Run_RunsAllSources(t *testing.T) {
	pub := &stubPublisher{}
	m := NewManager(pub, testIngestConfig())

	emit := func(vehicleID string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			for i := 0; i < 3; i++ {
				if err := m.Publish(ctx, "test", positionFor(vehicleID)); err != nil {
					return err
				}
			}
			<-ctx.Done()
			return ctx.Err()
		}
	}
	m.AddSource(&stubSource{name: "feed-a", run: emit("B101")})
	m.AddSource(&stubSource{name: "feed-b", run: emit("B201")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitForPublished(t, pub, 6)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestManager_Run_SourceFailureStopsGroup(t *testing.T) {
	m := NewManager(&stubPublisher{}, testIngestConfig())

	feedErr := errors.New("feed gone")
	m.AddSource(&stubSource{
		name: "broken",
		run:  func(ctx context.Context) error { return feedErr },
	})
	m.AddSource(&stubSource{
		name: "healthy",
		run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, feedErr) {
			t.Errorf("Run() error = %v, want wrapped feed error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after source failure")
	}
}

func TestManager_AddSource_IgnoresNil(t *testing.T) {
	m := NewManager(&stubPublisher{}, testIngestConfig())
	m.AddSource(nil)

	if len(m.sources) != 0 {
		t.Errorf("sources = %d, want 0", len(m.sources))
	}
}
