// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package timeseries

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/ghostbus/internal/metrics"
)

// MemoryStore is an in-memory window store. Suitable for single-instance
// deployments and testing. For persistence across restarts, use BadgerStore.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string][]Sample
}

// NewMemoryStore creates a new in-memory window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]Sample),
	}
}

// Push prepends a sample to the window and trims it to maxLen.
func (s *MemoryStore) Push(ctx context.Context, key string, sample Sample, maxLen int) error {
	start := time.Now()

	s.mu.Lock()
	window := s.windows[key]

	// Prepend: newest sample lives at index 0.
	window = append([]Sample{sample}, window...)
	if maxLen > 0 && len(window) > maxLen {
		window = window[:maxLen]
	}
	s.windows[key] = window
	s.mu.Unlock()

	metrics.RecordStorageOperation("window_push", time.Since(start), nil)
	return nil
}

// Read returns a snapshot of the window, newest sample first.
// An absent key reads as an empty window.
func (s *MemoryStore) Read(ctx context.Context, key string) ([]Sample, error) {
	start := time.Now()

	s.mu.RLock()
	window := s.windows[key]

	// Copy so callers never alias the stored buffer.
	out := make([]Sample, len(window))
	copy(out, window)
	s.mu.RUnlock()

	metrics.RecordStorageOperation("window_read", time.Since(start), nil)
	return out, nil
}

// Len reports the current window length for a key.
func (s *MemoryStore) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows[key])
}
