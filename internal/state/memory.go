// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package state

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for single-instance deployments and testing. For persistence
// across restarts, use BadgerStore.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]*models.ClassifiedRecord
}

// NewMemoryStore creates a new in-memory state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[string]*models.ClassifiedRecord),
	}
}

// Upsert stores the record as the vehicle's current state, stamping
// LastUpdate. The stamp mutates the caller's record so downstream
// consumers (broadcast, bus) see the same value readers will.
func (s *MemoryStore) Upsert(ctx context.Context, record *models.ClassifiedRecord) error {
	start := time.Now()

	record.LastUpdate = time.Now().UTC()

	s.mu.Lock()
	s.vehicles[record.VehicleID] = record.Clone()
	s.mu.Unlock()

	metrics.RecordStorageOperation("state_upsert", time.Since(start), nil)
	return nil
}

// Get returns a copy of the vehicle's current state.
func (s *MemoryStore) Get(ctx context.Context, vehicleID string) (*models.ClassifiedRecord, error) {
	start := time.Now()

	s.mu.RLock()
	record, ok := s.vehicles[vehicleID]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordStorageOperation("state_get", time.Since(start), nil)
		return nil, ErrNotFound
	}

	metrics.RecordStorageOperation("state_get", time.Since(start), nil)
	return record.Clone(), nil
}

// All returns a copy of every vehicle's current state.
func (s *MemoryStore) All(ctx context.Context) ([]*models.ClassifiedRecord, error) {
	start := time.Now()

	s.mu.RLock()
	records := make([]*models.ClassifiedRecord, 0, len(s.vehicles))
	for _, record := range s.vehicles {
		records = append(records, record.Clone())
	}
	s.mu.RUnlock()

	metrics.RecordStorageOperation("state_all", time.Since(start), nil)
	return records, nil
}

// Count returns the number of vehicles with state.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles), nil
}
