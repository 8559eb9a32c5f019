// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

// Package state holds the latest classified record per vehicle. This is
// the fleet view the REST API and websocket snapshots read from: one
// record per vehicle, replaced wholesale on every classification.
package state

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/ghostbus/internal/models"
)

// ErrNotFound is returned when a vehicle has never been classified.
var ErrNotFound = errors.New("vehicle not found")

// Store is the per-vehicle classification state store.
//
// Upsert stamps the record's LastUpdate with wall-clock time before
// storing, and the stamp is visible to the caller. Get and All return
// copies; mutating a returned record never affects stored state.
type Store interface {
	Upsert(ctx context.Context, record *models.ClassifiedRecord) error
	Get(ctx context.Context, vehicleID string) (*models.ClassifiedRecord, error)
	All(ctx context.Context) ([]*models.ClassifiedRecord, error)
	Count(ctx context.Context) (int, error)
}

// NewStore selects a state store backend. A non-nil db selects the
// BadgerDB-backed store sharing the window store's database; nil selects
// the in-memory store.
func NewStore(db *badger.DB) Store {
	if db != nil {
		return NewBadgerStore(db)
	}
	return NewMemoryStore()
}
