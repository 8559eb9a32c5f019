// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package timeseries

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StoreBackend selects the window storage backend.
type StoreBackend string

const (
	// StoreMemory keeps windows in process memory (default, not persistent).
	StoreMemory StoreBackend = "memory"

	// StoreBadger keeps windows in BadgerDB for persistence across restarts.
	StoreBadger StoreBackend = "badger"
)

// StoreFactory creates window stores based on configuration. When the
// badger backend is selected it owns the database handle, which other
// stores (vehicle state) share via DB().
type StoreFactory struct {
	db  *badger.DB
	ttl time.Duration
}

// NewStoreFactory creates a store factory for the given backend.
// For the badger backend it opens a database at path; for memory the
// path is ignored and no database is opened.
func NewStoreFactory(backend StoreBackend, path string, ttl time.Duration) (*StoreFactory, error) {
	factory := &StoreFactory{ttl: ttl}

	switch backend {
	case StoreMemory, "":
		// Nothing to open.
	case StoreBadger:
		opts := badger.DefaultOptions(path)
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for windows: %w", err)
		}
		factory.db = db
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	return factory, nil
}

// CreateStore creates a window Store for the factory's backend.
func (f *StoreFactory) CreateStore() Store {
	if f.db != nil {
		return NewBadgerStore(f.db, f.ttl)
	}
	return NewMemoryStore()
}

// DB returns the underlying BadgerDB, or nil when using the memory backend.
func (f *StoreFactory) DB() *badger.DB {
	return f.db
}

// Close closes the underlying BadgerDB if one was opened.
func (f *StoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
