// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package timeseries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/metrics"
)

// BadgerStore is a BadgerDB-backed window store. Each window is one key
// whose value is the JSON-encoded sample slice, so push+trim happens
// inside a single transaction and is atomic to readers. Entries carry a
// TTL: a vehicle that stops reporting has its windows expire instead of
// lingering forever.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore creates a window store on an existing BadgerDB handle.
// ttl bounds how long an idle window survives; zero disables expiry.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: ttl}
}

// Push prepends a sample to the window and trims it to maxLen.
//
// Pushes to the same window from multiple goroutines conflict under
// Badger's SSI and are retried until they commit.
func (s *BadgerStore) Push(ctx context.Context, key string, sample Sample, maxLen int) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStorageOperation("window_push", time.Since(start), err)
	}()

	for {
		err = s.pushOnce(key, sample, maxLen)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *BadgerStore) pushOnce(key string, sample Sample, maxLen int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		k := []byte(key)

		var window []Sample
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// First sample for this window.
		case err != nil:
			return fmt.Errorf("get window: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &window)
			}); err != nil {
				return fmt.Errorf("unmarshal window: %w", err)
			}
		}

		window = append([]Sample{sample}, window...)
		if maxLen > 0 && len(window) > maxLen {
			window = window[:maxLen]
		}

		data, err := json.Marshal(window)
		if err != nil {
			return fmt.Errorf("marshal window: %w", err)
		}

		entry := badger.NewEntry(k, data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Read returns a snapshot of the window, newest sample first.
// A missing or expired key reads as an empty window.
func (s *BadgerStore) Read(ctx context.Context, key string) (window []Sample, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStorageOperation("window_read", time.Since(start), err)
	}()

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get window: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &window)
		})
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}
