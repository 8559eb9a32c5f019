// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Key prefix for vehicle state entries. Shares a database with the
// window store, whose loc:/spd: prefixes never collide with vehicle:.
const vehicleKeyPrefix = "vehicle:"

// BadgerStore is a BadgerDB-backed implementation of Store.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a state store on an existing BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Upsert stores the record as the vehicle's current state, stamping
// LastUpdate before serializing.
func (s *BadgerStore) Upsert(ctx context.Context, record *models.ClassifiedRecord) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStorageOperation("state_upsert", time.Since(start), err)
	}()

	record.LastUpdate = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal vehicle state: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(vehicleKeyPrefix+record.VehicleID), data)
	})
	return err
}

// Get returns the vehicle's current state.
func (s *BadgerStore) Get(ctx context.Context, vehicleID string) (record *models.ClassifiedRecord, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordStorageOperation("state_get", time.Since(start), nil)
		} else {
			metrics.RecordStorageOperation("state_get", time.Since(start), err)
		}
	}()

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(vehicleKeyPrefix + vehicleID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get vehicle state: %w", err)
		}

		return item.Value(func(val []byte) error {
			record = &models.ClassifiedRecord{}
			return json.Unmarshal(val, record)
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// All returns every vehicle's current state via a prefix scan.
func (s *BadgerStore) All(ctx context.Context) (records []*models.ClassifiedRecord, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStorageOperation("state_all", time.Since(start), err)
	}()

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(vehicleKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var record models.ClassifiedRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("unmarshal vehicle state: %w", err)
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of vehicles with state.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(vehicleKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}
