// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package pipeline

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/metrics"
)

// ErrStorageUnavailable is returned when the storage circuit is open and
// record processing is being shed. Callers map it to a 503.
var ErrStorageUnavailable = errors.New("storage unavailable")

const breakerName = "storage"

// storageBreaker guards the storage backend shared by the window and state
// stores. Five consecutive failures open the circuit; after the timeout a
// few probe requests are let through before it closes again.
type storageBreaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func newStorageBreaker() *storageBreaker {
	metrics.SetBreakerState(breakerName, 0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logging.Warn().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("storage circuit state change")
			metrics.SetBreakerState(name, breakerStateFloat(to))
			metrics.RecordBreakerTransition(name, fromStr, toStr)
		},
	})

	return &storageBreaker{cb: cb}
}

// execute runs a storage mutation through the breaker. Open-circuit and
// half-open-overflow rejections surface as ErrStorageUnavailable so callers
// can distinguish shedding from a plain backend failure.
func (b *storageBreaker) execute(op string, fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerRequest(breakerName, "rejected")
			return fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
		}
		metrics.RecordBreakerRequest(breakerName, "failure")
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordBreakerRequest(breakerName, "success")
	return nil
}

// State reports the current circuit state for health endpoints.
func (b *storageBreaker) State() string {
	return breakerStateString(b.cb.State())
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
