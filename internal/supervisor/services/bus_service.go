// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package services

import (
	"context"
)

// Runner matches components whose whole lifecycle is a blocking
// Run(ctx): the event bus router and the ingest manager.
type Runner interface {
	Run(ctx context.Context) error
}

// EventBusService wraps the Watermill router that consumes position
// messages. A router crash (handler panic, pub/sub failure) surfaces as
// an error so the messaging layer restarts it; consumers rebuild their
// subscriptions on the restarted router.
type EventBusService struct {
	bus  Runner
	name string
}

// NewEventBusService creates an event bus service wrapper.
func NewEventBusService(bus Runner) *EventBusService {
	return &EventBusService{
		bus:  bus,
		name: "event-bus",
	}
}

// Serve implements suture.Service.
func (s *EventBusService) Serve(ctx context.Context) error {
	return s.bus.Run(ctx)
}

// String implements fmt.Stringer for supervision events.
func (s *EventBusService) String() string {
	return s.name
}
