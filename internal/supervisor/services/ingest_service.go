// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package services

import (
	"context"
)

// IngestManagerService wraps the feed source group as a supervised
// service. The manager runs its sources in an errgroup and stops the
// whole group when one fails, so the supervisor restarts ingestion as a
// unit and every source reconnects from a clean slate.
type IngestManagerService struct {
	manager Runner
	name    string
}

// NewIngestManagerService creates an ingest manager service wrapper.
func NewIngestManagerService(manager Runner) *IngestManagerService {
	return &IngestManagerService{
		manager: manager,
		name:    "ingest-manager",
	}
}

// Serve implements suture.Service.
func (s *IngestManagerService) Serve(ctx context.Context) error {
	return s.manager.Run(ctx)
}

// String implements fmt.Stringer for supervision events.
func (s *IngestManagerService) String() string {
	return s.name
}
