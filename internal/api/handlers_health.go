// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/ghostbus/internal/logging"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Health handles GET /api/v1/health. Liveness only: the process is up
// and serving. Orchestrators restart on failure here, so it must not
// depend on storage or downstream services.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.HealthStatus{
			Status:        "healthy",
			Version:       serviceVersion,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness gates traffic:
// storage must answer and the pipeline breaker must not be open. Load
// balancers pull the instance on 503 without restarting it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	count, err := h.vehicles.Count(r.Context())
	breaker := h.pipeline.BreakerState()

	storage := "ok"
	if err != nil {
		storage = "unavailable"
		logging.Ctx(r.Context()).Warn().
			Err(err).
			Msg("Readiness check failed to reach vehicle state store")
	}

	ready := err == nil && breaker != "open"

	status := models.ReadyStatus{
		Ready:    ready,
		Storage:  storage,
		Breaker:  breaker,
		Vehicles: count,
	}

	if !ready {
		respondJSON(w, r, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     status,
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error: &models.APIError{
				Code:    "SERVICE_UNAVAILABLE",
				Message: "not ready",
			},
		})
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
