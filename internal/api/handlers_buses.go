// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ghostbus/internal/models"
	"github.com/tomtom215/ghostbus/internal/pipeline"
	"github.com/tomtom215/ghostbus/internal/state"
)

// maxUpdateBodyBytes caps the /buses/update request body. A position
// record is a few hundred bytes; anything near this limit is garbage.
const maxUpdateBodyBytes = 1 << 20

// Buses handles GET /api/v1/buses. Query parameters: route_id filters to
// one route, include_ghost=false drops ghost vehicles (default true).
func (h *Handler) Buses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	records, err := h.vehicles.All(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read fleet state", err)
		return
	}

	routeID := r.URL.Query().Get("route_id")
	includeGhosts := getBoolParam(r, "include_ghost", true)

	out := make([]*models.ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		if routeID != "" && rec.RouteID != routeID {
			continue
		}
		if !includeGhosts && rec.Status == models.StatusGhost {
			continue
		}
		out = append(out, rec)
	}
	sortByVehicleID(out)

	respondSuccess(w, r, out, start)
}

// BusesActive handles GET /api/v1/buses/active.
func (h *Handler) BusesActive(w http.ResponseWriter, r *http.Request) {
	h.busesByStatus(w, r, models.StatusActive)
}

// BusesGhosts handles GET /api/v1/buses/ghosts.
func (h *Handler) BusesGhosts(w http.ResponseWriter, r *http.Request) {
	h.busesByStatus(w, r, models.StatusGhost)
}

func (h *Handler) busesByStatus(w http.ResponseWriter, r *http.Request, status models.Status) {
	start := time.Now()

	records, err := h.vehicles.All(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read fleet state", err)
		return
	}

	out := make([]*models.ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sortByVehicleID(out)

	respondSuccess(w, r, out, start)
}

// BusByID handles GET /api/v1/buses/{id}.
func (h *Handler) BusByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vehicleID := chi.URLParam(r, "id")

	record, err := h.vehicles.Get(r.Context(), vehicleID)
	switch {
	case errors.Is(err, state.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("vehicle %s has never reported", vehicleID), nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read vehicle state", err)
		return
	}

	respondSuccess(w, r, record, start)
}

// BusUpdate handles POST /api/v1/buses/update: one position record in,
// classified synchronously through the same pipeline the bus consumer
// runs, classified record out. HTTP feeders use this when they want the
// verdict in the response instead of fire-and-forget publishing.
func (h *Handler) BusUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBodyBytes)

	var record models.PositionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request body is not valid position JSON", err)
		return
	}

	if apiErr := validateRequest(&record); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	classified, err := h.pipeline.Process(r.Context(), &record)
	if err != nil {
		h.respondProcessError(w, r, err)
		return
	}

	respondSuccess(w, r, classified, start)
}

// respondProcessError maps pipeline failures onto status codes: malformed
// input is the caller's fault, an open breaker is a temporary outage, and
// anything else is a storage fault.
func (h *Handler) respondProcessError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error: &models.APIError{
				Code:    "VALIDATION_ERROR",
				Message: verr.Message,
				Details: map[string]interface{}{"field": verr.Field},
			},
		})
	case errors.Is(err, pipeline.ErrStorageUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			"storage is unavailable, record not accepted", err)
	default:
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR",
			"failed to process position record", err)
	}
}
