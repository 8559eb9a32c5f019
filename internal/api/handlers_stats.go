// Ghostbus - Real-Time Ghost Vehicle Detection for Transit Fleets
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghostbus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/ghostbus/internal/metrics"
	"github.com/tomtom215/ghostbus/internal/models"
)

// Stats handles GET /api/v1/stats with a fleet-wide summary. The gauges
// feeding Grafana refresh here too, so dashboards stay current even when
// the broadcast loop is quiet.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	records, err := h.vehicles.All(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "failed to read fleet state", err)
		return
	}

	ghosts := 0
	for _, rec := range records {
		if rec.Status == models.StatusGhost {
			ghosts++
		}
	}

	summary := models.NewStatsSummary(len(records), ghosts)
	metrics.UpdateFleetGauges(summary.Total, summary.Ghost)

	respondSuccess(w, r, summary, start)
}
