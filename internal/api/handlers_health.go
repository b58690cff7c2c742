// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/rollcall/internal/models"
)

// HealthLive answers liveness checks. It never checks dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers readiness checks: ready once the push connector is
// open or the cache holds at least one record.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	connected := h.connectorOpen()
	cached := h.cache.Len()
	ready := connected || cached > 0

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"connector_open": connected,
			"cached_records": cached,
			"ready_to_serve": ready,
			"uptime":         time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
