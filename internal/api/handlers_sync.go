// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

// SyncStatus reports connector, cache and scheduler state.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SyncStatus{
		ConnectorState:   "disabled",
		CachedRecords:    h.cache.Len(),
		Interval:         h.scheduler.Interval().String(),
		TeamRolesEnabled: h.teamRoles.TeamRolesEnabled(),
	}
	if h.connector != nil {
		status.ConnectorState = h.connector.State().String()
		status.ReconnectAttempt = h.connector.Attempts()
	}
	if next := h.scheduler.NextRun(); !next.IsZero() {
		status.NextRun = &next
	}
	if last, stats := h.engine.LastSync(); !last.IsZero() {
		status.LastSync = &last
		status.LastSyncResult = stats
	}
	respondOK(w, status)
}

// ForceSync rebuilds the cache and reconciles every record, waiting for the
// pass to finish.
func (h *Handler) ForceSync(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scheduler.ForceSync(r.Context())
	if err != nil {
		status, code := statusForEngineError(err)
		respondError(w, r, status, code, "Full sync failed", err)
		return
	}
	respondOK(w, stats)
}

// SetSyncInterval changes the full-sync period. The next run moves to
// now + interval.
func (h *Handler) SetSyncInterval(w http.ResponseWriter, r *http.Request) {
	var req models.IntervalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	interval := time.Duration(req.Seconds) * time.Second
	if err := h.scheduler.SetInterval(interval); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	logging.Ctx(r.Context()).Info().Dur("interval", interval).Msg("Sync interval changed")

	// The scheduler resets its ticker asynchronously, so NextRun may still
	// report the old deadline here.
	respondOK(w, map[string]interface{}{
		"interval": interval.String(),
		"next_run": time.Now().Add(interval),
	})
}
