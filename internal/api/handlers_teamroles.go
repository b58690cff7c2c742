// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

// ListTeamRoles returns every team-marked guild role.
func (h *Handler) ListTeamRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.engine.TeamRoles(r.Context())
	if err != nil {
		status, code := statusForEngineError(err)
		respondError(w, r, status, code, "Failed to list team roles", err)
		return
	}
	if roles == nil {
		roles = []models.GuildRole{}
	}
	respondOK(w, map[string]interface{}{
		"enabled": h.teamRoles.TeamRolesEnabled(),
		"roles":   roles,
	})
}

// SetTeamRoles turns team-role management on or off. Takes effect from the
// next reconciled record.
func (h *Handler) SetTeamRoles(w http.ResponseWriter, r *http.Request) {
	var req models.TeamRolesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.teamRoles.SetTeamRolesEnabled(*req.Enabled)
	logging.Ctx(r.Context()).Info().Bool("enabled", *req.Enabled).Msg("Team roles toggled")
	respondOK(w, map[string]bool{"enabled": *req.Enabled})
}

// CleanupTeamRoles deletes duplicate team roles, keeping the oldest of each
// name.
func (h *Handler) CleanupTeamRoles(w http.ResponseWriter, r *http.Request) {
	h.respondDeleted(w, r, "cleanup", h.engine.CleanupTeamRoles)
}

// DeleteTeamRoles deletes every team-marked role.
func (h *Handler) DeleteTeamRoles(w http.ResponseWriter, r *http.Request) {
	h.respondDeleted(w, r, "delete_all", h.engine.DeleteAllTeamRoles)
}

func (h *Handler) respondDeleted(w http.ResponseWriter, r *http.Request, op string, run func(ctx context.Context) (int, error)) {
	deleted, err := run(r.Context())
	if err != nil {
		status, code := statusForEngineError(err)
		respondJSON(w, status, &models.APIResponse{
			Status:   "error",
			Data:     map[string]int{"deleted": deleted},
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    &models.APIError{Code: code, Message: "Team role " + op + " incomplete"},
		})
		logging.Ctx(r.Context()).Error().Err(err).Str("op", op).Int("deleted", deleted).Msg("Team role deletion failed")
		return
	}
	logging.Ctx(r.Context()).Info().Str("op", op).Int("deleted", deleted).Msg("Team roles deleted")
	respondOK(w, map[string]int{"deleted": deleted})
}
