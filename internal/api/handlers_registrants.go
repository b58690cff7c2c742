// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

type registrantPath struct {
	DiscordID string `json:"id" validate:"required,snowflake"`
}

// registrantQuery is GET /registrants/{id}?key=&full=.
type registrantQuery struct {
	Search string `json:"id" validate:"required,max=64"`
	Key    string `json:"key" validate:"oneof=discord osu id"`
	Full   string `json:"full" validate:"omitempty,boolean"`
}

// registrantID reads and validates the {id} URL parameter as a Discord id.
func registrantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := registrantPath{DiscordID: chi.URLParam(r, "id")}
	if apiErr := validateRequest(&p); apiErr != nil {
		respondValidation(w, apiErr)
		return "", false
	}
	return p.DiscordID, true
}

// GetRegistrant looks up {id}. key selects discord (default), osu or id;
// full=true returns the registration API's complete record instead of the
// engine's view. Short Discord lookups are served from the cache.
func (h *Handler) GetRegistrant(w http.ResponseWriter, r *http.Request) {
	q := registrantQuery{
		Search: chi.URLParam(r, "id"),
		Key:    r.URL.Query().Get("key"),
		Full:   r.URL.Query().Get("full"),
	}
	if q.Key == "" {
		q.Key = string(models.LookupByDiscord)
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if models.LookupKey(q.Key) == models.LookupByDiscord {
		if _, ok := registrantID(w, r); !ok {
			return
		}
	}
	full, _ := strconv.ParseBool(q.Full)

	found, err := h.inspector.Inspect(r.Context(), q.Search, models.LookupKey(q.Key), full)
	if err != nil {
		status, code := statusForEngineError(err)
		respondError(w, r, status, code, "Registrant lookup failed", err)
		return
	}
	respondOK(w, found)
}

// SyncRegistrant reconciles {id} against its cached record. Step failures
// are reported in the outcome, not as an HTTP error.
func (h *Handler) SyncRegistrant(w http.ResponseWriter, r *http.Request) {
	id, ok := registrantID(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.SyncCached(r.Context(), id)
	if err != nil {
		status, code := statusForEngineError(err)
		respondError(w, r, status, code, "Registrant sync failed", err)
		return
	}
	respondOK(w, outcome)
}

// UnassignOrganizer clears is_organizer for {id} in the registration API and
// then removes the organizer role.
func (h *Handler) UnassignOrganizer(w http.ResponseWriter, r *http.Request) {
	id, ok := registrantID(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.UnassignOrganizer(r.Context(), id)
	if err != nil {
		status, code := statusForEngineError(err)
		respondError(w, r, status, code, "Organizer unassign failed", err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("discord_id", sanitizeLogValue(id)).Msg("Organizer unassigned via admin API")
	respondOK(w, outcome)
}
