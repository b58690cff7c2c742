// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"net/http"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

// GetLogLevel returns the current global log level.
func (h *Handler) GetLogLevel(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"level": logging.Level()})
}

// SetLogLevel changes the global log level until the next restart.
func (h *Handler) SetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req models.LogLevelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	previous := logging.Level()
	logging.SetLevelString(req.Level)
	logging.Ctx(r.Context()).Warn().Str("from", previous).Str("to", logging.Level()).Msg("Log level changed")
	respondOK(w, map[string]string{"level": logging.Level()})
}
