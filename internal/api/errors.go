// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/rollcall/internal/models"
	syncpkg "github.com/tomtom215/rollcall/internal/sync"
)

// Error codes carried in models.APIError.Code.
const (
	codeValidation   = "VALIDATION_ERROR"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeUnavailable  = "SERVICE_UNAVAILABLE"
	codeTimeout      = "TIMEOUT"
	codeSyncFailed   = "SYNC_FAILED"
	codeInternal     = "INTERNAL_ERROR"
)

// statusForEngineError maps engine errors onto an HTTP status and error code.
func statusForEngineError(err error) (int, string) {
	switch {
	case syncpkg.IsNotCached(err), errors.Is(err, syncpkg.ErrRegistrantNotFound), errors.Is(err, models.ErrMemberNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, syncpkg.ErrNotOrganizer):
		return http.StatusConflict, codeConflict
	case errors.Is(err, syncpkg.ErrEngineStopped), errors.Is(err, syncpkg.ErrQueueFull):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.Is(err, syncpkg.ErrFetchFailed), errors.Is(err, syncpkg.ErrTransport),
		errors.Is(err, syncpkg.ErrMutationFailed), errors.Is(err, syncpkg.ErrValidation):
		return http.StatusBadGateway, codeSyncFailed
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
