// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import "time"

// APIResponse is the envelope every admin endpoint returns.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is the error body. Code is machine readable
// (VALIDATION_ERROR, NOT_FOUND, UNAUTHORIZED, SYNC_FAILED, ...).
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SyncStatus is returned by GET /api/v1/sync/status.
type SyncStatus struct {
	ConnectorState   string     `json:"connector_state"`
	ReconnectAttempt int        `json:"reconnect_attempt"`
	CachedRecords    int        `json:"cached_records"`
	Interval         string     `json:"interval"`
	NextRun          *time.Time `json:"next_run,omitempty"`
	LastSync         *time.Time `json:"last_sync,omitempty"`
	LastSyncResult   *SyncStats `json:"last_sync_result,omitempty"`
	TeamRolesEnabled bool       `json:"team_roles_enabled"`
}

// SyncStats summarises one full reconciliation pass.
type SyncStats struct {
	Records  int           `json:"records"`
	Synced   int           `json:"synced"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Staff    int           `json:"staff"`
	Duration time.Duration `json:"duration_ns"`
}

// IntervalRequest is the body of PUT /api/v1/sync/interval.
type IntervalRequest struct {
	Seconds int `json:"seconds" validate:"required,min=10,max=86400"`
}

// TeamRolesRequest is the body of PUT /api/v1/teamroles.
type TeamRolesRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// LogLevelRequest is the body of PUT /api/v1/logging/level.
type LogLevelRequest struct {
	Level string `json:"level" validate:"required,oneof=trace debug info warn error disabled"`
}
