// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import "errors"

var (
	// ErrTransport marks push channel failures. They only ever lead to a reconnect.
	ErrTransport = errors.New("transport failure")

	// ErrValidation marks a page, frame or record with the wrong shape.
	ErrValidation = errors.New("validation failure")

	// ErrFetchFailed marks a failed page fetch. A rebuild that sees it keeps the previous cache.
	ErrFetchFailed = errors.New("fetch failure")

	// ErrMutationFailed marks a failed write against the chat platform or the registration API.
	ErrMutationFailed = errors.New("mutation failure")

	// ErrEndOfPages is returned by Pager.Advance after the last page.
	ErrEndOfPages = errors.New("end of pages")

	// ErrEngineStopped is returned when work is submitted after the manager stopped.
	ErrEngineStopped = errors.New("sync engine stopped")

	// ErrNotCached is returned when an operation needs a record the cache does not hold.
	ErrNotCached = errors.New("registrant not cached")

	// ErrNotOrganizer is returned when demoting a member who does not hold the organizer role.
	ErrNotOrganizer = errors.New("member is not an organizer")

	// ErrRegistrantNotFound is returned when the registration API has no record for a key.
	ErrRegistrantNotFound = errors.New("registrant not found")

	// ErrQueueFull is returned when a non-blocking submission finds the job queue full.
	ErrQueueFull = errors.New("sync job queue full")
)
