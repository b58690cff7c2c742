// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package sync keeps guild members consistent with the registrant records held by
the registration API.

# Architecture

	registration API ──REST──▶ Pager ──▶ Cache (atomic rebuild)
	        │                                  │
	        └──WebSocket──▶ RegistrantWebSocketClient
	                              │ frames
	                              ▼
	                Manager job queue (one job at a time)
	                              │
	                              ▼
	                 Reconciler ──REST──▶ Guild (chat platform)

Two paths feed the Reconciler:

  - Full resync: on every connector open and every Scheduler tick the Cache is
    rebuilt page by page and every cached record is reconciled. A failed page
    leaves the previous Cache untouched.
  - Incremental: push frames (register, delete, discord_switch, bare record
    updates) mutate the Cache and reconcile only the affected members.

All mutating work is submitted to the Manager and executed sequentially.
Reconciliation is idempotent, so overlapping flows converge instead of
conflicting.

# Error Handling

Failures are classified with the sentinels in errors.go. Transport failures
drive the reconnect backoff, validation failures drop a single frame or page,
fetch failures abort a rebuild and keep the old Cache, and mutation failures are
logged per attribute while the remaining attributes continue. Nothing escapes to
the process.
*/
package sync
