// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package services adapts Rollcall components to suture.Service.

RunnerService wraps anything with a context-aware Serve method (the sync
manager, the scheduler and the push connector) and gives it a stable name
for supervisor logs. HTTPServerService turns http.Server's ListenAndServe
and Shutdown pair into a single Serve call with a bounded drain.
*/
package services
