// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package api serves Rollcall's admin HTTP surface.

Routes:

	GET    /api/v1/health/live              liveness
	GET    /api/v1/health/ready             connector open or cache populated
	GET    /metrics                         Prometheus exposition
	GET    /api/v1/sync/status              connector, cache and scheduler state
	POST   /api/v1/sync                     rebuild the cache and sync everyone now
	PUT    /api/v1/sync/interval            {"seconds": n}, n >= 10
	GET    /api/v1/registrants/{id}         record by ?key=discord|osu|id, ?full=true for the API's record
	POST   /api/v1/registrants/{id}/sync    reconcile one cached record
	DELETE /api/v1/registrants/{id}/organizer  clear is_organizer, then remove the role
	GET    /api/v1/teamroles                team-marked guild roles
	PUT    /api/v1/teamroles                {"enabled": bool}
	POST   /api/v1/teamroles/cleanup        delete duplicate team roles
	DELETE /api/v1/teamroles                delete every team role
	GET    /api/v1/logging/level            current log level
	PUT    /api/v1/logging/level            {"level": "debug"}

Everything under /api/v1 except health requires "Authorization: Bearer
<ADMIN_TOKEN>" and is rate limited per client IP with go-chi/httprate.
Responses use the models.APIResponse envelope.
*/
package api
