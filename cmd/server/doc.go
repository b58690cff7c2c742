// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package main is the Rollcall server.
//
// Rollcall keeps a Discord guild in step with a tournament registration
// API: every registrant gets the registrant role, a nickname matching their
// registered username, and the organizer, player, captain and team roles
// their record calls for. Members who leave the registration are stripped
// back to a blank state.
//
// # Startup
//
//  1. Configuration: defaults, optional config.yaml, environment (koanf v2)
//  2. Logging: zerolog, with an slog adapter for the supervisor
//  3. Registration API client behind a circuit breaker
//  4. Discord REST client with a shared rate limiter
//  5. Cache, reconciler, sync engine and scheduler
//  6. Push-channel connector; each successful open triggers a full sync
//  7. Admin HTTP server (optional)
//  8. Supervisor tree; SIGINT or SIGTERM stops it
//
// # Example
//
//	export REGISTRANT_API_URL=https://example.org/api
//	export REGISTRANT_API_PSK=...
//	export DISCORD_TOKEN=...
//	export GUILD_ID=123456789012345678
//	export REGISTRANT_ROLE_ID=...
//	export ORGANIZER_ROLE_ID=...
//	export ANNOUNCE_CHANNEL_ID=...
//	export ADMIN_TOKEN=$(openssl rand -hex 32)
//	./rollcall
package main
