// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package discord is a small Discord REST client covering the guild operations
the sync engine needs.

Endpoints (API v10, relative to discord.api_url):
  - GET    /guilds/{guild}/members/{user}
  - PATCH  /guilds/{guild}/members/{user}                 {"nick": ...}
  - PUT    /guilds/{guild}/members/{user}/roles/{role}
  - DELETE /guilds/{guild}/members/{user}/roles/{role}
  - GET    /guilds/{guild}/roles
  - POST   /guilds/{guild}/roles
  - DELETE /guilds/{guild}/roles/{role}
  - POST   /channels/{channel}/messages

Requests are paced by a token bucket (golang.org/x/time/rate) and retried on
HTTP 429 after the delay the server asks for.
*/
package discord
