// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package models defines the data shapes shared across Rollcall:
//
//   - Registrant records as served by the registration API (pages and push events)
//   - Guild members and roles as seen through the chat platform
//   - The JSON envelope returned by the admin API
//
// Wire types that need required-field detection use pointer fields so a
// missing key can be told apart from a zero value. They are validated with
// go-playground/validator tags and converted into the plain value types the
// rest of the engine works with.
package models
