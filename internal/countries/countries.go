// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package countries turns ISO 3166-1 alpha-2 codes (as used for osu! flags
// and team ids) into display names and flag emoji.
package countries

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// TeamRolePrefix starts the name of every team role.
const TeamRolePrefix = "Team "

// Name returns the English name for code, e.g. "JP" -> "Japan".
func Name(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", false
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return "", false
	}
	name := display.English.Regions().Name(region)
	if name == "" {
		return "", false
	}
	return name, true
}

// Flag returns the regional-indicator flag emoji for a two letter code, or ""
// when code is not two ASCII letters.
func Flag(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < 2; i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(rune(0x1F1E6 + int(c-'A')))
	}
	return b.String()
}

// TeamRoleName returns the guild role name for a team code, e.g. "Team Japan".
func TeamRoleName(code string) (string, bool) {
	name, ok := Name(code)
	if !ok {
		return "", false
	}
	return TeamRolePrefix + name, true
}

// IsTeamRoleName reports whether a guild role name marks a team role.
func IsTeamRoleName(name string) bool {
	return strings.HasPrefix(name, TeamRolePrefix)
}
