// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package countries

import "testing"

func TestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   string
		want   string
		wantOK bool
	}{
		{"JP", "Japan", true},
		{"jp", "Japan", true},
		{"DE", "Germany", true},
		{"ZZ", "", false},
		{"WYSI", "", false},
		{"", "", false},
		{"1A", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			got, ok := Name(tt.code)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Name(%q) = (%q, %v), want (%q, %v)", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	t.Parallel()

	if got := Flag("JP"); got != "\U0001F1EF\U0001F1F5" {
		t.Errorf("Flag(JP) = %q", got)
	}
	if got := Flag("us"); got != "\U0001F1FA\U0001F1F8" {
		t.Errorf("Flag(us) = %q", got)
	}
	if got := Flag("WYSI"); got != "" {
		t.Errorf("Flag(WYSI) = %q, want empty", got)
	}
	if got := Flag("1!"); got != "" {
		t.Errorf("Flag(1!) = %q, want empty", got)
	}
}

func TestTeamRoleName(t *testing.T) {
	t.Parallel()

	name, ok := TeamRoleName("FR")
	if !ok || name != "Team France" {
		t.Errorf("TeamRoleName(FR) = (%q, %v)", name, ok)
	}
	if !IsTeamRoleName(name) {
		t.Error("expected generated name to be recognised as a team role")
	}
	if IsTeamRoleName("Teammate") {
		t.Error("Teammate should not be a team role")
	}
}
