// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestDecodePushMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		frame      string
		wantAction ActionKind
		wantErr    bool
	}{
		{
			name:       "register",
			frame:      `{"message":"{\"action\":\"register\",\"discord_user_id\":\"1\"}"}`,
			wantAction: ActionRegister,
		},
		{
			name:       "delete",
			frame:      `{"message":"{\"action\":\"delete\",\"discord_user_id\":\"1\"}"}`,
			wantAction: ActionDelete,
		},
		{
			name:       "discord switch",
			frame:      `{"message":"{\"action\":\"discord_switch\"}"}`,
			wantAction: ActionDiscordSwitch,
		},
		{
			name:       "no action is an update",
			frame:      `{"message":"{\"discord_user_id\":\"1\"}"}`,
			wantAction: ActionUpdate,
		},
		{name: "unknown action", frame: `{"message":"{\"action\":\"explode\"}"}`, wantErr: true},
		{name: "not json", frame: `hello`, wantErr: true},
		{name: "missing message", frame: `{}`, wantErr: true},
		{name: "inner not json", frame: `{"message":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg, err := DecodePushMessage([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", msg.Action, tt.wantAction)
			}
		})
	}
}

func TestRegistrantPayload_Defaults(t *testing.T) {
	t.Parallel()

	var p RegistrantPayload
	if err := json.Unmarshal([]byte(`{"discord_user_id":"7","osu_username":"cookiezi","is_organizer":true}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r := p.Registrant()
	if r.DiscordID != "7" || r.OsuUsername != "cookiezi" || !r.IsOrganizer {
		t.Errorf("unexpected registrant: %+v", r)
	}
	if r.TeamID != NoTeam {
		t.Errorf("expected team %q when absent, got %q", NoTeam, r.TeamID)
	}
	if r.HasTeam() {
		t.Error("expected no team")
	}
}

func TestRegisterPayload_UsesFlag(t *testing.T) {
	t.Parallel()

	var p RegisterPayload
	body := `{"discord_user_id":"7","osu_username":"a","is_organizer":false,"osu_flag":"JP","team_id":"t1","in_roster":true}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r := p.Registrant()
	if r.OsuFlag != "JP" {
		t.Errorf("flag = %q, want JP", r.OsuFlag)
	}
	if !r.HasTeam() || !r.InRoster {
		t.Errorf("expected team membership, got %+v", r)
	}
}

func TestBlankRegistrant(t *testing.T) {
	t.Parallel()

	b := BlankRegistrant("99")
	if b.DiscordID != "99" || b.OsuUsername != "" || b.IsOrganizer || b.InRoster || b.IsCaptain {
		t.Errorf("blank registrant carries data: %+v", b)
	}
	if b.TeamID != NoTeam || b.OsuFlag != NoTeam {
		t.Errorf("blank registrant should use sentinel team and flag: %+v", b)
	}
}

func TestRegistrantPage_HasMore(t *testing.T) {
	t.Parallel()

	next := "https://example.test/registrants/?page=2"
	empty := ""
	if !(&RegistrantPage{Next: &next}).HasMore() {
		t.Error("expected more pages")
	}
	if (&RegistrantPage{}).HasMore() {
		t.Error("nil next should end paging")
	}
	if (&RegistrantPage{Next: &empty}).HasMore() {
		t.Error("empty next should end paging")
	}
}

func TestGuildMember_DisplayName(t *testing.T) {
	t.Parallel()

	nick := "nick"
	m := GuildMember{User: GuildUser{ID: "1", Username: "user", GlobalName: "Global"}, Roles: []string{"r1"}}
	if got := m.DisplayName(); got != "Global" {
		t.Errorf("DisplayName = %q, want Global", got)
	}
	m.Nick = &nick
	if got := m.DisplayName(); got != "nick" {
		t.Errorf("DisplayName = %q, want nick", got)
	}
	if !m.HasRole("r1") || m.HasRole("r2") || m.HasRole("") {
		t.Error("HasRole mismatch")
	}
}
