// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import "errors"

// ErrMemberNotFound is returned by the chat platform when the user is not in the guild.
var ErrMemberNotFound = errors.New("guild member not found")

// ErrRoleNotFound is returned when a role id does not exist.
var ErrRoleNotFound = errors.New("guild role not found")

// GuildUser is the account behind a guild member.
type GuildUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
}

// GuildMember is the remote per-user state the engine reconciles. It is
// fetched fresh for every sync and never stored.
type GuildMember struct {
	User  GuildUser `json:"user"`
	Nick  *string   `json:"nick,omitempty"`
	Roles []string  `json:"roles"`
}

// ID returns the member's user id.
func (m *GuildMember) ID() string {
	return m.User.ID
}

// Nickname returns the guild nickname, or "" when none is set.
func (m *GuildMember) Nickname() string {
	if m.Nick == nil {
		return ""
	}
	return *m.Nick
}

// DisplayName is the name other members see: nickname, then global name,
// then username.
func (m *GuildMember) DisplayName() string {
	if n := m.Nickname(); n != "" {
		return n
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// HasRole reports whether the member holds roleID.
func (m *GuildMember) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// GuildRole is a role defined in the guild.
type GuildRole struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	UnicodeEmoji *string `json:"unicode_emoji,omitempty"`
	Position     int     `json:"position,omitempty"`
}

// RoleSpec describes a role to create.
type RoleSpec struct {
	Name         string `json:"name"`
	UnicodeEmoji string `json:"unicode_emoji,omitempty"`
	Mentionable  bool   `json:"mentionable"`
	Hoist        bool   `json:"hoist"`
}
