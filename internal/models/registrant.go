// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

// NoTeam is the team id the registration API uses for "not on a team".
const NoTeam = "WYSI"

// Registrant is the engine's view of one registrant record. DiscordID is the
// identity; every other field is replaced wholesale on update.
type Registrant struct {
	DiscordID   string `json:"discord_user_id"`
	OsuUsername string `json:"osu_username"`
	IsOrganizer bool   `json:"is_organizer"`
	InRoster    bool   `json:"in_roster"`
	IsCaptain   bool   `json:"is_captain"`
	TeamID      string `json:"team_id"`
	OsuFlag     string `json:"osu_flag"`
}

// BlankRegistrant returns the placeholder used to strip a member back to the
// unregistered state: empty name, no flags, no team.
func BlankRegistrant(discordID string) Registrant {
	return Registrant{
		DiscordID: discordID,
		TeamID:    NoTeam,
		OsuFlag:   NoTeam,
	}
}

// HasTeam reports whether the registrant belongs to a team.
func (r Registrant) HasTeam() bool {
	return r.TeamID != "" && r.TeamID != NoTeam
}

// WithDiscordID returns a copy of r re-keyed to id.
func (r Registrant) WithDiscordID(id string) Registrant {
	r.DiscordID = id
	return r
}

// RegistrantPayload is the wire form of a registrant. discord_user_id,
// osu_username and is_organizer are mandatory everywhere; the remaining
// fields are optional and default to "no roster, no team".
type RegistrantPayload struct {
	DiscordID   *string `json:"discord_user_id" validate:"required,snowflake"`
	OsuUsername *string `json:"osu_username" validate:"required"`
	IsOrganizer *bool   `json:"is_organizer" validate:"required"`
	InRoster    *bool   `json:"in_roster,omitempty"`
	IsCaptain   *bool   `json:"is_captain,omitempty"`
	TeamID      *string `json:"team_id,omitempty"`
	OsuFlag     *string `json:"osu_flag,omitempty"`
}

// RegisterPayload is a register push event. The country flag is mandatory
// because it is used in the announcement.
type RegisterPayload struct {
	RegistrantPayload
	OsuFlag *string `json:"osu_flag" validate:"required"`
}

// Registrant converts a validated payload. Call only after validation.
func (p *RegistrantPayload) Registrant() Registrant {
	r := Registrant{
		DiscordID:   deref(p.DiscordID),
		OsuUsername: deref(p.OsuUsername),
		TeamID:      NoTeam,
	}
	if p.IsOrganizer != nil {
		r.IsOrganizer = *p.IsOrganizer
	}
	if p.InRoster != nil {
		r.InRoster = *p.InRoster
	}
	if p.IsCaptain != nil {
		r.IsCaptain = *p.IsCaptain
	}
	if p.TeamID != nil && *p.TeamID != "" {
		r.TeamID = *p.TeamID
	}
	if p.OsuFlag != nil {
		r.OsuFlag = *p.OsuFlag
	}
	return r
}

// Registrant converts a validated register payload.
func (p *RegisterPayload) Registrant() Registrant {
	r := p.RegistrantPayload.Registrant()
	r.OsuFlag = deref(p.OsuFlag)
	return r
}

// LookupKey selects which identifier a single-record lookup searches by.
type LookupKey string

const (
	LookupByDiscord LookupKey = "discord"
	LookupByOsu     LookupKey = "osu"
	LookupByID      LookupKey = "id"
)

// RegistrantPage is one page of GET /registrants/.
type RegistrantPage struct {
	Count    int                 `json:"count" validate:"gte=0"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
	Results  []RegistrantPayload `json:"results" validate:"dive"`
}

// HasMore reports whether a following page exists.
func (p *RegistrantPage) HasMore() bool {
	return p.Next != nil && *p.Next != ""
}

// Registrants converts the page results.
func (p *RegistrantPage) Registrants() []Registrant {
	out := make([]Registrant, 0, len(p.Results))
	for i := range p.Results {
		out = append(out, p.Results[i].Registrant())
	}
	return out
}

// DiscordSwitchPayload moves a registrant from one chat account to another.
type DiscordSwitchPayload struct {
	OldDiscordID *string `json:"old_discord_user_id" validate:"required,snowflake"`
	NewDiscordID *string `json:"new_discord_user_id" validate:"required,snowflake"`
}

// DeletePayload removes a registrant.
type DeletePayload struct {
	DiscordID *string `json:"discord_user_id" validate:"required,snowflake"`
}

// OrganizerUpdate is the PATCH body healing is_organizer.
type OrganizerUpdate struct {
	IsOrganizer bool `json:"is_organizer"`
}

// StaffUpdate is the PATCH body marking a registrant as staff.
type StaffUpdate struct {
	IsStaff bool `json:"is_staff"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
