// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tomtom215/rollcall/internal/countries"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

// Guild is the chat platform as the reconciler sees it. FetchMember returns
// models.ErrMemberNotFound for users that are not in the guild.
type Guild interface {
	FetchMember(ctx context.Context, userID string) (*models.GuildMember, error)
	SetNickname(ctx context.Context, userID, nickname string) error
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	FetchRole(ctx context.Context, roleID string) (*models.GuildRole, error)
	ListRoles(ctx context.Context) ([]models.GuildRole, error)
	CreateRole(ctx context.Context, spec models.RoleSpec) (*models.GuildRole, error)
	DeleteRole(ctx context.Context, roleID string) error
	SendMessage(ctx context.Context, channelID, content string) error
	IsStaff(member *models.GuildMember) bool
}

// RegistrantWriter writes flags back to the registration API.
type RegistrantWriter interface {
	UpdateOrganizer(ctx context.Context, discordID string, isOrganizer bool) error
	UpdateStaff(ctx context.Context, discordID string, isStaff bool) error
}

// RoleIDs are the guild roles the reconciler manages.
type RoleIDs struct {
	Registrant string
	Organizer  string
	Player     string
	Captain    string
}

func (ids RoleIDs) set() map[string]struct{} {
	set := make(map[string]struct{}, 4)
	for _, id := range []string{ids.Registrant, ids.Organizer, ids.Player, ids.Captain} {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	Roles             RoleIDs
	TeamRolesEnabled  bool
	AnnounceEnabled   bool
	AnnounceChannelID string
}

// Attribute names used in logs and metrics.
const (
	attrNickname   = "nickname"
	attrRegistrant = "registrant_role"
	attrOrganizer  = "organizer_role"
	attrPlayer     = "player_role"
	attrCaptain    = "captain_role"
	attrTeam       = "team_role"
	attrStaff      = "staff_flag"
)

// OutcomeStatus summarises what SyncOne did with a record.
type OutcomeStatus string

const (
	OutcomeSynced  OutcomeStatus = "synced"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeStaff   OutcomeStatus = "staff"
)

// Outcome reports the result of one SyncOne call.
type Outcome struct {
	DiscordID string        `json:"discord_user_id"`
	Status    OutcomeStatus `json:"status"`
	Mutations []string      `json:"mutations,omitempty"`
	Failures  []string      `json:"failures,omitempty"`
}

// Failed reports whether any step failed or the member could not be resolved.
func (o *Outcome) Failed() bool {
	return o.Status == OutcomeSkipped || len(o.Failures) > 0
}

func (o *Outcome) mutated(attribute, op string) {
	o.Mutations = append(o.Mutations, attribute+":"+op)
	metrics.RecordMutation(attribute, op)
}

func (o *Outcome) failed(ctx context.Context, attribute string, err error) {
	o.Failures = append(o.Failures, attribute)
	metrics.RecordReconcileFailure(attribute)
	logging.Ctx(ctx).Warn().
		Err(err).
		Str("discord_id", o.DiscordID).
		Str("attribute", attribute).
		Msg("Reconciliation step failed")
}

// Reconciler converts registrant records into idempotent guild mutations.
type Reconciler struct {
	guild            Guild
	writer           RegistrantWriter
	cache            *Cache
	roles            RoleIDs
	managedRoles     map[string]struct{}
	announceEnabled  bool
	announceChannel  string
	teamRolesEnabled atomic.Bool
	teamRoles        *teamRoleIndex
}

// NewReconciler creates a Reconciler over cache.
func NewReconciler(guild Guild, writer RegistrantWriter, cache *Cache, cfg ReconcilerConfig) *Reconciler {
	r := &Reconciler{
		guild:           guild,
		writer:          writer,
		cache:           cache,
		roles:           cfg.Roles,
		managedRoles:    cfg.Roles.set(),
		announceEnabled: cfg.AnnounceEnabled,
		announceChannel: cfg.AnnounceChannelID,
		teamRoles:       newTeamRoleIndex(),
	}
	r.teamRolesEnabled.Store(cfg.TeamRolesEnabled)
	return r
}

// SetTeamRolesEnabled toggles team, player and captain role sync.
func (r *Reconciler) SetTeamRolesEnabled(enabled bool) {
	r.teamRolesEnabled.Store(enabled)
}

// TeamRolesEnabled reports the current toggle.
func (r *Reconciler) TeamRolesEnabled() bool {
	return r.teamRolesEnabled.Load()
}

// VerifyRoles checks that every configured role exists and logs the ones
// that do not. Syncing continues either way; steps for a missing role fail
// individually.
func (r *Reconciler) VerifyRoles(ctx context.Context) []string {
	named := map[string]string{
		attrRegistrant: r.roles.Registrant,
		attrOrganizer:  r.roles.Organizer,
		attrPlayer:     r.roles.Player,
		attrCaptain:    r.roles.Captain,
	}
	var missing []string
	for attribute, id := range named {
		if id == "" {
			continue
		}
		if _, err := r.guild.FetchRole(ctx, id); err != nil {
			missing = append(missing, attribute)
			logging.Ctx(ctx).Warn().Err(err).Str("attribute", attribute).Str("role_id", id).Msg("Configured role could not be fetched")
		}
	}
	return missing
}

// SyncOne makes the member behind registrant match it. With remove set the
// member is stripped back to the unregistered state instead. Failures are
// logged per attribute and never abort the remaining steps.
//
// Guild mutations are idempotent. The organizer write-back is not: it
// updates the cached copy, and repeats for as long as the caller keeps
// passing a record with is_organizer unset.
func (r *Reconciler) SyncOne(ctx context.Context, registrant models.Registrant, remove bool) Outcome {
	out := Outcome{DiscordID: registrant.DiscordID, Status: OutcomeSynced}
	log := logging.Ctx(ctx)

	member, err := r.guild.FetchMember(ctx, registrant.DiscordID)
	if err != nil {
		out.Status = OutcomeSkipped
		if errors.Is(err, models.ErrMemberNotFound) {
			metrics.ReconcileSkipped.WithLabelValues("member_not_found").Inc()
			log.Debug().Str("discord_id", registrant.DiscordID).Msg("Registrant is not a guild member, skipping")
		} else {
			metrics.ReconcileSkipped.WithLabelValues("member_lookup_failed").Inc()
			log.Warn().Err(err).Str("discord_id", registrant.DiscordID).Msg("Failed to fetch guild member, skipping")
		}
		return out
	}

	targetName := registrant.OsuUsername
	if r.guild.IsStaff(member) {
		out.Status = OutcomeStaff
		r.markStaff(ctx, &out)
		remove = true
		targetName = ""
	}

	// Every step below swallows its own failure into out.
	r.syncNickname(ctx, member, targetName, &out)
	r.syncRegistrantRole(ctx, member, remove, &out)
	r.syncOrganizerRole(ctx, member, registrant, remove, &out)
	if r.TeamRolesEnabled() {
		r.syncPlayerRole(ctx, member, registrant, remove, &out)
		r.syncCaptainRole(ctx, member, registrant, remove, &out)
		r.syncTeamRole(ctx, member, registrant, remove, &out)
	}

	if len(out.Mutations) > 0 || len(out.Failures) > 0 {
		log.Info().
			Str("discord_id", registrant.DiscordID).
			Bool("remove", remove).
			Strs("mutations", out.Mutations).
			Strs("failures", out.Failures).
			Msg("Registrant reconciled")
	}
	return out
}

// SyncAll reconciles every cached record. A failing record never stops the
// pass; only cancellation does.
func (r *Reconciler) SyncAll(ctx context.Context) models.SyncStats {
	start := time.Now()
	records := r.cache.Snapshot()
	stats := models.SyncStats{Records: len(records)}

	// Team roles may have been edited by hand since the last pass.
	r.teamRoles.invalidate()

	for _, rec := range records {
		if ctx.Err() != nil {
			logging.Ctx(ctx).Warn().Int("remaining", stats.Records-stats.Synced-stats.Skipped-stats.Failed-stats.Staff).Msg("Full sync interrupted")
			break
		}
		out := r.SyncOne(ctx, rec, false)
		switch {
		case out.Status == OutcomeSkipped:
			stats.Skipped++
		case out.Status == OutcomeStaff:
			stats.Staff++
		case len(out.Failures) > 0:
			stats.Failed++
		default:
			stats.Synced++
		}
	}

	stats.Duration = time.Since(start)
	metrics.RecordSyncPass(stats.Duration, time.Now())
	logging.Ctx(ctx).Info().
		Int("records", stats.Records).
		Int("synced", stats.Synced).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Int("staff", stats.Staff).
		Dur("duration", stats.Duration).
		Msg("Full sync complete")
	return stats
}

// Announce posts the registration announcement for registrant.
func (r *Reconciler) Announce(ctx context.Context, registrant models.Registrant) error {
	if !r.announceEnabled || r.announceChannel == "" {
		return nil
	}
	if err := r.guild.SendMessage(ctx, r.announceChannel, AnnouncementText(registrant)); err != nil {
		return fmt.Errorf("%w: announce registrant %s: %w", ErrMutationFailed, registrant.DiscordID, err)
	}
	return nil
}

// AnnouncementText renders "<flag> **name** has registered!".
func AnnouncementText(registrant models.Registrant) string {
	text := fmt.Sprintf("**%s** has registered!", escapeMarkdown(registrant.OsuUsername))
	if flag := countries.Flag(registrant.OsuFlag); flag != "" {
		text = flag + " " + text
	}
	return text
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `~`, `\~`, `|`, `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// markStaff writes is_staff back and drops the record from the cache, so
// staff members stop being treated as registrants.
func (r *Reconciler) markStaff(ctx context.Context, out *Outcome) {
	if err := r.writer.UpdateStaff(ctx, out.DiscordID, true); err != nil {
		out.failed(ctx, attrStaff, fmt.Errorf("%w: %w", ErrMutationFailed, err))
	} else {
		out.mutated(attrStaff, "heal")
	}
	r.cache.Delete(out.DiscordID)
	logging.Ctx(ctx).Info().Str("discord_id", out.DiscordID).Msg("Staff member filtered")
}

func (r *Reconciler) syncNickname(ctx context.Context, member *models.GuildMember, target string, out *Outcome) {
	if target == "" {
		// Clearing: done once no nickname is set.
		if member.Nickname() == "" {
			return
		}
	} else if member.DisplayName() == target {
		return
	}

	if err := r.guild.SetNickname(ctx, member.ID(), target); err != nil {
		out.failed(ctx, attrNickname, err)
		return
	}
	out.mutated(attrNickname, "set")
}

// setRole adds or removes roleID so that membership equals want.
func (r *Reconciler) setRole(ctx context.Context, member *models.GuildMember, attribute, roleID string, want bool, out *Outcome) {
	if roleID == "" {
		return
	}
	has := member.HasRole(roleID)
	switch {
	case want && !has:
		if err := r.guild.AddRole(ctx, member.ID(), roleID); err != nil {
			out.failed(ctx, attribute, err)
			return
		}
		out.mutated(attribute, "add")
	case !want && has:
		if err := r.guild.RemoveRole(ctx, member.ID(), roleID); err != nil {
			out.failed(ctx, attribute, err)
			return
		}
		out.mutated(attribute, "remove")
	}
}

func (r *Reconciler) syncRegistrantRole(ctx context.Context, member *models.GuildMember, remove bool, out *Outcome) {
	r.setRole(ctx, member, attrRegistrant, r.roles.Registrant, !remove, out)
}

// syncOrganizerRole trusts the guild over the registration API for the
// organizer flag: a member holding the role is written back as organizer
// instead of losing the role. The role is only taken away on remove.
func (r *Reconciler) syncOrganizerRole(ctx context.Context, member *models.GuildMember, registrant models.Registrant, remove bool, out *Outcome) {
	roleID := r.roles.Organizer
	if roleID == "" {
		return
	}
	has := member.HasRole(roleID)

	if has && !registrant.IsOrganizer && !remove {
		if err := r.writer.UpdateOrganizer(ctx, registrant.DiscordID, true); err != nil {
			out.failed(ctx, attrOrganizer, fmt.Errorf("%w: %w", ErrMutationFailed, err))
			return
		}
		out.mutated(attrOrganizer, "heal")
		if cached, ok := r.cache.Get(registrant.DiscordID); ok {
			cached.IsOrganizer = true
			r.cache.Set(cached)
		}
		return
	}

	switch {
	case registrant.IsOrganizer && !remove:
		r.setRole(ctx, member, attrOrganizer, roleID, true, out)
	case remove:
		r.setRole(ctx, member, attrOrganizer, roleID, false, out)
	}
}

// UnassignOrganizer demotes an organizer: is_organizer=false is written to
// the registration API first, then the role is taken away. Without the
// write the next pass would heal the flag straight back.
func (r *Reconciler) UnassignOrganizer(ctx context.Context, discordID string) (Outcome, error) {
	out := Outcome{DiscordID: discordID, Status: OutcomeSynced}
	member, err := r.guild.FetchMember(ctx, discordID)
	if err != nil {
		return out, fmt.Errorf("fetch member %s: %w", discordID, err)
	}
	if r.roles.Organizer == "" || !member.HasRole(r.roles.Organizer) {
		return out, fmt.Errorf("%w: %s", ErrNotOrganizer, discordID)
	}

	if err := r.writer.UpdateOrganizer(ctx, discordID, false); err != nil {
		out.failed(ctx, attrOrganizer, err)
		return out, fmt.Errorf("%w: clear is_organizer for %s: %w", ErrMutationFailed, discordID, err)
	}
	if cached, ok := r.cache.Get(discordID); ok {
		cached.IsOrganizer = false
		r.cache.Set(cached)
	}

	r.setRole(ctx, member, attrOrganizer, r.roles.Organizer, false, &out)
	if len(out.Failures) > 0 {
		return out, fmt.Errorf("%w: remove organizer role from %s", ErrMutationFailed, discordID)
	}
	logging.Ctx(ctx).Info().Str("discord_id", discordID).Msg("Organizer unassigned")
	return out, nil
}

func (r *Reconciler) syncPlayerRole(ctx context.Context, member *models.GuildMember, registrant models.Registrant, remove bool, out *Outcome) {
	switch {
	case remove:
		r.setRole(ctx, member, attrPlayer, r.roles.Player, false, out)
	case registrant.InRoster:
		r.setRole(ctx, member, attrPlayer, r.roles.Player, true, out)
	}
}

func (r *Reconciler) syncCaptainRole(ctx context.Context, member *models.GuildMember, registrant models.Registrant, remove bool, out *Outcome) {
	switch {
	case remove:
		r.setRole(ctx, member, attrCaptain, r.roles.Captain, false, out)
	case registrant.InRoster && registrant.IsCaptain:
		r.setRole(ctx, member, attrCaptain, r.roles.Captain, true, out)
	}
}
