// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/rollcall/internal/countries"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

// teamRoleIndex caches the guild's team roles by name and id. It is loaded
// lazily from ListRoles and dropped at the start of every full sync.
type teamRoleIndex struct {
	mu     sync.Mutex
	loaded bool
	byName map[string]string
	byID   map[string]string
}

func newTeamRoleIndex() *teamRoleIndex {
	return &teamRoleIndex{}
}

func (x *teamRoleIndex) invalidate() {
	x.mu.Lock()
	x.loaded = false
	x.byName = nil
	x.byID = nil
	x.mu.Unlock()
}

func (x *teamRoleIndex) ensure(ctx context.Context, guild Guild, isTeamRole func(models.GuildRole) bool) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.loaded {
		return nil
	}
	roles, err := guild.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("list guild roles: %w", err)
	}
	x.byName = make(map[string]string)
	x.byID = make(map[string]string)
	for _, role := range roles {
		if !isTeamRole(role) {
			continue
		}
		// First one wins when names are duplicated; cleanup removes the rest.
		if _, dup := x.byName[role.Name]; !dup {
			x.byName[role.Name] = role.ID
		}
		x.byID[role.ID] = role.Name
	}
	x.loaded = true
	return nil
}

func (x *teamRoleIndex) lookup(name string) (string, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	id, ok := x.byName[name]
	return id, ok
}

func (x *teamRoleIndex) add(role *models.GuildRole) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.byName == nil {
		return
	}
	x.byName[role.Name] = role.ID
	x.byID[role.ID] = role.Name
}

// heldBy returns the team role ids member holds.
func (x *teamRoleIndex) heldBy(member *models.GuildMember) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	var held []string
	for _, id := range member.Roles {
		if _, ok := x.byID[id]; ok {
			held = append(held, id)
		}
	}
	return held
}

// syncTeamRole gives rostered members exactly one team role, the one named
// after their team. On remove every team role is stripped.
func (r *Reconciler) syncTeamRole(ctx context.Context, member *models.GuildMember, registrant models.Registrant, remove bool, out *Outcome) {
	if !remove && !registrant.InRoster {
		return
	}
	if err := r.teamRoles.ensure(ctx, r.guild, r.isTeamRole); err != nil {
		out.failed(ctx, attrTeam, err)
		return
	}

	keep := ""
	if !remove {
		if name, ok := countries.TeamRoleName(registrant.TeamID); ok {
			id, err := r.resolveTeamRole(ctx, name, registrant.TeamID)
			if err != nil {
				out.failed(ctx, attrTeam, err)
				return
			}
			keep = id
			r.setRole(ctx, member, attrTeam, id, true, out)
		} else {
			// Unmapped team ids hold no team role at all.
			logging.Ctx(ctx).Debug().
				Str("discord_id", registrant.DiscordID).
				Str("team_id", registrant.TeamID).
				Msg("No team role for team id")
		}
	}

	for _, id := range r.teamRoles.heldBy(member) {
		if id == keep {
			continue
		}
		r.setRole(ctx, member, attrTeam, id, false, out)
	}
}

// isTeamRole reports whether role is a team role. Roles the reconciler
// manages directly never are, whatever their name.
func (r *Reconciler) isTeamRole(role models.GuildRole) bool {
	if _, managed := r.managedRoles[role.ID]; managed {
		return false
	}
	return countries.IsTeamRoleName(role.Name)
}

// resolveTeamRole returns the id of the role called name, creating it when
// the guild has none.
func (r *Reconciler) resolveTeamRole(ctx context.Context, name, teamID string) (string, error) {
	if id, ok := r.teamRoles.lookup(name); ok {
		return id, nil
	}
	role, err := r.guild.CreateRole(ctx, models.RoleSpec{
		Name:         name,
		UnicodeEmoji: countries.Flag(teamID),
		Mentionable:  true,
	})
	if err != nil {
		return "", fmt.Errorf("create team role %q: %w", name, err)
	}
	r.teamRoles.add(role)
	logging.Ctx(ctx).Info().Str("role", name).Str("role_id", role.ID).Msg("Created team role")
	return role.ID, nil
}

// CleanupTeamRoles deletes duplicate team roles, keeping the one with the
// lowest id for each name. It returns the number of roles deleted.
func (r *Reconciler) CleanupTeamRoles(ctx context.Context) (int, error) {
	roles, err := r.teamRoleList(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{})
	var doomed []models.GuildRole
	for _, role := range roles {
		if _, dup := seen[role.Name]; dup {
			doomed = append(doomed, role)
			continue
		}
		seen[role.Name] = struct{}{}
	}
	return r.deleteRoles(ctx, doomed)
}

// DeleteAllTeamRoles deletes every team role in the guild.
func (r *Reconciler) DeleteAllTeamRoles(ctx context.Context) (int, error) {
	roles, err := r.teamRoleList(ctx)
	if err != nil {
		return 0, err
	}
	return r.deleteRoles(ctx, roles)
}

// TeamRoles lists the guild's team roles ordered by name then id.
func (r *Reconciler) TeamRoles(ctx context.Context) ([]models.GuildRole, error) {
	return r.teamRoleList(ctx)
}

func (r *Reconciler) teamRoleList(ctx context.Context) ([]models.GuildRole, error) {
	roles, err := r.guild.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guild roles: %w", err)
	}
	var team []models.GuildRole
	for _, role := range roles {
		if r.isTeamRole(role) {
			team = append(team, role)
		}
	}
	sort.Slice(team, func(i, j int) bool {
		if team[i].Name != team[j].Name {
			return team[i].Name < team[j].Name
		}
		return snowflakeLess(team[i].ID, team[j].ID)
	})
	return team, nil
}

func (r *Reconciler) deleteRoles(ctx context.Context, roles []models.GuildRole) (int, error) {
	defer r.teamRoles.invalidate()
	deleted := 0
	var firstErr error
	for _, role := range roles {
		if err := r.guild.DeleteRole(ctx, role.ID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("role", role.Name).Str("role_id", role.ID).Msg("Failed to delete team role")
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: delete role %s: %w", ErrMutationFailed, role.ID, err)
			}
			continue
		}
		deleted++
		logging.Ctx(ctx).Info().Str("role", role.Name).Str("role_id", role.ID).Msg("Deleted team role")
	}
	return deleted, firstErr
}

// snowflakeLess orders decimal ids numerically.
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
