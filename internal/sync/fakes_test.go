// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	stdsync "sync"

	"github.com/tomtom215/rollcall/internal/models"
)

// Role ids used throughout the tests.
const (
	roleRegistrant = "100"
	roleOrganizer  = "101"
	rolePlayer     = "102"
	roleCaptain    = "103"
	roleStaff      = "104"
	announceChan   = "900"
)

var testRoles = RoleIDs{
	Registrant: roleRegistrant,
	Organizer:  roleOrganizer,
	Player:     rolePlayer,
	Captain:    roleCaptain,
}

var errInjected = errors.New("injected failure")

type sentMessage struct {
	channelID string
	content   string
}

// fakeGuild is an in-memory guild. Mutations change member state so repeated
// syncs observe their own effects. Every mutation is logged in calls.
type fakeGuild struct {
	mu         stdsync.Mutex
	members    map[string]*models.GuildMember
	roles      []models.GuildRole
	nextRoleID int
	fail       map[string]error
	calls      []string
	messages   []sentMessage
}

func newFakeGuild() *fakeGuild {
	return &fakeGuild{
		members:    make(map[string]*models.GuildMember),
		fail:       make(map[string]error),
		nextRoleID: 500,
	}
}

func (g *fakeGuild) addMember(id, username string, roles ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[id] = &models.GuildMember{
		User:  models.GuildUser{ID: id, Username: username},
		Roles: append([]string(nil), roles...),
	}
}

func (g *fakeGuild) setNick(id, nick string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[id].Nick = &nick
}

func (g *fakeGuild) addGuildRole(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles = append(g.roles, models.GuildRole{ID: id, Name: name})
}

func (g *fakeGuild) failOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[op] = err
}

func (g *fakeGuild) member(id string) *models.GuildMember {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[id]
	if !ok {
		return nil
	}
	return cloneMember(m)
}

func (g *fakeGuild) takeCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	calls := g.calls
	g.calls = nil
	return calls
}

func (g *fakeGuild) sent() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.messages...)
}

func (g *fakeGuild) guildRoles() []models.GuildRole {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.GuildRole(nil), g.roles...)
}

func cloneMember(m *models.GuildMember) *models.GuildMember {
	c := *m
	c.Roles = append([]string(nil), m.Roles...)
	if m.Nick != nil {
		nick := *m.Nick
		c.Nick = &nick
	}
	return &c
}

// record logs a mutation and returns the injected error for op, if any.
func (g *fakeGuild) record(op, call string) error {
	if err := g.fail[op]; err != nil {
		return err
	}
	g.calls = append(g.calls, call)
	return nil
}

func (g *fakeGuild) FetchMember(_ context.Context, userID string) (*models.GuildMember, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail["fetch"]; err != nil {
		return nil, err
	}
	m, ok := g.members[userID]
	if !ok {
		return nil, models.ErrMemberNotFound
	}
	return cloneMember(m), nil
}

func (g *fakeGuild) SetNickname(_ context.Context, userID, nickname string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("nick", fmt.Sprintf("nick %s %q", userID, nickname)); err != nil {
		return err
	}
	m := g.members[userID]
	if nickname == "" {
		m.Nick = nil
	} else {
		m.Nick = &nickname
	}
	return nil
}

func (g *fakeGuild) AddRole(_ context.Context, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("add", fmt.Sprintf("add %s %s", userID, roleID)); err != nil {
		return err
	}
	m := g.members[userID]
	m.Roles = append(m.Roles, roleID)
	return nil
}

func (g *fakeGuild) RemoveRole(_ context.Context, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("remove", fmt.Sprintf("remove %s %s", userID, roleID)); err != nil {
		return err
	}
	m := g.members[userID]
	m.Roles = slices.DeleteFunc(m.Roles, func(r string) bool { return r == roleID })
	return nil
}

func (g *fakeGuild) FetchRole(_ context.Context, roleID string) (*models.GuildRole, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.roles {
		if r.ID == roleID {
			role := r
			return &role, nil
		}
	}
	return nil, models.ErrRoleNotFound
}

func (g *fakeGuild) ListRoles(_ context.Context) ([]models.GuildRole, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail["list"]; err != nil {
		return nil, err
	}
	return append([]models.GuildRole(nil), g.roles...), nil
}

func (g *fakeGuild) CreateRole(_ context.Context, spec models.RoleSpec) (*models.GuildRole, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("create", fmt.Sprintf("create %q %s", spec.Name, spec.UnicodeEmoji)); err != nil {
		return nil, err
	}
	g.nextRoleID++
	emoji := spec.UnicodeEmoji
	role := models.GuildRole{ID: strconv.Itoa(g.nextRoleID), Name: spec.Name, UnicodeEmoji: &emoji}
	g.roles = append(g.roles, role)
	return &role, nil
}

func (g *fakeGuild) DeleteRole(_ context.Context, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("delete", "delete "+roleID); err != nil {
		return err
	}
	g.roles = slices.DeleteFunc(g.roles, func(r models.GuildRole) bool { return r.ID == roleID })
	return nil
}

func (g *fakeGuild) SendMessage(_ context.Context, channelID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("send", "send "+channelID); err != nil {
		return err
	}
	g.messages = append(g.messages, sentMessage{channelID: channelID, content: content})
	return nil
}

func (g *fakeGuild) IsStaff(member *models.GuildMember) bool {
	return member.HasRole(roleStaff)
}

// fakeWriter records write-backs to the registration API.
type fakeWriter struct {
	mu        stdsync.Mutex
	organizer []string
	staff     []string
	err       error
}

func (w *fakeWriter) UpdateOrganizer(_ context.Context, discordID string, isOrganizer bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.organizer = append(w.organizer, fmt.Sprintf("%s=%v", discordID, isOrganizer))
	return nil
}

func (w *fakeWriter) UpdateStaff(_ context.Context, discordID string, isStaff bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.staff = append(w.staff, fmt.Sprintf("%s=%v", discordID, isStaff))
	return nil
}

// fakePageSource serves a fixed chain of pages. Page n (1-based) is fetched
// with the cursor "page-n"; failAt makes that page fail.
type fakePageSource struct {
	mu      stdsync.Mutex
	pages   []*models.RegistrantPage
	failAt  int
	fetched []int
}

func newFakePageSource(pages ...[]models.RegistrantPayload) *fakePageSource {
	src := &fakePageSource{}
	total := 0
	for _, results := range pages {
		total += len(results)
	}
	for i, results := range pages {
		page := &models.RegistrantPage{Count: total, Results: results}
		if i+1 < len(pages) {
			next := fmt.Sprintf("page-%d", i+2)
			page.Next = &next
		}
		src.pages = append(src.pages, page)
	}
	return src
}

func (s *fakePageSource) FirstPage(_ context.Context) (*models.RegistrantPage, error) {
	return s.page(1)
}

func (s *fakePageSource) NextPage(_ context.Context, next string) (*models.RegistrantPage, error) {
	var n int
	if _, err := fmt.Sscanf(next, "page-%d", &n); err != nil {
		return nil, fmt.Errorf("bad cursor %q", next)
	}
	return s.page(n)
}

func (s *fakePageSource) page(n int) (*models.RegistrantPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, n)
	if n == s.failAt {
		return nil, errInjected
	}
	if n < 1 || n > len(s.pages) {
		return nil, fmt.Errorf("no page %d", n)
	}
	return s.pages[n-1], nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

// payload builds a listing entry.
func payload(id, name string, organizer bool) models.RegistrantPayload {
	return models.RegistrantPayload{
		DiscordID:   strPtr(id),
		OsuUsername: strPtr(name),
		IsOrganizer: boolPtr(organizer),
	}
}

// registrant builds a cached record with no team.
func registrant(id, name string) models.Registrant {
	return models.Registrant{
		DiscordID:   id,
		OsuUsername: name,
		TeamID:      models.NoTeam,
	}
}

// newTestReconciler wires a reconciler over fresh fakes.
func newTestReconciler(teamRoles bool) (*Reconciler, *fakeGuild, *fakeWriter, *Cache) {
	guild := newFakeGuild()
	writer := &fakeWriter{}
	cache := NewCache()
	r := NewReconciler(guild, writer, cache, ReconcilerConfig{
		Roles:             testRoles,
		TeamRolesEnabled:  teamRoles,
		AnnounceEnabled:   true,
		AnnounceChannelID: announceChan,
	})
	return r, guild, writer, cache
}
