// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/models"
)

// pushFrame wraps inner the way the registration API does.
func pushFrame(t *testing.T, inner map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(inner)
	checkNoError(t, err)
	frame, err := json.Marshal(models.PushEnvelope{Message: string(data)})
	checkNoError(t, err)
	return frame
}

func handleFrame(t *testing.T, h *PushHandlers, frame []byte) error {
	t.Helper()
	msg, err := models.DecodePushMessage(frame)
	checkNoError(t, err)
	return h.Handle(context.Background(), msg)
}

func TestHandleRegister_EndToEnd(t *testing.T) {
	r, guild, _, cache := newTestReconciler(true)
	guild.addMember("1001", "discordname")
	h := NewPushHandlers(cache, r)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"action":          "register",
		"discord_user_id": "1001",
		"osu_username":    "Cookiezi",
		"is_organizer":    false,
		"osu_flag":        "JP",
	}))
	checkNoError(t, err)

	rec, ok := cache.Get("1001")
	if !ok {
		t.Fatal("registrant should be cached")
	}
	checkStringEqual(t, "osu_username", rec.OsuUsername, "Cookiezi")
	checkStringEqual(t, "team_id", rec.TeamID, models.NoTeam)
	checkStringEqual(t, "osu_flag", rec.OsuFlag, "JP")

	checkStringsEqual(t, "calls", guild.takeCalls(), []string{
		`nick 1001 "Cookiezi"`,
		"add 1001 100",
		"send 900",
	})
	sent := guild.sent()
	checkIntEqual(t, "announcements", len(sent), 1)
	checkStringEqual(t, "announcement", sent[0].content, flagJP+" **Cookiezi** has registered!")
}

func TestHandleRegister_RequiresFlag(t *testing.T) {
	r, guild, _, cache := newTestReconciler(false)
	guild.addMember("1001", "discordname")
	h := NewPushHandlers(cache, r)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"action":          "register",
		"discord_user_id": "1001",
		"osu_username":    "Cookiezi",
		"is_organizer":    false,
	}))

	checkErrorIs(t, err, ErrValidation)
	checkIntEqual(t, "cache size", cache.Len(), 0)
	checkStringsEqual(t, "calls", guild.takeCalls(), nil)
}

func TestHandleDelete(t *testing.T) {
	r, guild, _, cache := newTestReconciler(false)
	guild.addMember("1002", "discordname", roleRegistrant)
	guild.setNick("1002", "Cookiezi")
	cache.Set(registrant("1002", "Cookiezi"))
	h := NewPushHandlers(cache, r)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"action":          "delete",
		"discord_user_id": "1002",
	}))
	checkNoError(t, err)

	if _, ok := cache.Get("1002"); ok {
		t.Error("deleted registrant should be evicted")
	}
	checkStringsEqual(t, "calls", guild.takeCalls(), []string{
		`nick 1002 ""`,
		"remove 1002 100",
	})
}

func TestHandleDiscordSwitch(t *testing.T) {
	r, guild, _, cache := newTestReconciler(false)
	guild.addMember("1001", "old", roleRegistrant)
	guild.setNick("1001", "Cookiezi")
	guild.addMember("1002", "alt")
	cache.Set(registrant("1001", "Cookiezi"))
	h := NewPushHandlers(cache, r)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"action":              "discord_switch",
		"old_discord_user_id": "1001",
		"new_discord_user_id": "1002",
	}))
	checkNoError(t, err)

	if _, ok := cache.Get("1001"); ok {
		t.Error("old id should no longer be cached")
	}
	moved, ok := cache.Get("1002")
	if !ok {
		t.Fatal("new id should be cached")
	}
	checkStringEqual(t, "moved username", moved.OsuUsername, "Cookiezi")
	checkStringEqual(t, "moved id", moved.DiscordID, "1002")

	checkStringsEqual(t, "calls", guild.takeCalls(), []string{
		`nick 1002 "Cookiezi"`,
		"add 1002 100",
		`nick 1001 ""`,
		"remove 1001 100",
	})
}

func TestHandleDiscordSwitch_OldNotCached(t *testing.T) {
	r, guild, _, cache := newTestReconciler(false)
	guild.addMember("1001", "old", roleRegistrant)
	guild.addMember("1002", "alt")
	h := NewPushHandlers(cache, r)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"action":              "discord_switch",
		"old_discord_user_id": "1001",
		"new_discord_user_id": "1002",
	}))
	checkNoError(t, err)

	checkIntEqual(t, "cache size", cache.Len(), 0)
	checkStringsEqual(t, "calls", guild.takeCalls(), []string{"remove 1001 100"})
}

func TestHandleUpdate_NoAnnouncement(t *testing.T) {
	r, guild, _, cache := newTestReconciler(false)
	guild.addMember("1001", "discordname")
	h := NewPushHandlers(cache, r)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"discord_user_id": "1001",
		"osu_username":    "Cookiezi",
		"is_organizer":    true,
	}))
	checkNoError(t, err)

	checkStringsEqual(t, "calls", guild.takeCalls(), []string{
		`nick 1001 "Cookiezi"`,
		"add 1001 100",
		"add 1001 101",
	})
	checkIntEqual(t, "announcements", len(guild.sent()), 0)
}

func TestHandleUpdate_InvalidShape(t *testing.T) {
	tests := []struct {
		name  string
		inner map[string]interface{}
	}{
		{"missing username", map[string]interface{}{"discord_user_id": "1001", "is_organizer": false}},
		{"missing organizer flag", map[string]interface{}{"discord_user_id": "1001", "osu_username": "x"}},
		{"non numeric id", map[string]interface{}{"discord_user_id": "abc", "osu_username": "x", "is_organizer": false}},
		{"wrong type", map[string]interface{}{"discord_user_id": "1001", "osu_username": 7, "is_organizer": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _, cache := newTestReconciler(false)
			h := NewPushHandlers(cache, r)

			err := handleFrame(t, h, pushFrame(t, tt.inner))

			checkErrorIs(t, err, ErrValidation)
			checkIntEqual(t, "cache size", cache.Len(), 0)
		})
	}
}

func TestHandle_UnknownAction(t *testing.T) {
	r, _, _, cache := newTestReconciler(false)
	h := NewPushHandlers(cache, r)

	err := h.Handle(context.Background(), &models.PushMessage{Action: "bogus"})

	checkErrorIs(t, err, ErrValidation)
}

func TestHandle_RecoversPanics(t *testing.T) {
	h := NewPushHandlers(NewCache(), nil)

	err := handleFrame(t, h, pushFrame(t, map[string]interface{}{
		"discord_user_id": "1001",
		"osu_username":    "Cookiezi",
		"is_organizer":    false,
	}))

	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("expected recovered panic, got %v", err)
	}
}
