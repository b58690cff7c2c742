// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/rollcall/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			URL:          "https://registration.example.org/api",
			PSK:          "psk",
			WSPath:       "/ws/discord/",
			Timeout:      10 * time.Second,
			PingInterval: 30 * time.Second,
		},
		Discord: config.DiscordConfig{
			Token:             "bot",
			GuildID:           "100",
			APIURL:            "https://discord.com/api/v10",
			RequestsPerSecond: 40,
			Timeout:           10 * time.Second,
		},
		Roles: config.RolesConfig{
			Registrant:       "200",
			Organizer:        "201",
			Player:           "202",
			Captain:          "203",
			TeamRolesEnabled: true,
		},
		Announce: config.AnnounceConfig{Enabled: true, ChannelID: "300"},
		Sync:     config.SyncConfig{Interval: time.Minute, QueueSize: 8},
		Server: config.ServerConfig{
			Enabled:           true,
			Host:              "127.0.0.1",
			Port:              8080,
			Timeout:           30 * time.Second,
			AdminToken:        "token",
			RateLimitRequests: 10,
			RateLimitWindow:   time.Minute,
		},
	}
}

func TestReconcilerConfig(t *testing.T) {
	rc := reconcilerConfig(testConfig())
	if rc.Roles.Registrant != "200" || rc.Roles.Organizer != "201" ||
		rc.Roles.Player != "202" || rc.Roles.Captain != "203" {
		t.Errorf("roles = %+v", rc.Roles)
	}
	if !rc.TeamRolesEnabled || !rc.AnnounceEnabled || rc.AnnounceChannelID != "300" {
		t.Errorf("flags = %+v", rc)
	}
}

func TestNewApp(t *testing.T) {
	t.Run("with admin server", func(t *testing.T) {
		a, err := newApp(testConfig())
		if err != nil {
			t.Fatalf("newApp: %v", err)
		}
		if a.server == nil {
			t.Fatal("admin server not built")
		}
		if a.server.Addr != "127.0.0.1:8080" {
			t.Errorf("Addr = %q", a.server.Addr)
		}
		if a.scheduler.Interval() != time.Minute {
			t.Errorf("Interval = %v, want 1m", a.scheduler.Interval())
		}
		if !a.reconciler.TeamRolesEnabled() {
			t.Error("team roles should start enabled")
		}
	})

	t.Run("admin server disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.Enabled = false
		a, err := newApp(cfg)
		if err != nil {
			t.Fatalf("newApp: %v", err)
		}
		if a.server != nil {
			t.Error("admin server built while disabled")
		}
	})

	t.Run("bad api scheme", func(t *testing.T) {
		cfg := testConfig()
		cfg.API.URL = "ftp://registration.example.org"
		if _, err := newApp(cfg); err == nil {
			t.Fatal("expected error for ftp api url")
		}
	})
}

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig().Server
	srv := newHTTPServer(&cfg, http.NotFoundHandler())
	if srv.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want 0", srv.WriteTimeout)
	}
	if srv.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", srv.ReadTimeout)
	}
}
