// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setRequiredEnv sets the minimum environment for a valid configuration.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("REGISTRANT_API_URL", "https://registration.example.org/api/")
	t.Setenv("REGISTRANT_API_PSK", "secret")
	t.Setenv("DISCORD_TOKEN", "bot-token")
	t.Setenv("GUILD_ID", "100")
	t.Setenv("REGISTRANT_ROLE_ID", "200")
	t.Setenv("ORGANIZER_ROLE_ID", "201")
	t.Setenv("ANNOUNCE_CHANNEL_ID", "300")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.WSPath != "/ws/discord/" {
		t.Errorf("API.WSPath = %q, want /ws/discord/", cfg.API.WSPath)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("Sync.Interval = %v, want 5m", cfg.Sync.Interval)
	}
	if cfg.Roles.TeamRolesEnabled {
		t.Error("team roles should be disabled by default")
	}
	if !cfg.Announce.Enabled {
		t.Error("announcements should be enabled by default")
	}
	if cfg.Discord.APIURL != "https://discord.com/api/v10" {
		t.Errorf("Discord.APIURL = %q", cfg.Discord.APIURL)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_INTERVAL", "90s")
	t.Setenv("TEAM_ROLES_ENABLED", "true")
	t.Setenv("PLAYER_ROLE_ID", "202")
	t.Setenv("CAPTAIN_ROLE_ID", "203")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.URL != "https://registration.example.org/api" {
		t.Errorf("API.URL = %q, trailing slash should be trimmed", cfg.API.URL)
	}
	if cfg.Sync.Interval != 90*time.Second {
		t.Errorf("Sync.Interval = %v, want 90s", cfg.Sync.Interval)
	}
	if !cfg.Roles.TeamRolesEnabled || cfg.Roles.Player != "202" || cfg.Roles.Captain != "203" {
		t.Errorf("team role config not loaded: %+v", cfg.Roles)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Discord.GuildID != "100" {
		t.Errorf("Discord.GuildID = %q", cfg.Discord.GuildID)
	}
}

func TestLoad_CORSOriginsFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "https://admin.example.org, https://ops.example.org,")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://admin.example.org", "https://ops.example.org"}
	if strings.Join(cfg.Server.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Server.RateLimitRequests != 5 {
		t.Errorf("Server.RateLimitRequests = %d, want 5", cfg.Server.RateLimitRequests)
	}
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sync:
  interval: 2m
server:
  port: 9090
roles:
  staff: "205"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sync.Interval != 2*time.Minute {
		t.Errorf("Sync.Interval = %v, want 2m from file", cfg.Sync.Interval)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, env should override file", cfg.Server.Port)
	}
	if cfg.Roles.Staff != "205" {
		t.Errorf("Roles.Staff = %q, want 205", cfg.Roles.Staff)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.API.URL = "https://registration.example.org"
		cfg.API.PSK = "secret"
		cfg.Discord.Token = "token"
		cfg.Discord.GuildID = "1"
		cfg.Roles.Registrant = "2"
		cfg.Roles.Organizer = "3"
		cfg.Announce.ChannelID = "4"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api url", mutate: func(c *Config) { c.API.URL = "" }, wantErr: "REGISTRANT_API_URL"},
		{name: "bad api scheme", mutate: func(c *Config) { c.API.URL = "ftp://x" }, wantErr: "http or https"},
		{name: "missing psk", mutate: func(c *Config) { c.API.PSK = "" }, wantErr: "REGISTRANT_API_PSK"},
		{name: "non numeric guild", mutate: func(c *Config) { c.Discord.GuildID = "abc" }, wantErr: "GUILD_ID"},
		{name: "team roles need player role", mutate: func(c *Config) { c.Roles.TeamRolesEnabled = true }, wantErr: "PLAYER_ROLE_ID"},
		{name: "announce disabled needs no channel", mutate: func(c *Config) {
			c.Announce.Enabled = false
			c.Announce.ChannelID = ""
		}},
		{name: "interval too short", mutate: func(c *Config) { c.Sync.Interval = time.Second }, wantErr: "SYNC_INTERVAL"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "HTTP_PORT"},
		{name: "disabled server skips port", mutate: func(c *Config) {
			c.Server.Enabled = false
			c.Server.Port = 0
		}},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc_IgnoresUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty", got)
	}
	if got := envTransformFunc("DISCORD_TOKEN"); got != "discord.token" {
		t.Errorf("envTransformFunc(DISCORD_TOKEN) = %q", got)
	}
}
