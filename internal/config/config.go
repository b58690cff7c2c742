// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package config loads Rollcall configuration.
//
// Sources are layered with Koanf v2, later sources overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, or config.yaml / /etc/rollcall/config.yaml)
//  3. Environment variables (see envTransformFunc for the full mapping)
//
// The merged result is validated before it is returned.
package config

import "time"

// Config is the complete process configuration.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Discord  DiscordConfig  `koanf:"discord"`
	Roles    RolesConfig    `koanf:"roles"`
	Announce AnnounceConfig `koanf:"announce"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// APIConfig points at the registration API that owns registrant records.
type APIConfig struct {
	URL          string        `koanf:"url"`     // e.g. https://example.org/api
	PSK          string        `koanf:"psk"`     // sent as "Authorization: Token <psk>"
	WSPath       string        `koanf:"ws_path"` // push channel path relative to the API host
	Timeout      time.Duration `koanf:"timeout"`
	PingInterval time.Duration `koanf:"ping_interval"`
}

// DiscordConfig holds chat platform credentials.
type DiscordConfig struct {
	Token             string        `koanf:"token"`
	GuildID           string        `koanf:"guild_id"`
	APIURL            string        `koanf:"api_url"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
}

// RolesConfig maps registrant attributes onto guild role ids.
type RolesConfig struct {
	Registrant       string `koanf:"registrant"`
	Organizer        string `koanf:"organizer"`
	Staff            string `koanf:"staff"` // optional; members holding it are never treated as registrants
	Player           string `koanf:"player"`
	Captain          string `koanf:"captain"`
	TeamRolesEnabled bool   `koanf:"team_roles_enabled"`
}

// AnnounceConfig controls the registration announcement.
type AnnounceConfig struct {
	Enabled   bool   `koanf:"enabled"`
	ChannelID string `koanf:"channel_id"`
}

// SyncConfig controls the periodic full resync and the engine job queue.
type SyncConfig struct {
	Interval      time.Duration `koanf:"interval"`
	QueueSize     int           `koanf:"queue_size"`
	SyncOnStartup bool          `koanf:"sync_on_startup"`
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Timeout    time.Duration `koanf:"timeout"`
	AdminToken string        `koanf:"admin_token"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Minimum refresh interval accepted from configuration or the admin API.
const MinSyncInterval = 10 * time.Second
