// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rollcall/config.yaml",
	"/etc/rollcall/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			WSPath:       "/ws/discord/",
			Timeout:      30 * time.Second,
			PingInterval: 30 * time.Second,
		},
		Discord: DiscordConfig{
			APIURL:            "https://discord.com/api/v10",
			RequestsPerSecond: 40,
			Timeout:           15 * time.Second,
		},
		Roles: RolesConfig{
			TeamRolesEnabled: false,
		},
		Announce: AnnounceConfig{
			Enabled: true,
		},
		Sync: SyncConfig{
			Interval:      5 * time.Minute,
			QueueSize:     256,
			SyncOnStartup: false, // the connector's first open already triggers a full sync
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,

			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads defaults, the optional config file and the environment, then
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as
// plain strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		var items []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto koanf paths.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"registrant_api_url":          "api.url",
		"registrant_api_psk":          "api.psk",
		"registrant_ws_path":          "api.ws_path",
		"registrant_api_timeout":      "api.timeout",
		"registrant_ws_ping_interval": "api.ping_interval",
		"discord_token":               "discord.token",
		"guild_id":                    "discord.guild_id",
		"discord_guild_id":            "discord.guild_id",
		"discord_api_url":             "discord.api_url",
		"discord_rps":                 "discord.requests_per_second",
		"discord_timeout":             "discord.timeout",
		"registrant_role_id":          "roles.registrant",
		"organizer_role_id":           "roles.organizer",
		"staff_role_id":               "roles.staff",
		"player_role_id":              "roles.player",
		"captain_role_id":             "roles.captain",
		"team_roles_enabled":          "roles.team_roles_enabled",
		"announce_enabled":            "announce.enabled",
		"announce_channel_id":         "announce.channel_id",
		"sync_interval":               "sync.interval",
		"sync_queue_size":             "sync.queue_size",
		"sync_on_startup":             "sync.sync_on_startup",
		"http_enabled":                "server.enabled",
		"http_host":                   "server.host",
		"http_port":                   "server.port",
		"http_timeout":                "server.timeout",
		"admin_token":                 "server.admin_token",
		"cors_origins":                "server.cors_origins",
		"rate_limit_requests":         "server.rate_limit_requests",
		"rate_limit_window":           "server.rate_limit_window",
		"disable_rate_limit":          "server.rate_limit_disabled",
		"log_level":                   "logging.level",
		"log_format":                  "logging.format",
		"log_caller":                  "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// normalize trims values that are commonly pasted with stray whitespace or slashes.
func (c *Config) normalize() {
	c.API.URL = strings.TrimRight(strings.TrimSpace(c.API.URL), "/")
	c.Discord.APIURL = strings.TrimRight(strings.TrimSpace(c.Discord.APIURL), "/")
	if c.API.WSPath != "" && !strings.HasPrefix(c.API.WSPath, "/") {
		c.API.WSPath = "/" + c.API.WSPath
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// Address returns the admin server listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
