// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// Validate checks the merged configuration and reports the first problem.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateDiscord(); err != nil {
		return err
	}
	if err := c.validateRoles(); err != nil {
		return err
	}
	if err := c.validateAnnounce(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	if c.API.URL == "" {
		return fmt.Errorf("REGISTRANT_API_URL is required")
	}
	if err := validateHTTPURL(c.API.URL, "REGISTRANT_API_URL"); err != nil {
		return err
	}
	if c.API.PSK == "" {
		return fmt.Errorf("REGISTRANT_API_PSK is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("REGISTRANT_API_TIMEOUT must be positive")
	}
	if c.API.PingInterval <= 0 {
		return fmt.Errorf("REGISTRANT_WS_PING_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateDiscord() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if err := validateSnowflake(c.Discord.GuildID, "GUILD_ID", true); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Discord.APIURL, "DISCORD_API_URL"); err != nil {
		return err
	}
	if c.Discord.RequestsPerSecond <= 0 {
		return fmt.Errorf("DISCORD_RPS must be positive")
	}
	return nil
}

func (c *Config) validateRoles() error {
	if err := validateSnowflake(c.Roles.Registrant, "REGISTRANT_ROLE_ID", true); err != nil {
		return err
	}
	if err := validateSnowflake(c.Roles.Organizer, "ORGANIZER_ROLE_ID", true); err != nil {
		return err
	}
	if err := validateSnowflake(c.Roles.Staff, "STAFF_ROLE_ID", false); err != nil {
		return err
	}
	// Player and captain roles are only needed once team roles are switched on,
	// which can also happen at runtime through the admin API.
	if err := validateSnowflake(c.Roles.Player, "PLAYER_ROLE_ID", c.Roles.TeamRolesEnabled); err != nil {
		return err
	}
	return validateSnowflake(c.Roles.Captain, "CAPTAIN_ROLE_ID", c.Roles.TeamRolesEnabled)
}

func (c *Config) validateAnnounce() error {
	return validateSnowflake(c.Announce.ChannelID, "ANNOUNCE_CHANNEL_ID", c.Announce.Enabled)
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < MinSyncInterval {
		return fmt.Errorf("SYNC_INTERVAL must be at least %s", MinSyncInterval)
	}
	if c.Sync.QueueSize < 1 {
		return fmt.Errorf("SYNC_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !c.Server.RateLimitDisabled && (c.Server.RateLimitRequests < 1 || c.Server.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

func validateSnowflake(id, name string, required bool) error {
	if id == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	if strings.Trim(id, "0123456789") != "" {
		return fmt.Errorf("%s must be a numeric id", name)
	}
	return nil
}
