// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/sync"
)

const (
	userAgent      = "DiscordBot (https://github.com/tomtom215/rollcall, 1.0)"
	auditLogReason = "Rollcall role sync"
	maxErrorBody   = 64 * 1024
	metricsTarget  = "discord"
)

// JSON error codes Discord returns with a 404.
const (
	codeUnknownMember = 10007
	codeUnknownRole   = 10011
	codeUnknownUser   = 10013
)

var _ sync.Guild = (*Client)(nil)

// APIError is a non-2xx Discord response.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discord api: status %d", e.Status)
	}
	return fmt.Sprintf("discord api: status %d: %s (code %d)", e.Status, e.Message, e.Code)
}

// Client is a guild-scoped Discord REST client.
type Client struct {
	baseURL     string
	token       string
	guildID     string
	staffRoleID string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	baseDelay   time.Duration
}

// NewClient creates a client for the configured guild. Members holding
// staffRoleID are reported as staff; an empty id disables the check.
func NewClient(cfg *config.DiscordConfig, staffRoleID string) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 40
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.APIURL, "/"),
		token:       cfg.Token,
		guildID:     cfg.GuildID,
		staffRoleID: staffRoleID,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		maxRetries:  5,
		baseDelay:   time.Second,
	}
}

// FetchMember returns the guild member, or models.ErrMemberNotFound.
func (c *Client) FetchMember(ctx context.Context, userID string) (*models.GuildMember, error) {
	var member models.GuildMember
	err := c.do(ctx, http.MethodGet, c.memberPath(userID), nil, &member)
	if err != nil {
		if isUnknown(err, codeUnknownMember, codeUnknownUser) {
			return nil, fmt.Errorf("%w: %s", models.ErrMemberNotFound, userID)
		}
		return nil, err
	}
	return &member, nil
}

type nickUpdate struct {
	Nick *string `json:"nick"`
}

// SetNickname sets the member's guild nickname; "" resets it.
func (c *Client) SetNickname(ctx context.Context, userID, nickname string) error {
	body := nickUpdate{}
	if nickname != "" {
		body.Nick = &nickname
	}
	return c.do(ctx, http.MethodPatch, c.memberPath(userID), body, nil)
}

// AddRole grants roleID to the member.
func (c *Client) AddRole(ctx context.Context, userID, roleID string) error {
	return c.do(ctx, http.MethodPut, c.memberRolePath(userID, roleID), nil, nil)
}

// RemoveRole takes roleID from the member.
func (c *Client) RemoveRole(ctx context.Context, userID, roleID string) error {
	return c.do(ctx, http.MethodDelete, c.memberRolePath(userID, roleID), nil, nil)
}

// ListRoles returns every role in the guild.
func (c *Client) ListRoles(ctx context.Context) ([]models.GuildRole, error) {
	var roles []models.GuildRole
	if err := c.do(ctx, http.MethodGet, c.guildPath("/roles"), nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// FetchRole returns the role with roleID, or models.ErrRoleNotFound.
func (c *Client) FetchRole(ctx context.Context, roleID string) (*models.GuildRole, error) {
	roles, err := c.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].ID == roleID {
			return &roles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrRoleNotFound, roleID)
}

// CreateRole creates a guild role.
func (c *Client) CreateRole(ctx context.Context, spec models.RoleSpec) (*models.GuildRole, error) {
	var role models.GuildRole
	if err := c.do(ctx, http.MethodPost, c.guildPath("/roles"), spec, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole deletes a guild role. Deleting a role that is already gone is
// not an error.
func (c *Client) DeleteRole(ctx context.Context, roleID string) error {
	err := c.do(ctx, http.MethodDelete, c.guildPath("/roles/"+url.PathEscape(roleID)), nil, nil)
	if isUnknown(err, codeUnknownRole) {
		return nil
	}
	return err
}

type messageCreate struct {
	Content         string          `json:"content"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

// SendMessage posts content to channelID with mentions disabled.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	body := messageCreate{Content: content, AllowedMentions: allowedMentions{Parse: []string{}}}
	return c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", body, nil)
}

// IsStaff reports whether member holds the staff role.
func (c *Client) IsStaff(member *models.GuildMember) bool {
	return c.staffRoleID != "" && member.HasRole(c.staffRoleID)
}

func (c *Client) guildPath(suffix string) string {
	return "/guilds/" + url.PathEscape(c.guildID) + suffix
}

func (c *Client) memberPath(userID string) string {
	return c.guildPath("/members/" + url.PathEscape(userID))
}

func (c *Client) memberRolePath(userID, roleID string) string {
	return c.memberPath(userID) + "/roles/" + url.PathEscape(roleID)
}

// do sends one API call, decoding the response into out when it is not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.doWithRateLimit(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// doWithRateLimit waits for the local limiter, then retries HTTP 429
// responses after the server supplied delay, falling back to exponential
// backoff.
func (c *Client) doWithRateLimit(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := c.newRequest(ctx, method, target, payload)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.HTTPRequests.WithLabelValues(metricsTarget, "error").Inc()
			return nil, fmt.Errorf("%s %s: %w", method, target, err)
		}
		metrics.HTTPRequests.WithLabelValues(metricsTarget, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		retryDelay := retryAfter(resp, c.baseDelay*(1<<attempt))
		resp.Body.Close()
		metrics.RateLimitWaits.WithLabelValues(metricsTarget).Inc()

		if attempt == c.maxRetries {
			return nil, fmt.Errorf("%s %s: rate limit exceeded after %d retries", method, target, c.maxRetries)
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_retries", c.maxRetries).Msg("Discord API rate limited (HTTP 429), retrying")

		timer := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}

func (c *Client) newRequest(ctx context.Context, method, target string, payload []byte) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(auditLogReason))
	}
	return req, nil
}

// retryAfter reads the Retry-After header (seconds, possibly fractional).
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return fallback
	}
	seconds, err := strconv.ParseFloat(v, 64)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		if jerr := json.Unmarshal(data, apiErr); jerr != nil {
			apiErr.Message = string(data)
		}
	}
	return apiErr
}

// isUnknown reports whether err is a 404 carrying one of codes.
func isUnknown(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		return false
	}
	if apiErr.Code == 0 {
		return true
	}
	for _, code := range codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}
