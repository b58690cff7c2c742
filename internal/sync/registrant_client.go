// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
registrant_client.go - Registration API REST Client

Endpoints:
  - GET   {base}/registrants/                      first page of registrants
  - GET   {page.next}                              following pages (absolute URL)
  - GET   {base}/registrants/{search}/?key={key}   one record by discord or osu key
  - GET   {base}/registrants/{id}/                 one record by registration id
  - PATCH {base}/registrants/{id}/?key=discord     partial update keyed by Discord id

Every request carries "Authorization: Token <psk>". Any non-2xx status is a
failure, and 404 additionally wraps ErrRegistrantNotFound. Response bodies
of writes are ignored.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

// maxErrorBodySize bounds how much of an error response is kept for logging.
const maxErrorBodySize = 64 * 1024

// maxRecordSize bounds a single registrant record response.
const maxRecordSize = 1 << 20

// RegistrantClient talks to the registration API.
type RegistrantClient struct {
	baseURL string
	psk     string
	wsPath  string
	client  *http.Client
}

// NewRegistrantClient creates a client from configuration.
func NewRegistrantClient(cfg *config.APIConfig) *RegistrantClient {
	return &RegistrantClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		psk:     cfg.PSK,
		wsPath:  cfg.WSPath,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// AuthHeader returns the headers used to authenticate against the API,
// including the push channel handshake.
func (c *RegistrantClient) AuthHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Token "+c.psk)
	return h
}

// WebSocketURL derives the push channel URL from the API base URL:
// https becomes wss, http becomes ws, and the path is replaced by the
// configured push path.
func (c *RegistrantClient) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	u.Path = c.wsPath
	u.RawQuery = ""
	return u.String(), nil
}

// FirstPage fetches GET /registrants/.
func (c *RegistrantClient) FirstPage(ctx context.Context) (*models.RegistrantPage, error) {
	return c.fetchPage(ctx, c.baseURL+"/registrants/")
}

// NextPage fetches the page behind a next cursor. Relative cursors are
// resolved against the API base URL.
func (c *RegistrantClient) NextPage(ctx context.Context, next string) (*models.RegistrantPage, error) {
	target, err := c.resolve(next)
	if err != nil {
		return nil, err
	}
	return c.fetchPage(ctx, target)
}

// FetchRegistrant fetches one full record. The body is returned as sent by
// the API so fields the engine does not model are kept.
func (c *RegistrantClient) FetchRegistrant(ctx context.Context, search string, key models.LookupKey) (json.RawMessage, error) {
	target := fmt.Sprintf("%s/registrants/%s/", c.baseURL, url.PathEscape(search))
	if key != models.LookupByID {
		target += "?key=" + url.QueryEscape(string(key))
	}
	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxRecordSize))
	if err != nil {
		return nil, fmt.Errorf("read registrant: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: registrant response is not valid JSON", ErrValidation)
	}
	return json.RawMessage(data), nil
}

// UpdateOrganizer writes is_organizer for the registrant keyed by discordID.
func (c *RegistrantClient) UpdateOrganizer(ctx context.Context, discordID string, isOrganizer bool) error {
	return c.patchRegistrant(ctx, discordID, models.OrganizerUpdate{IsOrganizer: isOrganizer})
}

// UpdateStaff writes is_staff for the registrant keyed by discordID.
func (c *RegistrantClient) UpdateStaff(ctx context.Context, discordID string, isStaff bool) error {
	return c.patchRegistrant(ctx, discordID, models.StaffUpdate{IsStaff: isStaff})
}

func (c *RegistrantClient) fetchPage(ctx context.Context, pageURL string) (*models.RegistrantPage, error) {
	body, err := c.do(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var page models.RegistrantPage
	if err := json.NewDecoder(body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode registrant page: %w", err)
	}
	return &page, nil
}

func (c *RegistrantClient) patchRegistrant(ctx context.Context, discordID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode registrant update: %w", err)
	}
	target := fmt.Sprintf("%s/registrants/%s/?key=discord", c.baseURL, url.PathEscape(discordID))
	body, err := c.do(ctx, http.MethodPatch, target, data)
	if err != nil {
		return err
	}
	return body.Close()
}

// do executes a request and returns the body of a 2xx response.
func (c *RegistrantClient) do(ctx context.Context, method, target string, payload []byte) (io.ReadCloser, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.psk)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues("registration_api", "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	metrics.HTTPRequests.WithLabelValues("registration_api", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s failed with status %d: %s", ErrRegistrantNotFound, method, target, resp.StatusCode, readBodyForError(resp.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%s %s failed with status %d: %s", method, target, resp.StatusCode, readBodyForError(resp.Body))
	}
	return resp.Body, nil
}

func (c *RegistrantClient) resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse page cursor %q: %w", ref, err)
	}
	return base.ResolveReference(u).String(), nil
}

// readBodyForError reads at most maxErrorBodySize bytes of an error response.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}
