// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/validation"
)

// RegistrantFetcher fetches single records from the registration API.
// Implemented by RegistrantClient and CircuitBreakerClient.
type RegistrantFetcher interface {
	FetchRegistrant(ctx context.Context, search string, key models.LookupKey) (json.RawMessage, error)
}

// Inspection is the result of a single-record lookup.
type Inspection struct {
	Source string           `json:"source"` // "cache" or "api"
	Key    models.LookupKey `json:"key"`
	Record json.RawMessage  `json:"record"`
}

// Inspector looks up single registrants. Short lookups by Discord id are
// answered from the cache; everything else goes to the registration API.
// It only reads the cache and does not go through the job queue.
type Inspector struct {
	cache   *Cache
	fetcher RegistrantFetcher
}

// NewInspector creates an Inspector.
func NewInspector(cache *Cache, fetcher RegistrantFetcher) *Inspector {
	return &Inspector{cache: cache, fetcher: fetcher}
}

// Inspect finds the record for search under key. With full set the API's
// complete record is returned unchanged; otherwise the engine's view.
func (i *Inspector) Inspect(ctx context.Context, search string, key models.LookupKey, full bool) (*Inspection, error) {
	if !full && key == models.LookupByDiscord {
		if r, ok := i.cache.Get(search); ok {
			return inspection("cache", key, r)
		}
	}

	raw, err := i.fetcher.FetchRegistrant(ctx, search, key)
	if err != nil {
		if errors.Is(err, ErrRegistrantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if full {
		return &Inspection{Source: "api", Key: key, Record: raw}, nil
	}

	var p models.RegistrantPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: decode registrant: %w", ErrValidation, err)
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, verr.Error())
	}
	return inspection("api", key, p.Registrant())
}

func inspection(source string, key models.LookupKey, r models.Registrant) (*Inspection, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode registrant: %w", err)
	}
	return &Inspection{Source: source, Key: key, Record: data}, nil
}
