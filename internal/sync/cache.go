// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

// Cache maps Discord ids to registrant records.
//
// Mutations come from the engine's job queue only. The read lock lets the
// admin API look at the cache while a job is running. Rebuild swaps the whole
// map at once, so readers see either the old or the new complete snapshot.
type Cache struct {
	mu        sync.RWMutex
	records   map[string]models.Registrant
	rebuiltAt time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]models.Registrant)}
}

// Get returns the record for id.
func (c *Cache) Get(id string) (models.Registrant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[id]
	return r, ok
}

// Set inserts or replaces r.
func (c *Cache) Set(r models.Registrant) {
	c.mu.Lock()
	c.records[r.DiscordID] = r
	size := len(c.records)
	c.mu.Unlock()
	metrics.CacheRegistrants.Set(float64(size))
}

// Delete removes id and reports whether it was present.
func (c *Cache) Delete(id string) bool {
	c.mu.Lock()
	_, ok := c.records[id]
	delete(c.records, id)
	size := len(c.records)
	c.mu.Unlock()
	metrics.CacheRegistrants.Set(float64(size))
	return ok
}

// Move re-keys the record stored under oldID to newID. The moved record is
// returned with its DiscordID updated. Nothing changes when oldID is absent.
func (c *Cache) Move(oldID, newID string) (models.Registrant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[oldID]
	if !ok {
		return models.Registrant{}, false
	}
	moved := r.WithDiscordID(newID)
	delete(c.records, oldID)
	c.records[newID] = moved
	return moved, true
}

// Snapshot returns a copy of all records ordered by id.
func (c *Cache) Snapshot() []models.Registrant {
	c.mu.RLock()
	out := make([]models.Registrant, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DiscordID < out[j].DiscordID })
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// RebuiltAt returns when the last successful rebuild finished.
func (c *Cache) RebuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rebuiltAt
}

// Rebuild refetches every page and replaces the cache in one swap. If any
// page fails the previous contents are kept and the error is returned.
func (c *Cache) Rebuild(ctx context.Context, pager *Pager) (int, error) {
	next, err := collectPages(ctx, pager)
	if err != nil {
		metrics.RecordRebuild(0, err)
		logging.Ctx(ctx).Warn().Err(err).Int("kept_records", c.Len()).Msg("Cache rebuild aborted, keeping previous cache")
		return 0, err
	}

	c.mu.Lock()
	c.records = next
	c.rebuiltAt = time.Now()
	c.mu.Unlock()

	metrics.RecordRebuild(len(next), nil)
	logging.Ctx(ctx).Info().Int("records", len(next)).Msg("Cache rebuilt")
	return len(next), nil
}

func collectPages(ctx context.Context, pager *Pager) (map[string]models.Registrant, error) {
	page, err := pager.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}

	records := make(map[string]models.Registrant, min(page.Count, 4096))
	seen := make(map[string]struct{})
	pageNum := 1
	for {
		for _, r := range page.Registrants() {
			records[r.DiscordID] = r
		}
		if !page.HasMore() {
			return records, nil
		}
		if _, dup := seen[*page.Next]; dup {
			return nil, fmt.Errorf("%w: page cursor loop at %s", ErrFetchFailed, *page.Next)
		}
		seen[*page.Next] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		pageNum++
		page, err = pager.Advance(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}
	}
}
