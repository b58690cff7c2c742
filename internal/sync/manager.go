// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
manager.go - Sync Engine Job Queue

The Manager owns the registrant cache and is the only place that mutates it.
Everything that changes state, whether a push message, a scheduled tick, a
forced sync or an admin operation, is submitted as a job and executed one at
a time by Serve.

Job kinds:
  - full_sync:  rebuild the cache from the listing, then reconcile every record
  - push:       apply one push message (register, delete, discord_switch, update)
  - sync_one:   reconcile one cached record
  - organizer:  demote an organizer on both sides
  - team_roles: list, deduplicate or delete team roles

Full syncs coalesce: while one is queued, further triggers are dropped.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

type jobKind string

const (
	jobFullSync  jobKind = "full_sync"
	jobPush      jobKind = "push"
	jobSyncOne   jobKind = "sync_one"
	jobOrganizer jobKind = "organizer"
	jobTeamRoles jobKind = "team_roles"
)

const defaultQueueSize = 256

type job struct {
	kind jobKind
	run  func(ctx context.Context) error
	done chan error // nil for fire-and-forget jobs
}

// Manager serialises all engine work on one goroutine.
type Manager struct {
	cache      *Cache
	pager      *Pager
	reconciler *Reconciler
	handlers   *PushHandlers

	jobs            chan job
	fullSyncPending atomic.Bool

	mu        sync.RWMutex
	lastSync  time.Time
	lastStats *models.SyncStats
}

// NewManager wires the engine around cache. source provides listing pages
// for rebuilds.
func NewManager(cache *Cache, source PageSource, reconciler *Reconciler, queueSize int) *Manager {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Manager{
		cache:      cache,
		pager:      NewPager(source),
		reconciler: reconciler,
		handlers:   NewPushHandlers(cache, reconciler),
		jobs:       make(chan job, queueSize),
	}
}

// Cache returns the registrant cache for read-only use.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Reconciler returns the reconciler.
func (m *Manager) Reconciler() *Reconciler {
	return m.reconciler
}

// Serve executes jobs until ctx is cancelled. Jobs still queued at that point
// are answered with ErrEngineStopped.
func (m *Manager) Serve(ctx context.Context) error {
	logging.Info().Int("queue_size", cap(m.jobs)).Msg("Sync engine started")
	for {
		select {
		case <-ctx.Done():
			m.drain()
			logging.Info().Msg("Sync engine stopped")
			return ctx.Err()
		case j := <-m.jobs:
			metrics.JobQueueDepth.Set(float64(len(m.jobs)))
			m.runJob(ctx, j)
		}
	}
}

func (m *Manager) runJob(ctx context.Context, j job) {
	jobCtx := logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job %s panicked: %v", j.kind, rec)
			}
		}()
		return j.run(jobCtx)
	}()

	result := "success"
	if err != nil {
		result = "failure"
		logging.Ctx(jobCtx).Warn().Err(err).Str("job", string(j.kind)).Msg("Sync job failed")
	} else {
		logging.Ctx(jobCtx).Debug().Str("job", string(j.kind)).Dur("duration", time.Since(start)).Msg("Sync job done")
	}
	metrics.JobsProcessed.WithLabelValues(string(j.kind), result).Inc()

	if j.done != nil {
		j.done <- err
	}
}

func (m *Manager) drain() {
	for {
		select {
		case j := <-m.jobs:
			if j.kind == jobFullSync {
				m.fullSyncPending.Store(false)
			}
			if j.done != nil {
				j.done <- ErrEngineStopped
			}
		default:
			metrics.JobQueueDepth.Set(0)
			return
		}
	}
}

// submit queues j, blocking while the queue is full, and waits for its result.
func (m *Manager) submit(ctx context.Context, kind jobKind, run func(ctx context.Context) error) error {
	j := job{kind: kind, run: run, done: make(chan error, 1)}
	select {
	case m.jobs <- j:
		metrics.JobQueueDepth.Set(float64(len(m.jobs)))
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue queues a fire-and-forget job without blocking.
func (m *Manager) enqueue(kind jobKind, run func(ctx context.Context) error) error {
	select {
	case m.jobs <- job{kind: kind, run: run}:
		metrics.JobQueueDepth.Set(float64(len(m.jobs)))
		return nil
	default:
		return ErrQueueFull
	}
}

// TriggerSync queues a full sync unless one is already pending. It reports
// whether a new job was queued.
func (m *Manager) TriggerSync() bool {
	if !m.fullSyncPending.CompareAndSwap(false, true) {
		return false
	}
	err := m.enqueue(jobFullSync, func(ctx context.Context) error {
		m.fullSyncPending.Store(false)
		_, err := m.fullSync(ctx)
		return err
	})
	if err != nil {
		m.fullSyncPending.Store(false)
		logging.Warn().Err(err).Msg("Could not queue full sync")
		return false
	}
	return true
}

// FullSync rebuilds the cache and reconciles every record, waiting for the
// result.
func (m *Manager) FullSync(ctx context.Context) (models.SyncStats, error) {
	var stats models.SyncStats
	err := m.submit(ctx, jobFullSync, func(ctx context.Context) error {
		var err error
		stats, err = m.fullSync(ctx)
		return err
	})
	if err != nil {
		return models.SyncStats{}, err
	}
	return stats, nil
}

// fullSync runs on the engine goroutine. A failed rebuild keeps the previous
// cache and skips reconciliation.
func (m *Manager) fullSync(ctx context.Context) (models.SyncStats, error) {
	if _, err := m.cache.Rebuild(ctx, m.pager); err != nil {
		return models.SyncStats{}, fmt.Errorf("rebuild cache: %w", err)
	}
	stats := m.reconciler.SyncAll(ctx)

	m.mu.Lock()
	m.lastSync = time.Now()
	m.lastStats = &stats
	m.mu.Unlock()
	return stats, nil
}

// LastSync returns when the last full sync finished and its stats. The stats
// are nil before the first one.
func (m *Manager) LastSync() (time.Time, *models.SyncStats) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastStats == nil {
		return m.lastSync, nil
	}
	stats := *m.lastStats
	return m.lastSync, &stats
}

// OnConnectorOpen queues a full sync after every (re)connect, so messages
// missed while disconnected are picked up from the listing.
func (m *Manager) OnConnectorOpen(ctx context.Context) {
	if m.TriggerSync() {
		logging.Ctx(ctx).Info().Msg("Push channel opened, full sync queued")
	}
}

// HandleFrame decodes a push frame and queues it. Frames are queued in
// arrival order; the call blocks while the queue is full. Malformed frames
// are logged and dropped.
func (m *Manager) HandleFrame(ctx context.Context, frame []byte) {
	msg, err := models.DecodePushMessage(frame)
	if err != nil {
		metrics.RecordPushMessage("", "invalid")
		logging.Ctx(ctx).Warn().Err(err).Int("bytes", len(frame)).Msg("Dropping malformed push frame")
		return
	}

	j := job{kind: jobPush, run: func(ctx context.Context) error {
		logging.Ctx(ctx).Debug().Str("action", string(msg.Action)).Msg("Applying push message")
		if err := m.handlers.Handle(ctx, msg); err != nil {
			return fmt.Errorf("push %s: %w", msg.Action, err)
		}
		return nil
	}}
	select {
	case m.jobs <- j:
		metrics.JobQueueDepth.Set(float64(len(m.jobs)))
	case <-ctx.Done():
	}
}

// SyncCached reconciles the cached record for discordID.
func (m *Manager) SyncCached(ctx context.Context, discordID string) (Outcome, error) {
	var out Outcome
	err := m.submit(ctx, jobSyncOne, func(ctx context.Context) error {
		r, ok := m.cache.Get(discordID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotCached, discordID)
		}
		out = m.reconciler.SyncOne(ctx, r, false)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// UnassignOrganizer removes organizer status from discordID in the
// registration API and the guild.
func (m *Manager) UnassignOrganizer(ctx context.Context, discordID string) (Outcome, error) {
	var out Outcome
	err := m.submit(ctx, jobOrganizer, func(ctx context.Context) error {
		var err error
		out, err = m.reconciler.UnassignOrganizer(ctx, discordID)
		return err
	})
	if err != nil && ctx.Err() != nil {
		// The job may still be running.
		return Outcome{}, err
	}
	return out, err
}

// TeamRoles lists the guild's team roles.
func (m *Manager) TeamRoles(ctx context.Context) ([]models.GuildRole, error) {
	var roles []models.GuildRole
	err := m.submit(ctx, jobTeamRoles, func(ctx context.Context) error {
		var err error
		roles, err = m.reconciler.TeamRoles(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// CleanupTeamRoles removes duplicate team roles.
func (m *Manager) CleanupTeamRoles(ctx context.Context) (int, error) {
	return m.countingJob(ctx, m.reconciler.CleanupTeamRoles)
}

// DeleteAllTeamRoles removes every team role.
func (m *Manager) DeleteAllTeamRoles(ctx context.Context) (int, error) {
	return m.countingJob(ctx, m.reconciler.DeleteAllTeamRoles)
}

func (m *Manager) countingJob(ctx context.Context, fn func(ctx context.Context) (int, error)) (int, error) {
	// Partial counts are reported alongside errors, so the job may still be
	// writing when a cancelled caller reads.
	var n atomic.Int64
	err := m.submit(ctx, jobTeamRoles, func(ctx context.Context) error {
		count, err := fn(ctx)
		n.Store(int64(count))
		return err
	})
	return int(n.Load()), err
}

// IsNotCached reports whether err means the record was not in the cache.
func IsNotCached(err error) bool {
	return errors.Is(err, ErrNotCached)
}
