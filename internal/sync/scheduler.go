// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

// SyncRunner is the part of the Manager the scheduler drives.
type SyncRunner interface {
	TriggerSync() bool
	FullSync(ctx context.Context) (models.SyncStats, error)
}

// Scheduler triggers a full sync every interval. The interval can be changed
// at runtime; the running ticker is reset in place.
type Scheduler struct {
	runner SyncRunner

	mu       sync.Mutex
	interval time.Duration
	nextRun  time.Time
	reset    chan time.Duration
}

// NewScheduler creates a scheduler. Intervals below config.MinSyncInterval
// are raised to it.
func NewScheduler(runner SyncRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: max(interval, config.MinSyncInterval),
		reset:    make(chan time.Duration, 1),
	}
}

// Serve ticks until ctx is cancelled.
func (s *Scheduler) Serve(ctx context.Context) error {
	interval := s.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.setNextRun(time.Now().Add(interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-s.reset:
			interval = d
			ticker.Reset(d)
			s.setNextRun(time.Now().Add(d))
			logging.Info().Dur("interval", d).Msg("Sync interval changed")
		case <-ticker.C:
			s.setNextRun(time.Now().Add(interval))
			if !s.runner.TriggerSync() {
				logging.Debug().Msg("Scheduled sync skipped, one is already pending")
			}
		}
	}
}

// SetInterval replaces the sync interval.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d < config.MinSyncInterval {
		return fmt.Errorf("sync interval %s is below the minimum of %s", d, config.MinSyncInterval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	// Only the latest value matters.
	select {
	case <-s.reset:
	default:
	}
	s.reset <- d
	return nil
}

// Interval returns the configured interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// NextRun returns when the next tick is due, or the zero time before Serve
// has started.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	s.nextRun = t
	s.mu.Unlock()
}

// ForceSync runs a full sync now and waits for it.
func (s *Scheduler) ForceSync(ctx context.Context) (models.SyncStats, error) {
	logging.Ctx(ctx).Info().Msg("Forced full sync requested")
	return s.runner.FullSync(ctx)
}
