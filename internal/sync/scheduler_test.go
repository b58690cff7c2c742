// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/rollcall/internal/models"
)

type fakeRunner struct {
	triggers   atomic.Int32
	fullSyncs  atomic.Int32
	fullResult models.SyncStats
}

func (f *fakeRunner) TriggerSync() bool {
	f.triggers.Add(1)
	return true
}

func (f *fakeRunner) FullSync(context.Context) (models.SyncStats, error) {
	f.fullSyncs.Add(1)
	return f.fullResult, nil
}

// fastScheduler bypasses the interval floor so tests can tick quickly.
func fastScheduler(t *testing.T, runner SyncRunner, interval time.Duration) *Scheduler {
	t.Helper()
	s := &Scheduler{runner: runner, interval: interval, reset: make(chan time.Duration, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func TestScheduler_Ticks(t *testing.T) {
	runner := &fakeRunner{}
	fastScheduler(t, runner, 20*time.Millisecond)

	waitFor(t, 2*time.Second, "two ticks", func() bool { return runner.triggers.Load() >= 2 })
}

func TestScheduler_SetIntervalResetsTicker(t *testing.T) {
	runner := &fakeRunner{}
	s := fastScheduler(t, runner, 20*time.Millisecond)
	waitFor(t, 2*time.Second, "first tick", func() bool { return runner.triggers.Load() >= 1 })

	checkNoError(t, s.SetInterval(time.Hour))

	waitFor(t, 2*time.Second, "next run pushed out", func() bool {
		return time.Until(s.NextRun()) > 59*time.Minute
	})
	settled := runner.triggers.Load()
	time.Sleep(100 * time.Millisecond)
	if got := runner.triggers.Load(); got != settled {
		t.Errorf("ticks continued after interval change: %d -> %d", settled, got)
	}
	if s.Interval() != time.Hour {
		t.Errorf("expected interval 1h, got %s", s.Interval())
	}
}

func TestScheduler_SetIntervalValidation(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, time.Minute)

	if err := s.SetInterval(5 * time.Second); err == nil {
		t.Error("expected error for interval below minimum")
	}
	checkNoError(t, s.SetInterval(10*time.Second))
	// A second change before Serve runs replaces the first.
	checkNoError(t, s.SetInterval(20*time.Second))
	checkIntEqual(t, "pending resets", len(s.reset), 1)
	if s.Interval() != 20*time.Second {
		t.Errorf("expected 20s, got %s", s.Interval())
	}
}

func TestNewScheduler_ClampsInterval(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, time.Second)
	if s.Interval() != 10*time.Second {
		t.Errorf("expected interval raised to 10s, got %s", s.Interval())
	}
	if !s.NextRun().IsZero() {
		t.Error("NextRun should be zero before Serve")
	}
}

func TestScheduler_ForceSync(t *testing.T) {
	runner := &fakeRunner{fullResult: models.SyncStats{Records: 3, Synced: 3}}
	s := NewScheduler(runner, time.Minute)

	stats, err := s.ForceSync(context.Background())
	checkNoError(t, err)

	checkIntEqual(t, "full syncs", int(runner.fullSyncs.Load()), 1)
	checkIntEqual(t, "synced", stats.Synced, 3)
}
