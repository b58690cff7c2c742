// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package services

import (
	"context"

	"github.com/thejerf/suture/v4"
)

// Runner is a component that blocks in Serve until ctx is canceled.
//
// Satisfied by *sync.Manager, *sync.Scheduler and
// *sync.RegistrantWebSocketClient.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunnerService names a Runner for the supervisor.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
//
// A runner that returns nil while ctx is still live has finished for good
// and is not restarted.
func (r *RunnerService) Serve(ctx context.Context) error {
	err := r.runner.Serve(ctx)
	if err == nil && ctx.Err() == nil {
		return suture.ErrDoNotRestart
	}
	return err
}

// String implements fmt.Stringer for suture's logs.
func (r *RunnerService) String() string {
	return r.name
}
