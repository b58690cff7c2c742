// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"context"
	"time"

	"github.com/tomtom215/rollcall/internal/models"
	syncpkg "github.com/tomtom215/rollcall/internal/sync"
)

// RegistrantLookup reads the registrant cache. Satisfied by *sync.Cache.
type RegistrantLookup interface {
	Get(discordID string) (models.Registrant, bool)
	Len() int
}

// Engine runs work on the sync engine's queue. Satisfied by *sync.Manager.
type Engine interface {
	LastSync() (time.Time, *models.SyncStats)
	SyncCached(ctx context.Context, discordID string) (syncpkg.Outcome, error)
	UnassignOrganizer(ctx context.Context, discordID string) (syncpkg.Outcome, error)
	TeamRoles(ctx context.Context) ([]models.GuildRole, error)
	CleanupTeamRoles(ctx context.Context) (int, error)
	DeleteAllTeamRoles(ctx context.Context) (int, error)
}

// RegistrantInspector looks up single records by key. Satisfied by
// *sync.Inspector.
type RegistrantInspector interface {
	Inspect(ctx context.Context, search string, key models.LookupKey, full bool) (*syncpkg.Inspection, error)
}

// Scheduler controls the periodic full sync. Satisfied by *sync.Scheduler.
type Scheduler interface {
	Interval() time.Duration
	NextRun() time.Time
	SetInterval(d time.Duration) error
	ForceSync(ctx context.Context) (models.SyncStats, error)
}

// ConnectorStatus reports the push connector's state. Satisfied by
// *sync.RegistrantWebSocketClient.
type ConnectorStatus interface {
	State() syncpkg.ConnState
	Attempts() int
}

// TeamRoleSwitch toggles team-role management. Satisfied by
// *sync.Reconciler.
type TeamRoleSwitch interface {
	TeamRolesEnabled() bool
	SetTeamRolesEnabled(enabled bool)
}

// Dependencies are the components the handlers read and drive.
type Dependencies struct {
	Cache     RegistrantLookup
	Inspector RegistrantInspector
	Engine    Engine
	Scheduler Scheduler
	Connector ConnectorStatus
	TeamRoles TeamRoleSwitch
}

// Handler holds the admin API handlers.
//
// Handlers are split across files:
//   - handlers_health.go: liveness and readiness
//   - handlers_sync.go: status, forced sync, interval
//   - handlers_registrants.go: keyed lookup, single-record sync, organizer demotion
//   - handlers_teamroles.go: team-role toggle and cleanup
//   - handlers_logging.go: runtime log level
type Handler struct {
	cache     RegistrantLookup
	inspector RegistrantInspector
	engine    Engine
	scheduler Scheduler
	connector ConnectorStatus
	teamRoles TeamRoleSwitch
	startTime time.Time
}

// NewHandler builds a Handler. Connector may be nil when the push channel
// is disabled.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		cache:     deps.Cache,
		inspector: deps.Inspector,
		engine:    deps.Engine,
		scheduler: deps.Scheduler,
		connector: deps.Connector,
		teamRoles: deps.TeamRoles,
		startTime: time.Now(),
	}
}

func (h *Handler) connectorOpen() bool {
	return h.connector != nil && h.connector.State() == syncpkg.StateOpen
}
