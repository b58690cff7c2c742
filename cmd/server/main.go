// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/rollcall/internal/api"
	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/discord"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/supervisor"
	"github.com/tomtom215/rollcall/internal/supervisor/services"
	"github.com/tomtom215/rollcall/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("api_url", cfg.API.URL).
		Str("guild_id", cfg.Discord.GuildID).
		Bool("team_roles", cfg.Roles.TeamRolesEnabled).
		Bool("announce", cfg.Announce.Enabled).
		Dur("sync_interval", cfg.Sync.Interval).
		Msg("Starting Rollcall")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}

	if missing := app.reconciler.VerifyRoles(ctx); len(missing) > 0 {
		logging.Warn().Strs("roles", missing).Msg("Configured roles not found in guild; those steps will fail")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	app.register(tree)

	if cfg.Sync.SyncOnStartup {
		app.manager.TriggerSync()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Rollcall stopped")
}

// app holds the wired components.
type app struct {
	cfg        *config.Config
	reconciler *sync.Reconciler
	manager    *sync.Manager
	scheduler  *sync.Scheduler
	connector  *sync.RegistrantWebSocketClient
	server     *http.Server
}

func newApp(cfg *config.Config) (*app, error) {
	registrants := sync.NewRegistrantClient(&cfg.API)
	guarded := sync.NewCircuitBreakerClient(registrants)
	guild := discord.NewClient(&cfg.Discord, cfg.Roles.Staff)

	cache := sync.NewCache()
	reconciler := sync.NewReconciler(guild, guarded, cache, reconcilerConfig(cfg))
	manager := sync.NewManager(cache, guarded, reconciler, cfg.Sync.QueueSize)
	scheduler := sync.NewScheduler(manager, cfg.Sync.Interval)

	wsURL, err := registrants.WebSocketURL()
	if err != nil {
		return nil, err
	}
	connector := sync.NewRegistrantWebSocketClient(wsURL, registrants.AuthHeader(), cfg.API.PingInterval)
	connector.SetCallbacks(manager.OnConnectorOpen, manager.HandleFrame)

	a := &app{
		cfg:        cfg,
		reconciler: reconciler,
		manager:    manager,
		scheduler:  scheduler,
		connector:  connector,
	}
	if cfg.Server.Enabled {
		handler := api.NewHandler(api.Dependencies{
			Cache:     cache,
			Inspector: sync.NewInspector(cache, guarded),
			Engine:    manager,
			Scheduler: scheduler,
			Connector: connector,
			TeamRoles: reconciler,
		})
		a.server = newHTTPServer(&cfg.Server, api.NewRouter(handler, &cfg.Server).Setup())
	}
	return a, nil
}

func (a *app) register(tree *supervisor.SupervisorTree) {
	tree.AddEngineService(services.NewRunnerService("sync-engine", a.manager))
	tree.AddEngineService(services.NewRunnerService("scheduler", a.scheduler))
	tree.AddTransportService(services.NewRunnerService("registrant-ws", a.connector))
	if a.server != nil {
		tree.AddAPIService(services.NewHTTPServerService(a.server, services.DefaultShutdownTimeout))
		logging.Info().Str("addr", a.server.Addr).Msg("Admin API enabled")
	}
}

func reconcilerConfig(cfg *config.Config) sync.ReconcilerConfig {
	return sync.ReconcilerConfig{
		Roles: sync.RoleIDs{
			Registrant: cfg.Roles.Registrant,
			Organizer:  cfg.Roles.Organizer,
			Player:     cfg.Roles.Player,
			Captain:    cfg.Roles.Captain,
		},
		TeamRolesEnabled:  cfg.Roles.TeamRolesEnabled,
		AnnounceEnabled:   cfg.Announce.Enabled,
		AnnounceChannelID: cfg.Announce.ChannelID,
	}
}

// newHTTPServer leaves WriteTimeout unset: a forced full sync holds the
// response open for the whole pass and is bounded by the request context.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Timeout,
		IdleTimeout:       60 * time.Second,
	}
}
