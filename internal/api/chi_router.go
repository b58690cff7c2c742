// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/rollcall/internal/config"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter builds a Router for the given server settings.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{
		handler:    handler,
		middleware: NewChiMiddleware(cfg),
	}
}

// Setup returns the admin HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())
	r.Use(PrometheusMetrics)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(router.middleware.AdminAuth)

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", router.handler.SyncStatus)
			r.Post("/", router.handler.ForceSync)
			r.Put("/interval", router.handler.SetSyncInterval)
		})

		r.Route("/registrants/{id}", func(r chi.Router) {
			r.Get("/", router.handler.GetRegistrant)
			r.Post("/sync", router.handler.SyncRegistrant)
			r.Delete("/organizer", router.handler.UnassignOrganizer)
		})

		r.Route("/teamroles", func(r chi.Router) {
			r.Get("/", router.handler.ListTeamRoles)
			r.Put("/", router.handler.SetTeamRoles)
			r.Delete("/", router.handler.DeleteTeamRoles)
			r.Post("/cleanup", router.handler.CleanupTeamRoles)
		})

		r.Route("/logging/level", func(r chi.Router) {
			r.Get("/", router.handler.GetLogLevel)
			r.Put("/", router.handler.SetLogLevel)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
