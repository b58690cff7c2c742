// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package metrics holds the Prometheus collectors for Rollcall. Collectors are
// registered with the default registry at init and served by the admin API at
// /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrant cache
	CacheRegistrants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollcall_cache_registrants",
			Help: "Number of registrant records currently cached",
		},
	)

	CacheRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_cache_rebuilds_total",
			Help: "Total number of full cache rebuilds",
		},
		[]string{"result"}, // "success", "failure"
	)

	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_registrant_pages_fetched_total",
			Help: "Total number of registrant pages fetched",
		},
		[]string{"result"},
	)

	// Reconciliation
	ReconcileMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_reconcile_mutations_total",
			Help: "Total number of remote mutations applied during reconciliation",
		},
		[]string{"attribute", "op"}, // op: "set", "add", "remove", "heal"
	)

	ReconcileFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_reconcile_failures_total",
			Help: "Total number of failed reconciliation steps",
		},
		[]string{"attribute"},
	)

	ReconcileSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_reconcile_skipped_total",
			Help: "Total number of records skipped during reconciliation",
		},
		[]string{"reason"}, // "member_not_found", "member_lookup_failed"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rollcall_sync_duration_seconds",
			Help:    "Duration of full reconciliation passes",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	LastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollcall_last_sync_timestamp_seconds",
			Help: "Unix time of the last completed full sync",
		},
	)

	// Push channel
	WSState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollcall_ws_state",
			Help: "Connector state (0=connecting, 1=open, 2=closing, 3=closed, 4=reconnect_wait)",
		},
	)

	WSReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rollcall_ws_reconnects_total",
			Help: "Total number of scheduled reconnects",
		},
	)

	WSMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_ws_messages_total",
			Help: "Total number of push messages received",
		},
		[]string{"action", "result"}, // result: "handled", "invalid", "failed"
	)

	// Engine job queue
	JobQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rollcall_job_queue_depth",
			Help: "Number of jobs waiting in the engine queue",
		},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_jobs_processed_total",
			Help: "Total number of engine jobs processed",
		},
		[]string{"kind", "result"},
	)

	// Outbound HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_outbound_requests_total",
			Help: "Total number of outbound HTTP requests",
		},
		[]string{"target", "status"},
	)

	RateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_rate_limit_waits_total",
			Help: "Total number of times a request waited on a rate limit",
		},
		[]string{"target"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Admin API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_api_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollcall_api_request_duration_seconds",
			Help:    "Admin API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest records one admin API request. route is the chi route
// pattern, not the raw path.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSyncPass records a completed full reconciliation pass.
func RecordSyncPass(duration time.Duration, completedAt time.Time) {
	SyncDuration.Observe(duration.Seconds())
	LastSyncTimestamp.Set(float64(completedAt.Unix()))
}

// RecordRebuild records a cache rebuild outcome and, on success, the new size.
func RecordRebuild(size int, err error) {
	if err != nil {
		CacheRebuilds.WithLabelValues("failure").Inc()
		return
	}
	CacheRebuilds.WithLabelValues("success").Inc()
	CacheRegistrants.Set(float64(size))
}

// RecordMutation counts one applied remote mutation.
func RecordMutation(attribute, op string) {
	ReconcileMutations.WithLabelValues(attribute, op).Inc()
}

// RecordReconcileFailure counts one failed reconciliation step.
func RecordReconcileFailure(attribute string) {
	ReconcileFailures.WithLabelValues(attribute).Inc()
}

// RecordPushMessage counts one push frame by action and result.
func RecordPushMessage(action, result string) {
	if action == "" {
		action = "unknown"
	}
	WSMessages.WithLabelValues(action, result).Inc()
}
