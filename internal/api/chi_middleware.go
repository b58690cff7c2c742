// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
)

// ChiMiddleware builds the admin server's middleware from ServerConfig.
type ChiMiddleware struct {
	adminToken []byte

	corsOrigins       []string
	rateLimitRequests int
	rateLimitWindow   time.Duration
	rateLimitDisabled bool
}

// NewChiMiddleware copies the relevant server settings.
func NewChiMiddleware(cfg *config.ServerConfig) *ChiMiddleware {
	return &ChiMiddleware{
		adminToken:        []byte(cfg.AdminToken),
		corsOrigins:       cfg.CORSOrigins,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   cfg.RateLimitWindow,
		rateLimitDisabled: cfg.RateLimitDisabled,
	}
}

func passthrough(next http.Handler) http.Handler { return next }

// CORS allows the configured origins. With none configured no CORS headers
// are sent and browsers fall back to same-origin.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	if len(m.corsOrigins) == 0 {
		return passthrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// RateLimit limits admin requests per client IP.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.rateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(
		m.rateLimitRequests,
		m.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
		}),
	)
}

// AdminAuth requires "Authorization: Bearer <token>". With no token
// configured every admin request is refused.
func (m *ChiMiddleware) AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.adminToken) == 0 {
			respondError(w, r, http.StatusForbidden, codeForbidden, "Admin API disabled: no admin token configured", nil)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), m.adminToken) != 1 {
			logging.Ctx(r.Context()).Warn().
				Str("remote_addr", sanitizeLogValue(r.RemoteAddr)).
				Str("path", sanitizeLogValue(r.URL.Path)).
				Msg("Rejected admin request")
			respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "Missing or invalid admin token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDWithLogging puts request and correlation ids into the context
// before chi's RequestID middleware runs, so logging.Ctx picks them up.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(chimiddleware.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set(chimiddleware.RequestIDHeader, requestID)
			}
			w.Header().Set(chimiddleware.RequestIDHeader, requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)
			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrometheusMetrics counts requests by method, chi route pattern and status.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}
