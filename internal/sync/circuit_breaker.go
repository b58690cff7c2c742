// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

// registrantAPI is the subset of RegistrantClient guarded by the breaker.
type registrantAPI interface {
	FirstPage(ctx context.Context) (*models.RegistrantPage, error)
	NextPage(ctx context.Context, next string) (*models.RegistrantPage, error)
	FetchRegistrant(ctx context.Context, search string, key models.LookupKey) (json.RawMessage, error)
	UpdateOrganizer(ctx context.Context, discordID string, isOrganizer bool) error
	UpdateStaff(ctx context.Context, discordID string, isStaff bool) error
}

// CircuitBreakerClient wraps the registration API client with a circuit
// breaker so a failing API is not hammered by every sync pass.
//
// Settings:
//   - Max 3 requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
type CircuitBreakerClient struct {
	client registrantAPI
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client.
func NewCircuitBreakerClient(client registrantAPI) *CircuitBreakerClient {
	return newCircuitBreakerClient(client, "registration-api", 2*time.Minute)
}

func newCircuitBreakerClient(client registrantAPI, name string, openTimeout time.Duration) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     openTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// A cancelled caller or a missing record says nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrRegistrantNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", cbc.name).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// State returns the breaker state name.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) FirstPage(ctx context.Context) (*models.RegistrantPage, error) {
	return castResult[models.RegistrantPage](cbc.execute(func() (interface{}, error) {
		return cbc.client.FirstPage(ctx)
	}))
}

func (cbc *CircuitBreakerClient) NextPage(ctx context.Context, next string) (*models.RegistrantPage, error) {
	return castResult[models.RegistrantPage](cbc.execute(func() (interface{}, error) {
		return cbc.client.NextPage(ctx, next)
	}))
}

func (cbc *CircuitBreakerClient) FetchRegistrant(ctx context.Context, search string, key models.LookupKey) (json.RawMessage, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.FetchRegistrant(ctx, search, key)
	})
	if err != nil {
		return nil, err
	}
	raw, ok := result.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return raw, nil
}

func (cbc *CircuitBreakerClient) UpdateOrganizer(ctx context.Context, discordID string, isOrganizer bool) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.UpdateOrganizer(ctx, discordID, isOrganizer)
	})
	return err
}

func (cbc *CircuitBreakerClient) UpdateStaff(ctx context.Context, discordID string, isStaff bool) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.UpdateStaff(ctx, discordID, isStaff)
	})
	return err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
