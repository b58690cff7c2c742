// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/validation"
)

// PageSource fetches raw registrant pages. Implemented by RegistrantClient and
// CircuitBreakerClient.
type PageSource interface {
	FirstPage(ctx context.Context) (*models.RegistrantPage, error)
	NextPage(ctx context.Context, next string) (*models.RegistrantPage, error)
}

// Pager walks the registrant listing one page per call. It does not retry;
// every failure is returned wrapped in ErrFetchFailed.
type Pager struct {
	source PageSource
}

// NewPager creates a pager over source.
func NewPager(source PageSource) *Pager {
	return &Pager{source: source}
}

// Open fetches the first page.
func (p *Pager) Open(ctx context.Context) (*models.RegistrantPage, error) {
	page, err := p.source.FirstPage(ctx)
	return p.check(page, err)
}

// Advance fetches the page after current, or returns ErrEndOfPages.
func (p *Pager) Advance(ctx context.Context, current *models.RegistrantPage) (*models.RegistrantPage, error) {
	if current == nil || !current.HasMore() {
		return nil, ErrEndOfPages
	}
	page, err := p.source.NextPage(ctx, *current.Next)
	return p.check(page, err)
}

func (p *Pager) check(page *models.RegistrantPage, err error) (*models.RegistrantPage, error) {
	if err != nil {
		metrics.PagesFetched.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if page == nil {
		metrics.PagesFetched.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: empty page response", ErrFetchFailed)
	}
	if verr := validation.ValidateStruct(page); verr != nil {
		metrics.PagesFetched.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w: %s", ErrFetchFailed, ErrValidation, verr.Error())
	}
	metrics.PagesFetched.WithLabelValues("success").Inc()
	return page, nil
}

// IsEndOfPages reports whether err marks the end of the listing.
func IsEndOfPages(err error) bool {
	return errors.Is(err, ErrEndOfPages)
}
