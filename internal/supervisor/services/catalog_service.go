// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/events"
)

// CatalogPublisher announces catalog changes. *events.Bus satisfies it.
type CatalogPublisher interface {
	PublishCatalogChanged(ctx context.Context, e events.CatalogChanged) error
}

// CatalogWatchService polls the catalog source and announces changes. With
// no publisher it calls onChange directly.
type CatalogWatchService struct {
	reloader  CatalogReloader
	catalog   catalog.Catalog
	source    string
	interval  time.Duration
	publisher CatalogPublisher
	onChange  func()
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCatalogWatchService creates the watcher. source names the catalog in
// events, typically the file path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogWatchService(reloader CatalogReloader, cat catalog.Catalog, source string, interval time.Duration,
	publisher CatalogPublisher, onChange func(), logger zerolog.Logger) *CatalogWatchService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CatalogWatchService{
		reloader:  reloader,
		catalog:   cat,
		source:    source,
		interval:  interval,
		publisher: publisher,
		onChange:  onChange,
		now:       time.Now,
		logger:    logger.With().Str("service", "catalog-watch").Logger(),
	}
}

// Serve implements suture.Service.
func (s *CatalogWatchService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Str("source", s.source).Dur("interval", s.interval).Msg("catalog watcher starting")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll checks the source once and reports whether it changed.
func (s *CatalogWatchService) Poll(ctx context.Context) bool {
	changed, err := s.reloader.Reload(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog reload failed; keeping previous snapshot")
		return false
	}
	if !changed {
		return false
	}

	count := 0
	if products, err := s.catalog.ListAll(ctx); err == nil {
		count = len(products)
	}

	if s.publisher != nil {
		err := s.publisher.PublishCatalogChanged(ctx, events.CatalogChanged{
			Source:    s.source,
			Products:  count,
			Timestamp: s.now().UTC(),
		})
		if err == nil {
			return true
		}
		s.logger.Warn().Err(err).Msg("failed to publish catalog change; rebuilding locally")
	}
	if s.onChange != nil {
		s.onChange()
	}
	return true
}

// String implements fmt.Stringer.
func (s *CatalogWatchService) String() string {
	return "catalog-watch"
}
