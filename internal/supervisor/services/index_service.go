// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/events"
	"github.com/tomtom215/giftwise/internal/metrics"
	"github.com/tomtom215/giftwise/internal/vectorindex"
)

// IndexBuilder publishes a new index snapshot. *vectorindex.Index
// satisfies it.
type IndexBuilder interface {
	Build(products []catalog.Product) vectorindex.Stats
}

// CatalogReloader re-reads a catalog source and reports whether it changed.
// *catalog.FileCatalog satisfies it.
type CatalogReloader interface {
	Reload(ctx context.Context) (bool, error)
}

// IndexServiceConfig holds configuration for the index rebuild service.
type IndexServiceConfig struct {
	// BuildOnStartup builds once before waiting for triggers.
	BuildOnStartup bool

	// RebuildInterval forces periodic rebuilds; zero disables the ticker.
	RebuildInterval time.Duration

	// MinRebuildGap is the minimum spacing between triggered rebuilds.
	// Triggers that arrive sooner coalesce into one rebuild.
	MinRebuildGap time.Duration
}

// IndexService keeps the vector index in step with the catalog. Rebuilds
// swap the index snapshot atomically, so queries never wait on them.
type IndexService struct {
	catalog  catalog.Catalog
	reloader CatalogReloader
	index    IndexBuilder
	config   IndexServiceConfig
	limiter  *rate.Limiter
	trigger  chan struct{}
	logger   zerolog.Logger
}

// NewIndexService creates the service. reloader may be nil when the catalog
// is static.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIndexService(cat catalog.Catalog, reloader CatalogReloader, index IndexBuilder, cfg IndexServiceConfig, logger zerolog.Logger) *IndexService {
	limit := rate.Inf
	if cfg.MinRebuildGap > 0 {
		limit = rate.Every(cfg.MinRebuildGap)
	}
	return &IndexService{
		catalog:  cat,
		reloader: reloader,
		index:    index,
		config:   cfg,
		limiter:  rate.NewLimiter(limit, 1),
		trigger:  make(chan struct{}, 1),
		logger:   logger.With().Str("service", "index").Logger(),
	}
}

// Trigger requests a rebuild without blocking. Pending requests coalesce.
func (s *IndexService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// CatalogChangedHandler returns an events handler that triggers a rebuild
// for each catalog-changed event.
func (s *IndexService) CatalogChangedHandler() events.HandlerFunc {
	return func(ctx context.Context, msg *message.Message) error {
		e, err := events.DecodeCatalogChanged(msg)
		if err != nil {
			return err
		}
		s.logger.Debug().Str("source", e.Source).Int("products", e.Products).Msg("catalog change received")
		s.Trigger()
		return nil
	}
}

// Serve implements suture.Service.
func (s *IndexService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("build_on_startup", s.config.BuildOnStartup).
		Dur("rebuild_interval", s.config.RebuildInterval).
		Dur("min_rebuild_gap", s.config.MinRebuildGap).
		Msg("index service starting")

	if s.config.BuildOnStartup {
		if err := s.Rebuild(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial index build failed (will retry on trigger)")
		}
	}

	var tick <-chan time.Time
	if s.config.RebuildInterval > 0 {
		ticker := time.NewTicker(s.config.RebuildInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("index service shutting down")
			return ctx.Err()

		case <-tick:
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled index rebuild failed")
			}

		case <-s.trigger:
			if err := s.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			// Triggers that arrived while waiting are served by this build.
			select {
			case <-s.trigger:
			default:
			}
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("triggered index rebuild failed")
			}
		}
	}
}

// Rebuild reloads the catalog when possible and rebuilds the index. A failed
// reload keeps the previous catalog snapshot and still rebuilds from it.
func (s *IndexService) Rebuild(ctx context.Context) error {
	start := time.Now()

	if s.reloader != nil {
		if _, err := s.reloader.Reload(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("catalog reload failed; indexing previous snapshot")
		}
	}

	products, err := s.catalog.ListAll(ctx)
	if err != nil {
		metrics.RecordIndexRebuild(0, time.Since(start), err)
		return fmt.Errorf("list catalog: %w", err)
	}

	stats := s.index.Build(products)
	s.logger.Debug().Int("size", stats.Size).Uint64("version", stats.Version).Msg("index rebuilt")
	return nil
}

// String implements fmt.Stringer.
func (s *IndexService) String() string {
	return "index-service"
}
