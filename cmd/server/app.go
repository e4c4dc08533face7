// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/analytics"
	"github.com/tomtom215/giftwise/internal/api"
	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/config"
	"github.com/tomtom215/giftwise/internal/dialogue"
	"github.com/tomtom215/giftwise/internal/embedding"
	"github.com/tomtom215/giftwise/internal/events"
	"github.com/tomtom215/giftwise/internal/intent"
	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/middleware"
	"github.com/tomtom215/giftwise/internal/recommend"
	"github.com/tomtom215/giftwise/internal/session"
	"github.com/tomtom215/giftwise/internal/supervisor"
	"github.com/tomtom215/giftwise/internal/supervisor/services"
	"github.com/tomtom215/giftwise/internal/vectorindex"
)

// Latency tracker sizing for /admin/latency.
const (
	latencySamples  = 10000
	slowRequestTime = 2 * time.Second
)

// app holds the long-lived components shared by the supervisor services
// and the HTTP handlers.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	catalog   *catalog.FileCatalog
	index     *vectorindex.Index
	sessions  *session.Factory
	bus       *events.Bus
	analytics *analytics.Store
	router    http.Handler

	indexService *services.IndexService
}

// newApp builds every component in dependency order. On error, anything
// already opened is closed.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logging.WithComponent("main")}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	embedder := embedding.NewCachedEmbedder(
		embedding.NewHashingEmbedder(cfg.Embedding.Dimensions),
		cfg.Embedding.CacheSize,
		cfg.Embedding.CacheTTL,
	)

	a.catalog = catalog.NewFileCatalog(cfg.Catalog.Path, embedder)
	if err = a.catalog.Load(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.logger.Info().Str("path", cfg.Catalog.Path).Int("products", a.catalog.Len()).Msg("Catalog loaded")

	a.index, err = vectorindex.New(embedder.Dimensions(), cfg.Index.SimilarityFloor)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	engine, err := recommend.NewEngine(
		recommendConfig(cfg),
		recommend.NewSemanticRecommender(embedder, a.index, a.catalog),
		recommend.NewTagRecommender(a.catalog),
		logging.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	a.sessions, err = session.NewFactory(session.Config{
		Backend: session.Backend(cfg.Session.Backend),
		Path:    cfg.Session.Path,
		TTL:     cfg.Session.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	a.bus, err = events.NewBus(events.Config{
		Backend:      events.Backend(cfg.Events.Backend),
		NATSURL:      cfg.Events.NATSURL,
		CatalogTopic: cfg.Events.CatalogTopic,
		TurnTopic:    cfg.Events.TurnTopic,
		QueueGroup:   cfg.Events.QueueGroup,
		DurableName:  cfg.Events.DurableName,
		BufferSize:   events.DefaultConfig().BufferSize,
	}, logging.NewWatermillLogger())
	if err != nil {
		return nil, fmt.Errorf("open event bus: %w", err)
	}

	if cfg.Analytics.Enabled {
		a.analytics, err = analytics.Open(analytics.Config{
			Path:      cfg.Analytics.Path,
			MaxMemory: cfg.Analytics.MaxMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("open analytics store: %w", err)
		}
		a.logger.Info().Str("path", cfg.Analytics.Path).Msg("Analytics store opened")
	}

	machine, err := dialogue.NewMachine(
		a.sessions.Store(),
		engine,
		a.catalog,
		classifier,
		dialogue.Config{HistoryLimit: cfg.Dialogue.HistoryLimit},
		logging.Logger(),
		dialogue.WithPublisher(a.bus),
	)
	if err != nil {
		return nil, fmt.Errorf("create dialogue machine: %w", err)
	}

	a.indexService = services.NewIndexService(a.catalog, a.catalog, a.index, services.IndexServiceConfig{
		BuildOnStartup:  true,
		RebuildInterval: cfg.Index.RebuildInterval,
		MinRebuildGap:   cfg.Index.MinRebuildGap,
	}, logging.Logger())

	deps := api.Deps{
		Conversation: machine,
		Catalog:      a.catalog,
		Index:        a.index,
		Engine:       engine,
		Latency:      middleware.NewLatencyTracker(latencySamples, slowRequestTime),
		HealthChecks: map[string]api.HealthCheck{
			"index": a.indexReady,
		},
	}
	if a.analytics != nil {
		deps.Analytics = a.analytics
		deps.HealthChecks["analytics"] = a.analytics.Ping
	}

	handlerCfg := api.DefaultHandlerConfig()
	handlerCfg.AllowedOrigins = cfg.Security.CORSOrigins
	handler, err := api.NewHandler(deps, handlerCfg)
	if err != nil {
		return nil, fmt.Errorf("create api handler: %w", err)
	}

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled
	a.router = api.NewRouter(handler, mwCfg).SetupChi()

	return a, nil
}

// addServices registers the background services with the supervisor tree.
func (a *app) addServices(tree *supervisor.SupervisorTree) {
	tree.AddDataService(a.indexService)

	if a.cfg.Catalog.ReloadInterval > 0 {
		tree.AddDataService(services.NewCatalogWatchService(
			a.catalog,
			a.catalog,
			a.cfg.Catalog.Path,
			a.cfg.Catalog.ReloadInterval,
			a.bus,
			a.indexService.Trigger,
			logging.Logger(),
		))
	}

	tree.AddDataService(services.NewSessionCleanupService(
		a.sessions.Store(),
		a.cfg.Session.CleanupInterval,
		logging.Logger(),
	))

	busCfg := a.bus.Config()
	tree.AddMessagingService(events.NewConsumer(
		"catalog-consumer", a.bus, busCfg.CatalogTopic, a.indexService.CatalogChangedHandler(),
	))
	if a.analytics != nil {
		tree.AddMessagingService(events.NewConsumer(
			"turn-consumer", a.bus, busCfg.TurnTopic, analytics.NewTurnHandler(a.analytics),
		))
	}
}

// indexReady fails until the first index build completes.
func (a *app) indexReady(context.Context) error {
	if !a.index.Stats().Built {
		return errors.New("vector index not built")
	}
	return nil
}

// Close releases the stores and the bus. It is safe on a partially built app.
func (a *app) Close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close event bus")
		}
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close session store")
		}
	}
	if a.analytics != nil {
		if err := a.analytics.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close analytics store")
		}
	}
}

func recommendConfig(cfg *config.Config) *recommend.Config {
	return &recommend.Config{
		DefaultK:        cfg.Recommend.DefaultK,
		MaxK:            cfg.Recommend.MaxK,
		CandidateCap:    cfg.Recommend.CandidateCap,
		FallbackFloor:   cfg.Recommend.FallbackFloor,
		HighThreshold:   cfg.Recommend.HighThreshold,
		MediumThreshold: cfg.Recommend.MediumThreshold,
		StrongMatchTags: cfg.Recommend.StrongMatchTags,
		SemanticTimeout: cfg.Recommend.SemanticTimeout,
	}
}

// newClassifier puts the remote classifier, when configured, in front of
// the rule classifier.
func newClassifier(cfg *config.Config) (intent.Classifier, error) {
	if cfg.Intent.RemoteURL == "" {
		return intent.NewFallbackClassifier(nil, 0), nil
	}
	remote, err := intent.NewRemoteClassifier(intent.RemoteConfig{
		URL:                 cfg.Intent.RemoteURL,
		MaxRequests:         cfg.Intent.BreakerMaxRequests,
		Interval:            cfg.Intent.BreakerInterval,
		OpenTimeout:         cfg.Intent.BreakerTimeout,
		ConsecutiveFailures: cfg.Intent.BreakerFailures,
	}, &http.Client{Timeout: cfg.Intent.Timeout})
	if err != nil {
		return nil, fmt.Errorf("create remote intent classifier: %w", err)
	}
	logging.Info().Str("url", cfg.Intent.RemoteURL).Msg("Remote intent classifier enabled")
	return intent.NewFallbackClassifier(remote, cfg.Intent.Timeout), nil
}
