// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/giftwise/internal/analytics"
	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/dialogue"
	"github.com/tomtom215/giftwise/internal/middleware"
	"github.com/tomtom215/giftwise/internal/recommend"
	"github.com/tomtom215/giftwise/internal/vectorindex"
)

// Conversation is the dialogue surface the handlers drive.
// *dialogue.Machine satisfies it.
type Conversation interface {
	HandleTurn(ctx context.Context, req dialogue.TurnRequest) (*dialogue.TurnResponse, error)
	Reset(ctx context.Context, id string) error
	InFlight() int
}

// IndexStats reports the vector index snapshot.
type IndexStats interface {
	Stats() vectorindex.Stats
}

// EngineStats reports orchestrator counters.
type EngineStats interface {
	Stats() recommend.Stats
}

// AnalyticsReader answers the admin analytics endpoints.
// *analytics.Store satisfies it.
type AnalyticsReader interface {
	Summary(ctx context.Context, since time.Time) (*analytics.Summary, error)
	SessionTurns(ctx context.Context, sessionID string, limit int) ([]analytics.Turn, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HandlerConfig tunes request handling.
type HandlerConfig struct {
	// RequestTimeout bounds one turn, including waiting for the session lock.
	RequestTimeout time.Duration

	// AllowedOrigins for WebSocket upgrades; "*" allows any.
	AllowedOrigins []string

	// WSMessagesPerSecond and WSBurst throttle frames per connection.
	WSMessagesPerSecond float64
	WSBurst             int
}

// DefaultHandlerConfig returns production defaults.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		RequestTimeout:      10 * time.Second,
		WSMessagesPerSecond: 5,
		WSBurst:             10,
	}
}

// Deps are the collaborators of the handlers. Conversation and Catalog are
// required; the rest may be nil and their endpoints then answer 503.
type Deps struct {
	Conversation Conversation
	Catalog      catalog.Catalog
	Index        IndexStats
	Engine       EngineStats
	Analytics    AnalyticsReader
	Latency      *middleware.LatencyTracker
	HealthChecks map[string]HealthCheck
}

// Handler implements the HTTP endpoints.
type Handler struct {
	deps      Deps
	config    HandlerConfig
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewHandler validates deps and builds the handler.
func NewHandler(deps Deps, config HandlerConfig) (*Handler, error) {
	if deps.Conversation == nil {
		return nil, errors.New("api: conversation is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("api: catalog is required")
	}
	def := DefaultHandlerConfig()
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	if config.WSMessagesPerSecond <= 0 {
		config.WSMessagesPerSecond = def.WSMessagesPerSecond
	}
	if config.WSBurst <= 0 {
		config.WSBurst = def.WSBurst
	}

	h := &Handler{deps: deps, config: config, startTime: time.Now()}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h, nil
}
