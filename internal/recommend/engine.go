// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// Fallback reasons reported in Response.FallbackReason and metrics.
const (
	ReasonNoQuery       = "no_query"
	ReasonSemanticError = "semantic_error"
	ReasonTooFew        = "too_few_results"
	ReasonLowSimilarity = "low_similarity"
)

// Engine orchestrates the semantic and fallback recommenders.
// It is safe for concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	scorer   *Scorer
	semantic Recommender
	fallback Recommender

	requestCount     atomic.Int64
	fallbackCount    atomic.Int64
	semanticFailures atomic.Int64
	emptyCount       atomic.Int64
}

// NewEngine creates an engine. semantic may be nil, in which case every
// request is served by the fallback recommender.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, semantic, fallback Recommender, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if fallback == nil {
		return nil, errors.New("fallback recommender is required")
	}

	scorer, err := NewScorer(cfg.HighThreshold, cfg.MediumThreshold, cfg.StrongMatchTags)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:   cfg.Clone(),
		logger:   logger.With().Str("component", "recommend").Logger(),
		scorer:   scorer,
		semantic: semantic,
		fallback: fallback,
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Recommend returns one page of graded results. It does not fail when the
// semantic path is unavailable; only a failing fallback recommender is
// returned as an error, and even then any semantic results are kept.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)
	defer func() { metrics.RecordRecommendationDuration(time.Since(start)) }()

	req = e.prepareRequest(req)
	logger := logging.CtxWith(ctx).Str("component", "recommend").Logger()

	exclude := make(map[string]struct{}, len(req.Exclude))
	for _, id := range req.Exclude {
		exclude[id] = struct{}{}
	}
	need := req.Offset + req.K

	resp := &Response{}
	ranked, noQuery := e.runSemantic(ctx, req, exclude, resp, logger)

	reason := e.fallbackReason(ranked, need, noQuery, resp)
	var fallbackErr error
	if reason != "" {
		resp.UsedFallback = true
		resp.FallbackReason = reason
		e.fallbackCount.Add(1)
		metrics.RecordRecommendationFallback(reason)

		ranked, fallbackErr = e.appendFallback(ctx, req, ranked, exclude)
		if fallbackErr != nil {
			logger.Warn().Err(fallbackErr).Msg("fallback recommender failed")
		}
	}

	for i := range ranked {
		e.scorer.Grade(&ranked[i])
	}

	resp.Total = len(ranked)
	resp.Results = paginate(ranked, req.Offset, req.K)
	resp.NextOffset = req.Offset + len(resp.Results)
	resp.LatencyMS = time.Since(start).Milliseconds()

	for i := range resp.Results {
		metrics.RecordRecommendation(string(resp.Results[i].Source), string(resp.Results[i].Confidence))
	}
	if len(resp.Results) == 0 {
		e.emptyCount.Add(1)
		metrics.RecordRecommendationEmpty()
	}

	logger.Debug().
		Str("query", req.Query.Text()).
		Int("k", req.K).
		Int("offset", req.Offset).
		Int("excluded", len(exclude)).
		Int("returned", len(resp.Results)).
		Bool("fallback", resp.UsedFallback).
		Str("fallback_reason", resp.FallbackReason).
		Int64("latency_ms", resp.LatencyMS).
		Msg("recommendation complete")

	if fallbackErr != nil && len(resp.Results) == 0 {
		return resp, fmt.Errorf("fallback: %w", fallbackErr)
	}
	return resp, nil
}

// Stats returns the cumulative counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:         e.requestCount.Load(),
		Fallbacks:        e.fallbackCount.Load(),
		SemanticFailures: e.semanticFailures.Load(),
		EmptyResults:     e.emptyCount.Load(),
	}
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.K <= 0 {
		req.K = e.config.DefaultK
	}
	if req.K > e.config.MaxK {
		req.K = e.config.MaxK
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return req
}

// candidateCap returns M for a request: at least CandidateCap, and enough
// to cover the requested page after excluded ids are removed.
func (e *Engine) candidateCap(req *Request, excluded int) int {
	m := req.Offset + req.K + excluded
	if m < e.config.CandidateCap {
		m = e.config.CandidateCap
	}
	return m
}

// runSemantic runs the semantic recommender under the configured timeout
// and drops excluded ids. Errors are recorded on resp and yield no results;
// noQuery reports a query with nothing to embed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runSemantic(ctx context.Context, req Request, exclude map[string]struct{}, resp *Response, logger zerolog.Logger) (ranked []Result, noQuery bool) {
	if e.semantic == nil {
		resp.SemanticError = "semantic search disabled"
		return nil, false
	}

	semCtx, cancel := context.WithTimeout(ctx, e.config.SemanticTimeout)
	defer cancel()

	results, err := e.semantic.Recommend(semCtx, req.Query, e.candidateCap(&req, len(exclude)))
	if err != nil {
		if errors.Is(err, ErrNoQueryText) {
			return nil, true
		}
		e.semanticFailures.Add(1)
		resp.SemanticError = err.Error()
		logger.Warn().Err(err).Str("recommender", e.semantic.Name()).Msg("semantic search unavailable, using tag fallback")
		return nil, false
	}

	kept := results[:0]
	for _, r := range results {
		if _, skip := exclude[r.Product.ID]; skip {
			continue
		}
		kept = append(kept, r)
	}
	return kept, false
}

// fallbackReason decides whether the tag path is needed.
func (e *Engine) fallbackReason(semantic []Result, need int, noQuery bool, resp *Response) string {
	switch {
	case resp.SemanticError != "":
		return ReasonSemanticError
	case noQuery:
		return ReasonNoQuery
	case len(semantic) < need:
		return ReasonTooFew
	case semantic[0].Score < e.config.FallbackFloor:
		return ReasonLowSimilarity
	default:
		return ""
	}
}

// appendFallback appends tag results that are neither excluded nor already
// selected.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) appendFallback(ctx context.Context, req Request, ranked []Result, exclude map[string]struct{}) ([]Result, error) {
	// Ask for every match: dedup against the semantic page and exclusions
	// can discard an arbitrary number of them.
	extra, err := e.fallback.Recommend(ctx, req.Query, 0)
	if err != nil {
		return ranked, err
	}

	seen := make(map[string]struct{}, len(ranked)+len(extra))
	for i := range ranked {
		seen[ranked[i].Product.ID] = struct{}{}
	}
	for _, r := range extra {
		id := r.Product.ID
		if _, skip := exclude[id]; skip {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ranked = append(ranked, r)
	}
	return ranked, nil
}

func paginate(ranked []Result, offset, k int) []Result {
	if offset >= len(ranked) {
		return []Result{}
	}
	end := offset + k
	if end > len(ranked) {
		end = len(ranked)
	}
	page := make([]Result, end-offset)
	copy(page, ranked[offset:end])
	return page
}
