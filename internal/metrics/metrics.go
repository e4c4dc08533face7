// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package metrics holds the Prometheus collectors for Giftwise.
//
// Collectors are registered with the default registry through promauto and
// exposed by the API on /metrics. Callers use the Record* helpers rather than
// touching collectors directly so label sets stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "giftwise_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "giftwise_websocket_connections",
			Help: "Open WebSocket chat connections",
		},
	)

	// Dialogue metrics
	DialogueTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_dialogue_turns_total",
			Help: "Dialogue turns processed, by state before and after the turn",
		},
		[]string{"from_state", "to_state"},
	)

	DialogueTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giftwise_dialogue_turn_duration_seconds",
			Help:    "Time to process one dialogue turn",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	DialogueResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftwise_dialogue_resets_total",
			Help: "Explicit conversation resets",
		},
	)

	SessionStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_session_store_errors_total",
			Help: "Session store failures by operation",
		},
		[]string{"operation"},
	)

	// Recommendation metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_recommendations_total",
			Help: "Recommended products by source and confidence",
		},
		[]string{"source", "confidence"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_recommendation_fallbacks_total",
			Help: "Requests that used the tag fallback, by reason",
		},
		[]string{"reason"}, // insufficient, low_similarity, semantic_error
	)

	RecommendationEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftwise_recommendation_empty_total",
			Help: "Requests where neither semantic nor fallback search found products",
		},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giftwise_recommendation_duration_seconds",
			Help:    "Time to produce one recommendation page",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// Vector index metrics
	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "giftwise_vector_index_size",
			Help: "Products held by the active vector index snapshot",
		},
	)

	IndexRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_vector_index_rebuilds_total",
			Help: "Vector index rebuilds by result",
		},
		[]string{"result"}, // success, failure
	)

	IndexRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giftwise_vector_index_rebuild_duration_seconds",
			Help:    "Vector index rebuild duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexSkippedProducts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftwise_vector_index_skipped_products_total",
			Help: "Products left out of an index build because their embedding dimension did not match",
		},
	)

	// Embedding cache metrics
	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftwise_embedding_cache_hits_total",
			Help: "Query embeddings served from cache",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftwise_embedding_cache_misses_total",
			Help: "Query embeddings computed",
		},
	)

	// Intent classifier metrics
	IntentClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_intent_classifications_total",
			Help: "Intent classifications by backend and result",
		},
		[]string{"backend", "intent"},
	)

	IntentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_intent_fallbacks_total",
			Help: "Times the rule classifier answered for the remote classifier",
		},
		[]string{"reason"}, // timeout, error, unknown
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "giftwise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_events_published_total",
			Help: "Events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_events_consumed_total",
			Help: "Events consumed by topic and result",
		},
		[]string{"topic", "result"},
	)

	// Analytics metrics
	AnalyticsWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftwise_analytics_writes_total",
			Help: "Conversation turns written to DuckDB by result",
		},
		[]string{"result"},
	)
)

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTurn records one processed dialogue turn.
func RecordTurn(fromState, toState string, duration time.Duration) {
	DialogueTurns.WithLabelValues(fromState, toState).Inc()
	DialogueTurnDuration.Observe(duration.Seconds())
}

// RecordReset records an explicit conversation reset.
func RecordReset() {
	DialogueResets.Inc()
}

// RecordSessionStoreError records a failed session store operation.
func RecordSessionStoreError(operation string) {
	SessionStoreErrors.WithLabelValues(operation).Inc()
}

// RecordRecommendation records one returned product.
func RecordRecommendation(source, confidence string) {
	RecommendationsTotal.WithLabelValues(source, confidence).Inc()
}

// RecordRecommendationFallback records why the tag fallback ran.
func RecordRecommendationFallback(reason string) {
	RecommendationFallbacks.WithLabelValues(reason).Inc()
}

// RecordRecommendationEmpty records an empty result set.
func RecordRecommendationEmpty() {
	RecommendationEmpty.Inc()
}

// RecordRecommendationDuration records the time to build one page.
func RecordRecommendationDuration(duration time.Duration) {
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordIndexRebuild records a rebuild attempt and, on success, the new size.
func RecordIndexRebuild(size int, duration time.Duration, err error) {
	IndexRebuilds.WithLabelValues(resultLabel(err)).Inc()
	IndexRebuildDuration.Observe(duration.Seconds())
	if err == nil {
		IndexSize.Set(float64(size))
	}
}

// RecordIndexSkipped records products dropped from a build.
func RecordIndexSkipped(count int) {
	IndexSkippedProducts.Add(float64(count))
}

// RecordEmbeddingCache records a cache lookup.
func RecordEmbeddingCache(hit bool) {
	if hit {
		EmbeddingCacheHits.Inc()
		return
	}
	EmbeddingCacheMisses.Inc()
}

// RecordIntent records a classification answered by backend.
func RecordIntent(backend, intent string) {
	IntentClassifications.WithLabelValues(backend, intent).Inc()
}

// RecordIntentFallback records why the rule classifier was consulted.
func RecordIntentFallback(reason string) {
	IntentFallbacks.WithLabelValues(reason).Inc()
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordEventConsumed records a consumed event.
func RecordEventConsumed(topic string, err error) {
	EventsConsumed.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordAnalyticsWrite records a DuckDB turn write.
func RecordAnalyticsWrite(err error) {
	AnalyticsWrites.WithLabelValues(resultLabel(err)).Inc()
}
