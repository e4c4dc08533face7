// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package middleware

import (
	"net/http"
	"slices"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/giftwise/internal/logging"
)

// RequestSample is one observed request.
type RequestSample struct {
	Route      string    `json:"route"`
	Method     string    `json:"method"`
	DurationMS int64     `json:"duration_ms"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// RouteLatency aggregates the samples of one route in the current window.
type RouteLatency struct {
	Route        string  `json:"route"`
	RequestCount int64   `json:"request_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	P99MS        int64   `json:"p99_ms"`
	MaxMS        int64   `json:"max_ms"`
}

// LatencyTracker keeps the last maxSamples requests.
type LatencyTracker struct {
	mu         sync.RWMutex
	samples    []RequestSample
	next       int
	full       bool
	slowAfter  time.Duration
	maxSamples int
}

// NewLatencyTracker creates a tracker. Requests slower than slowAfter are
// logged; zero disables the log.
func NewLatencyTracker(maxSamples int, slowAfter time.Duration) *LatencyTracker {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &LatencyTracker{
		samples:    make([]RequestSample, maxSamples),
		slowAfter:  slowAfter,
		maxSamples: maxSamples,
	}
}

// Record adds a sample, overwriting the oldest once the window is full.
func (lt *LatencyTracker) Record(s RequestSample) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.samples[lt.next] = s
	lt.next++
	if lt.next == lt.maxSamples {
		lt.next = 0
		lt.full = true
	}
}

func (lt *LatencyTracker) window() []RequestSample {
	if lt.full {
		return lt.samples
	}
	return lt.samples[:lt.next]
}

// Snapshot returns per-route statistics ordered by request count, then route.
func (lt *LatencyTracker) Snapshot() []RouteLatency {
	lt.mu.RLock()
	byRoute := make(map[string][]int64)
	for _, s := range lt.window() {
		key := s.Method + " " + s.Route
		byRoute[key] = append(byRoute[key], s.DurationMS)
	}
	lt.mu.RUnlock()

	stats := make([]RouteLatency, 0, len(byRoute))
	for route, durations := range byRoute {
		slices.Sort(durations)
		var sum int64
		for _, d := range durations {
			sum += d
		}
		stats = append(stats, RouteLatency{
			Route:        route,
			RequestCount: int64(len(durations)),
			AvgMS:        float64(sum) / float64(len(durations)),
			P50MS:        percentile(durations, 0.50),
			P95MS:        percentile(durations, 0.95),
			P99MS:        percentile(durations, 0.99),
			MaxMS:        durations[len(durations)-1],
		})
	}

	slices.SortFunc(stats, func(a, b RouteLatency) int {
		if a.RequestCount != b.RequestCount {
			if a.RequestCount > b.RequestCount {
				return -1
			}
			return 1
		}
		switch {
		case a.Route < b.Route:
			return -1
		case a.Route > b.Route:
			return 1
		}
		return 0
	})
	return stats
}

// Middleware records every request passing through it.
func (lt *LatencyTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := routePattern(r)
		lt.Record(RequestSample{
			Route:      route,
			Method:     r.Method,
			DurationMS: elapsed.Milliseconds(),
			StatusCode: statusOf(ww),
			Timestamp:  start,
		})

		if lt.slowAfter > 0 && elapsed > lt.slowAfter {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("Slow request detected")
		}
	})
}

// percentile reads the value at p from an ascending slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
