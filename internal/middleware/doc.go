// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

/*
Package middleware provides HTTP instrumentation shared by the API router.

Key Components:

  - PrometheusMetrics: request counters and latency histograms labelled by
    the chi route pattern, so /api/v1/products/{id} is one series rather than
    one per product.
  - LatencyTracker: a bounded in-memory window of recent request durations
    with per-route percentiles, served by the admin latency endpoint.

Both wrap the ResponseWriter with chi's WrapResponseWriter, which keeps
http.Hijacker available for the WebSocket upgrade.

Usage:

	tracker := middleware.NewLatencyTracker(1000, time.Second)
	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics)
	r.Use(tracker.Middleware)
*/
package middleware
