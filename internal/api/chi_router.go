// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/giftwise/internal/middleware"
	"github.com/tomtom215/giftwise/internal/models"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware config uses the defaults.
func NewRouter(handler *Handler, config *ChiMiddlewareConfig) *Router {
	return &Router{handler: handler, chiMiddleware: NewChiMiddleware(config)}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, models.CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, models.CodeValidation, "Method not allowed", nil)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		if router.handler.deps.Latency != nil {
			r.Use(router.handler.deps.Latency.Middleware)
		}

		r.Post("/chat", router.handler.Chat)
		r.Get("/chat/ws", router.handler.ChatWebSocket)
		r.Post("/sessions/reset", router.handler.ResetSession)
		r.Get("/products/{id}", router.handler.Product)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/index", router.handler.AdminIndex)
			r.Get("/analytics", router.handler.AdminAnalytics)
			r.Get("/analytics/sessions/{id}", router.handler.AdminSessionTurns)
			r.Get("/latency", router.handler.AdminLatency)
		})
	})

	return r
}
