// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/tomtom215/giftwise/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// HealthLive handles GET /health/live; it only proves the process serves.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, HealthStatus{Status: "ok", UptimeSeconds: h.uptime()}, time.Time{})
}

// Health handles GET /health and reports every dependency check. It always
// answers 200; "degraded" means at least one check failed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, _ := h.runChecks(r.Context())
	respondSuccess(w, r, status, time.Time{})
}

// HealthReady handles GET /health/ready: 503 while any check fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status, healthy := h.runChecks(r.Context())
	if !healthy {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     status,
			Metadata: metadataFor(r, time.Time{}),
			Error:    &models.APIError{Code: models.CodeServiceUnavailable, Message: "Service not ready"},
		})
		return
	}
	respondSuccess(w, r, status, time.Time{})
}

func (h *Handler) runChecks(ctx context.Context) (HealthStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{Status: "ok", UptimeSeconds: h.uptime(), Checks: make(map[string]string)}
	healthy := true

	names := make([]string, 0, len(h.deps.HealthChecks))
	for name := range h.deps.HealthChecks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := h.deps.HealthChecks[name](ctx); err != nil {
			status.Checks[name] = err.Error()
			healthy = false
			continue
		}
		status.Checks[name] = "ok"
	}
	if !healthy {
		status.Status = "degraded"
	}
	return status, healthy
}

func (h *Handler) uptime() int64 {
	return int64(time.Since(h.startTime).Seconds())
}
