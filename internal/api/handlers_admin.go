// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/giftwise/internal/models"
	"github.com/tomtom215/giftwise/internal/validation"
)

const (
	defaultSummaryHours = 24
	maxSummaryHours     = 24 * 90
	defaultTurnLimit    = 50
	maxTurnLimit        = 500
)

// IndexStatus is the body of GET /api/v1/admin/index.
type IndexStatus struct {
	Index    interface{} `json:"index,omitempty"`
	Engine   interface{} `json:"engine,omitempty"`
	InFlight int         `json:"in_flight_sessions"`
}

// AdminIndex handles GET /api/v1/admin/index.
func (h *Handler) AdminIndex(w http.ResponseWriter, r *http.Request) {
	status := IndexStatus{InFlight: h.deps.Conversation.InFlight()}
	if h.deps.Index != nil {
		status.Index = h.deps.Index.Stats()
	}
	if h.deps.Engine != nil {
		status.Engine = h.deps.Engine.Stats()
	}
	respondSuccess(w, r, status, time.Time{})
}

// AdminAnalytics handles GET /api/v1/admin/analytics. The window is either
// ?since=<RFC3339> or ?hours=<n> (default 24).
func (h *Handler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	if h.deps.Analytics == nil {
		respondError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Analytics is disabled", nil)
		return
	}

	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	start := time.Now()
	summary, err := h.deps.Analytics.Summary(r.Context(), since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to query analytics", err)
		return
	}
	respondSuccess(w, r, summary, start)
}

// AdminSessionTurns handles GET /api/v1/admin/analytics/sessions/{id}.
func (h *Handler) AdminSessionTurns(w http.ResponseWriter, r *http.Request) {
	if h.deps.Analytics == nil {
		respondError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Analytics is disabled", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if !validation.IsSessionID(id) {
		respondError(w, http.StatusBadRequest, models.CodeValidation, "Invalid session id", nil)
		return
	}
	limit, ok := intParam(w, r, "limit", defaultTurnLimit, 1, maxTurnLimit)
	if !ok {
		return
	}

	start := time.Now()
	turns, err := h.deps.Analytics.SessionTurns(r.Context(), id, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to query session turns", err)
		return
	}
	respondSuccess(w, r, turns, start)
}

// AdminLatency handles GET /api/v1/admin/latency.
func (h *Handler) AdminLatency(w http.ResponseWriter, r *http.Request) {
	if h.deps.Latency == nil {
		respondError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Latency tracking is disabled", nil)
		return
	}
	respondSuccess(w, r, h.deps.Latency.Snapshot(), time.Time{})
}

func parseSince(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, models.CodeValidation, "since must be an RFC3339 timestamp", nil)
			return time.Time{}, false
		}
		return since, true
	}

	hours, ok := intParam(w, r, "hours", defaultSummaryHours, 1, maxSummaryHours)
	if !ok {
		return time.Time{}, false
	}
	return time.Now().Add(-time.Duration(hours) * time.Hour), true
}

// intParam reads an optional bounded integer query parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string, def, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		respondError(w, http.StatusBadRequest, models.CodeValidation,
			name+" must be an integer between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi), nil)
		return 0, false
	}
	return n, true
}
