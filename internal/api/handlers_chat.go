// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/giftwise/internal/dialogue"
	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/models"
)

// Chat handles POST /api/v1/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ChatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.turn(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable,
			"The conversation is busy, please retry", err)
		return
	}
	respondSuccess(w, r, resp, start)
}

// turn runs one validated request through the conversation.
func (h *Handler) turn(ctx context.Context, req *models.ChatRequest) (*dialogue.TurnResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.RequestTimeout)
	defer cancel()

	return h.deps.Conversation.HandleTurn(ctx, dialogue.TurnRequest{
		SessionID: req.SessionID,
		Message:   *req.Message,
	})
}

// ResetSession handles POST /api/v1/sessions/reset.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	var req models.ResetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	if err := h.deps.Conversation.Reset(ctx, req.SessionID); err != nil {
		respondError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to reset session", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("session_id", req.SessionID).Msg("Session reset")
	respondSuccess(w, r, map[string]interface{}{
		"session_id": req.SessionID,
		"reset":      true,
	}, time.Time{})
}
