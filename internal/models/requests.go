// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package models

// ChatRequest is the body of POST /api/v1/chat and of WebSocket message
// frames. Message is a pointer so a missing field is distinguishable from an
// empty one: the former is rejected, the latter re-prompts.
type ChatRequest struct {
	SessionID *string `json:"session_id" validate:"omitempty,max=128"`
	Message   *string `json:"message" validate:"required,max=2000"`
}

// ResetRequest is the body of POST /api/v1/sessions/reset.
type ResetRequest struct {
	SessionID string `json:"session_id" validate:"required,sessionid"`
}

// WebSocket frame types.
const (
	FrameMessage = "message"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameReply   = "reply"
	FrameError   = "error"
)

// WSFrame is one WebSocket frame in either direction. Inbound frames carry
// SessionID and Message; outbound reply frames carry Data.
type WSFrame struct {
	Type      string      `json:"type"`
	SessionID *string     `json:"session_id,omitempty"`
	Message   *string     `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
}
