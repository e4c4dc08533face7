// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
	"github.com/tomtom215/giftwise/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 16
)

// ChatWebSocket handles GET /api/v1/chat/ws. Each inbound "message" frame is
// one turn; the connection remembers the last session id so clients may omit
// it after the first reply.
func (h *Handler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &chatConn{
		h:       h,
		conn:    conn,
		send:    make(chan models.WSFrame, sendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.config.WSMessagesPerSecond), h.config.WSBurst),
		logger:  logging.CtxWith(ctx).Str("component", "websocket").Logger(),
	}
	go c.writePump(ctx)
	c.readPump(ctx)

	cancel()
	<-c.done
}

type chatConn struct {
	h         *Handler
	conn      *websocket.Conn
	send      chan models.WSFrame
	done      chan struct{}
	limiter   *rate.Limiter
	logger    zerolog.Logger
	sessionID string
}

// readPump processes frames until the peer goes away or stops answering
// pings. Turns run inline, so a connection has at most one turn in flight.
func (c *chatConn) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		if !c.handleFrame(ctx, data) {
			return
		}
	}
}

// handleFrame processes one inbound frame and reports whether the
// connection should stay open.
func (c *chatConn) handleFrame(ctx context.Context, data []byte) bool {
	var frame models.WSFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return c.enqueue(errorFrame(models.CodeValidation, "Invalid JSON frame"))
	}

	switch frame.Type {
	case models.FramePing:
		return c.enqueue(models.WSFrame{Type: models.FramePong})

	case models.FrameMessage, "":
		if !c.limiter.Allow() {
			return c.enqueue(errorFrame(models.CodeRateLimited, "Too many messages, slow down"))
		}

		req := models.ChatRequest{SessionID: frame.SessionID, Message: frame.Message}
		if req.SessionID == nil && c.sessionID != "" {
			id := c.sessionID
			req.SessionID = &id
		}
		if apiErr := validateRequest(&req); apiErr != nil {
			return c.enqueue(models.WSFrame{Type: models.FrameError, Error: apiErr})
		}

		resp, err := c.h.turn(ctx, &req)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			c.logger.Warn().Err(err).Msg("WebSocket turn failed")
			return c.enqueue(errorFrame(models.CodeServiceUnavailable, "The conversation is busy, please retry"))
		}
		c.sessionID = resp.SessionID
		return c.enqueue(models.WSFrame{Type: models.FrameReply, Data: resp})

	default:
		return c.enqueue(errorFrame(models.CodeValidation, "Unknown frame type "+frame.Type))
	}
}

// enqueue hands a frame to the writer; false means the writer is gone.
func (c *chatConn) enqueue(frame models.WSFrame) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	}
}

func (c *chatConn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// Unblocks readPump when the peer stopped answering.
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case frame := <-c.send:
			data, err := json.Marshal(frame)
			if err != nil {
				c.logger.Error().Err(err).Msg("failed to marshal websocket frame")
				continue
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("failed to write websocket frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorFrame(code, message string) models.WSFrame {
	return models.WSFrame{Type: models.FrameError, Error: &models.APIError{Code: code, Message: message}}
}

// checkWebSocketOrigin allows requests without an Origin header (non-browser
// clients), same-host origins, and configured origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.config.AllowedOrigins, "*") || slices.Contains(h.config.AllowedOrigins, origin) {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
