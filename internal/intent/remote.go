// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package intent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// maxResponseBytes bounds the classifier response body.
const maxResponseBytes = 64 << 10

// RemoteConfig configures the remote classifier and its circuit breaker.
type RemoteConfig struct {
	URL string

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open.
	OpenTimeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Intent string `json:"intent"`
}

// RemoteClassifier asks an HTTP model service to classify text.
//
// Request:  POST {URL} {"text": "..."}
// Response: 200 {"intent": "special" | "browsing" | "unknown"}
type RemoteClassifier struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[Intent]
	name   string
}

// NewRemoteClassifier creates a remote classifier. A nil client uses a
// default http.Client; request deadlines come from the caller's context.
func NewRemoteClassifier(cfg RemoteConfig, client *http.Client) (*RemoteClassifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("intent: remote classifier URL is required")
	}
	if client == nil {
		client = &http.Client{}
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}

	name := "intent-classifier"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	trip := cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[Intent](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &RemoteClassifier{url: cfg.URL, client: client, cb: cb, name: name}, nil
}

// Classify implements Classifier.
func (c *RemoteClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	intent, err := c.cb.Execute(func() (Intent, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
		}
		return Unknown, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	metrics.RecordIntent("remote", string(intent))
	return intent, nil
}

// State returns the breaker state name.
func (c *RemoteClassifier) State() string {
	return stateToString(c.cb.State())
}

func (c *RemoteClassifier) call(ctx context.Context, text string) (Intent, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return Unknown, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Unknown, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unknown, fmt.Errorf("classify request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Unknown, fmt.Errorf("classify request: unexpected status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return Unknown, fmt.Errorf("decode response: %w", err)
	}
	return ParseIntent(out.Intent)
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
