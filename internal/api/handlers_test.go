// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/giftwise/internal/analytics"
	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/dialogue"
	"github.com/tomtom215/giftwise/internal/middleware"
	"github.com/tomtom215/giftwise/internal/models"
	"github.com/tomtom215/giftwise/internal/recommend"
	"github.com/tomtom215/giftwise/internal/vectorindex"
)

// mockConversation echoes messages and records calls.
type mockConversation struct {
	mu       sync.Mutex
	requests []dialogue.TurnRequest
	resets   []string
	turnErr  error
	resetErr error
}

func (m *mockConversation) HandleTurn(_ context.Context, req dialogue.TurnRequest) (*dialogue.TurnResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.turnErr != nil {
		return nil, m.turnErr
	}

	id := "new-session"
	if req.SessionID != nil {
		id = *req.SessionID
	}
	return &dialogue.TurnResponse{
		SessionID:     id,
		Reply:         "echo: " + req.Message,
		Products:      []dialogue.ProductCard{},
		CurrentState:  dialogue.AwaitingIntent,
		ActionButtons: []dialogue.Button{{Label: "Something special", Value: dialogue.ValueSpecial}},
	}, nil
}

func (m *mockConversation) Reset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, id)
	return m.resetErr
}

func (m *mockConversation) InFlight() int { return 2 }

func (m *mockConversation) lastRequest(t *testing.T) dialogue.TurnRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("no turn requests recorded")
	}
	return m.requests[len(m.requests)-1]
}

type mockIndex struct{}

func (mockIndex) Stats() vectorindex.Stats {
	return vectorindex.Stats{Size: 7, Dimensions: 256, Built: true, Version: 3}
}

type mockEngine struct{}

func (mockEngine) Stats() recommend.Stats {
	return recommend.Stats{Requests: 10, Fallbacks: 2}
}

type mockAnalytics struct {
	since time.Time
	limit int
	err   error
}

func (m *mockAnalytics) Summary(_ context.Context, since time.Time) (*analytics.Summary, error) {
	m.since = since
	if m.err != nil {
		return nil, m.err
	}
	return &analytics.Summary{Since: since, Turns: 12, Sessions: 3}, nil
}

func (m *mockAnalytics) SessionTurns(_ context.Context, id string, limit int) ([]analytics.Turn, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return []analytics.Turn{{EventID: "e1", SessionID: id}}, nil
}

func testCatalog() *catalog.Static {
	return catalog.NewStatic([]catalog.Product{
		{ID: "NEC020", Name: "Pearl Pendant", Category: "necklace", Price: 420, Embedding: []float32{1, 0}},
	})
}

type testServer struct {
	conv      *mockConversation
	analytics *mockAnalytics
	handler   http.Handler
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	ts := &testServer{conv: &mockConversation{}, analytics: &mockAnalytics{}}
	deps := Deps{
		Conversation: ts.conv,
		Catalog:      testCatalog(),
		Index:        mockIndex{},
		Engine:       mockEngine{},
		Analytics:    ts.analytics,
		Latency:      middleware.NewLatencyTracker(100, 0),
	}
	if mutate != nil {
		mutate(&deps)
	}
	h, err := NewHandler(deps, HandlerConfig{RequestTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	ts.handler = NewRouter(h, cfg).SetupChi()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env models.APIResponse
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func dataAs(t *testing.T, env models.APIResponse, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestNewHandler_RequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(Deps{Catalog: testCatalog()}, HandlerConfig{}); err == nil {
		t.Error("expected error without conversation")
	}
	if _, err := NewHandler(Deps{Conversation: &mockConversation{}}, HandlerConfig{}); err == nil {
		t.Error("expected error without catalog")
	}
}

func TestChat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantReply  string
	}{
		{"first turn with null session", `{"session_id":null,"message":"hi_ai_assistant"}`, http.StatusOK, "", "echo: hi_ai_assistant"},
		{"existing session", `{"session_id":"abc-123","message":"Alex"}`, http.StatusOK, "", "echo: Alex"},
		{"empty message is a turn", `{"session_id":"abc-123","message":""}`, http.StatusOK, "", "echo: "},
		{"missing message", `{"session_id":"abc-123"}`, http.StatusBadRequest, models.CodeValidation, ""},
		{"null message", `{"message":null}`, http.StatusBadRequest, models.CodeValidation, ""},
		{"malformed json", `{"message":`, http.StatusBadRequest, models.CodeValidation, ""},
		{"empty body", ``, http.StatusBadRequest, models.CodeValidation, ""},
		{"message too long", `{"message":"` + strings.Repeat("a", 2001) + `"}`, http.StatusBadRequest, models.CodeValidation, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, nil)

			rec, env := ts.do(t, http.MethodPost, "/api/v1/chat", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
				}
				return
			}

			var resp dialogue.TurnResponse
			dataAs(t, env, &resp)
			if env.Status != "success" || resp.Reply != tt.wantReply {
				t.Errorf("envelope = %+v, reply = %q", env, resp.Reply)
			}
			if rec.Header().Get("Cache-Control") != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestChat_ResponseShape(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/chat", `{"session_id":null,"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var raw struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"session_id", "reply", "products", "current_state", "action_buttons", "end_conversation", "confidence_score"} {
		if _, ok := raw.Data[key]; !ok {
			t.Errorf("turn response missing %q", key)
		}
	}
	if string(raw.Data["confidence_score"]) != "null" {
		t.Errorf("confidence_score = %s, want null", raw.Data["confidence_score"])
	}

	if got := ts.conv.lastRequest(t); got.SessionID != nil || got.Message != "hello" {
		t.Errorf("forwarded request = %+v", got)
	}
}

func TestChat_ConversationBusy(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	ts.conv.turnErr = context.DeadlineExceeded

	rec, env := ts.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != models.CodeServiceUnavailable {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/chat", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestResetSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		resetErr   error
		wantStatus int
	}{
		{"valid", `{"session_id":"sess-1"}`, nil, http.StatusOK},
		{"missing id", `{}`, nil, http.StatusBadRequest},
		{"malformed id", `{"session_id":"bad id!"}`, nil, http.StatusBadRequest},
		{"store failure", `{"session_id":"sess-1"}`, errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, nil)
			ts.conv.resetErr = tt.resetErr

			rec, _ := ts.do(t, http.MethodPost, "/api/v1/sessions/reset", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestProduct(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/products/NEC020", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var p catalog.Product
	dataAs(t, env, &p)
	if p.ID != "NEC020" || p.Price != 420 {
		t.Errorf("product = %+v", p)
	}
	if len(p.Embedding) != 0 {
		t.Error("embedding leaked into the response")
	}

	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/NEC020", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	ts.handler.ServeHTTP(cached, req)
	if cached.Code != http.StatusNotModified {
		t.Errorf("conditional GET status = %d, want 304", cached.Code)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/products/NOPE", "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != models.CodeNotFound {
		t.Errorf("unknown product: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestAdminIndex(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/admin/index", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Index    vectorindex.Stats `json:"index"`
		Engine   recommend.Stats   `json:"engine"`
		InFlight int               `json:"in_flight_sessions"`
	}
	dataAs(t, env, &got)
	if got.Index.Size != 7 || got.Engine.Requests != 10 || got.InFlight != 2 {
		t.Errorf("index status = %+v", got)
	}
}

func TestAdminAnalytics(t *testing.T) {
	t.Parallel()

	t.Run("default window", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, nil)
		rec, env := ts.do(t, http.MethodGet, "/api/v1/admin/analytics", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var sum analytics.Summary
		dataAs(t, env, &sum)
		if sum.Turns != 12 {
			t.Errorf("summary = %+v", sum)
		}
		if age := time.Since(ts.analytics.since); age < 23*time.Hour || age > 25*time.Hour {
			t.Errorf("since = %v, want about 24h ago", ts.analytics.since)
		}
	})

	t.Run("explicit since", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, nil)
		rec, _ := ts.do(t, http.MethodGet, "/api/v1/admin/analytics?since=2026-05-01T00:00:00Z", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC); !ts.analytics.since.Equal(want) {
			t.Errorf("since = %v, want %v", ts.analytics.since, want)
		}
	})

	t.Run("invalid parameters", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, nil)
		for _, q := range []string{"?since=yesterday", "?hours=0", "?hours=abc", "?hours=100000"} {
			rec, _ := ts.do(t, http.MethodGet, "/api/v1/admin/analytics"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", q, rec.Code)
			}
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, func(d *Deps) { d.Analytics = nil })
		rec, _ := ts.do(t, http.MethodGet, "/api/v1/admin/analytics", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("session turns", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, nil)
		rec, env := ts.do(t, http.MethodGet, "/api/v1/admin/analytics/sessions/sess-9?limit=5", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var turns []analytics.Turn
		dataAs(t, env, &turns)
		if len(turns) != 1 || turns[0].SessionID != "sess-9" || ts.analytics.limit != 5 {
			t.Errorf("turns = %+v, limit = %d", turns, ts.analytics.limit)
		}
	})
}

func TestAdminLatency(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	ts.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/admin/latency", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats []middleware.RouteLatency
	dataAs(t, env, &stats)
	found := false
	for _, s := range stats {
		if s.Route == "POST /api/v1/chat" {
			found = true
		}
	}
	if !found {
		t.Errorf("latency stats = %+v, want POST /api/v1/chat", stats)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	failing := func(context.Context) error { return errors.New("index not built") }
	passing := func(context.Context) error { return nil }

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, func(d *Deps) { d.HealthChecks = map[string]HealthCheck{"index": passing} })
		for _, path := range []string{"/health", "/health/live", "/health/ready"} {
			rec, _ := ts.do(t, http.MethodGet, path, "")
			if rec.Code != http.StatusOK {
				t.Errorf("%s: status = %d", path, rec.Code)
			}
		}
	})

	t.Run("degraded", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, func(d *Deps) {
			d.HealthChecks = map[string]HealthCheck{"index": failing, "sessions": passing}
		})

		rec, env := ts.do(t, http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var status HealthStatus
		dataAs(t, env, &status)
		if status.Status != "degraded" || status.Checks["index"] != "index not built" || status.Checks["sessions"] != "ok" {
			t.Errorf("health = %+v", status)
		}

		rec, _ = ts.do(t, http.MethodGet, "/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("ready status = %d, want 503", rec.Code)
		}
		rec, _ = ts.do(t, http.MethodGet, "/health/live", "")
		if rec.Code != http.StatusOK {
			t.Errorf("live status = %d, want 200", rec.Code)
		}
	})
}

func TestRouter_NotFoundAndRequestID(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	ts.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "giftwise_api_requests_total") {
		t.Error("metrics output missing giftwise_api_requests_total")
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h, err := NewHandler(Deps{Conversation: &mockConversation{}, Catalog: testCatalog()}, HandlerConfig{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	router := NewRouter(h, cfg).SetupChi()

	var last *httptest.ResponseRecorder
	for range 3 {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/products/NEC020", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	var env models.APIResponse
	if err := json.Unmarshal(last.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Code != models.CodeRateLimited {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
