// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/giftwise/internal/config"
	"github.com/tomtom215/giftwise/internal/intent"
)

const testCatalog = `[
  {"id": "RIN001", "name": "Platinum Solitaire", "category": "ring", "price": 2450,
   "occasion_tags": ["engagement"], "recipient_tags": ["partner"],
   "description": "A timeless platinum solitaire ring."},
  {"id": "NEC014", "name": "Rose Gold Locket", "category": "necklace", "price": 320.5,
   "occasion_tags": ["birthday"], "recipient_tags": ["mother"],
   "description": "Engraved heart locket."}
]`

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte(testCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("CATALOG_PATH", path)
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("EVENTS_BACKEND", "memory")
	t.Setenv("ANALYTICS_ENABLED", "false")
	t.Setenv("DISABLE_RATE_LIMIT", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestNewAppServesTurns(t *testing.T) {
	cfg := loadTestConfig(t)
	ctx := context.Background()

	a, err := newApp(ctx, cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	if err := a.indexReady(ctx); err == nil {
		t.Error("indexReady before the first build should fail")
	}
	if err := a.indexService.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := a.indexReady(ctx); err != nil {
		t.Errorf("indexReady after build: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message": ""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			SessionID    string `json:"session_id"`
			CurrentState string `json:"current_state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.SessionID == "" {
		t.Error("expected a session id")
	}
	if body.Data.CurrentState != "AWAITING_NAME" {
		t.Errorf("current_state = %q, want AWAITING_NAME", body.Data.CurrentState)
	}

	live := httptest.NewRecorder()
	a.router.ServeHTTP(live, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if live.Code != http.StatusOK {
		t.Errorf("/health/live status = %d", live.Code)
	}
}

func TestNewAppMissingCatalog(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "nope.json")

	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for a missing catalog file")
	}
}

func TestNewClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		remoteURL string
		wantPrim  bool
	}{
		{name: "rules only", remoteURL: "", wantPrim: false},
		{name: "remote in front", remoteURL: "http://127.0.0.1:9/classify", wantPrim: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{}
			cfg.Intent.RemoteURL = tt.remoteURL
			cfg.Intent.Timeout = 100 * time.Millisecond

			c, err := newClassifier(cfg)
			if err != nil {
				t.Fatalf("newClassifier: %v", err)
			}
			fc, ok := c.(*intent.FallbackClassifier)
			if !ok {
				t.Fatalf("classifier type = %T", c)
			}
			if (fc.Primary != nil) != tt.wantPrim {
				t.Errorf("primary set = %v, want %v", fc.Primary != nil, tt.wantPrim)
			}
		})
	}
}

func TestRecommendConfigValidates(t *testing.T) {
	cfg := loadTestConfig(t)
	if err := recommendConfig(cfg).Validate(); err != nil {
		t.Errorf("recommendConfig from defaults is invalid: %v", err)
	}
}
