// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.Recommend.HighThreshold <= cfg.Recommend.MediumThreshold {
		t.Errorf("HighThreshold = %v, want > MediumThreshold %v", cfg.Recommend.HighThreshold, cfg.Recommend.MediumThreshold)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("Session.TTL = %v, want 1h", cfg.Session.TTL)
	}
	if cfg.Dialogue.HistoryLimit != 20 {
		t.Errorf("Dialogue.HistoryLimit = %d, want 20", cfg.Dialogue.HistoryLimit)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad environment", func(c *Config) { c.Server.Environment = "qa" }, "ENVIRONMENT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"missing catalog", func(c *Config) { c.Catalog.Path = " " }, "CATALOG_PATH"},
		{"tiny embedding", func(c *Config) { c.Embedding.Dimensions = 4 }, "EMBEDDING_DIMENSIONS"},
		{"medium zero", func(c *Config) { c.Recommend.MediumThreshold = 0 }, "MEDIUM_THRESHOLD"},
		{"high not above medium", func(c *Config) {
			c.Recommend.HighThreshold = 0.3
			c.Recommend.MediumThreshold = 0.3
		}, "HIGH_THRESHOLD"},
		{"high above one", func(c *Config) { c.Recommend.HighThreshold = 1.5 }, "HIGH_THRESHOLD"},
		{"max k below default", func(c *Config) { c.Recommend.MaxK = 1 }, "MAX_K"},
		{"candidate cap below k", func(c *Config) { c.Recommend.CandidateCap = 1 }, "CANDIDATE_CAP"},
		{"bad remote url", func(c *Config) { c.Intent.RemoteURL = "ftp://model" }, "INTENT_REMOTE_URL"},
		{"unknown session backend", func(c *Config) { c.Session.Backend = "redis" }, "SESSION_STORE"},
		{"badger without path", func(c *Config) {
			c.Session.Backend = "badger"
			c.Session.Path = ""
		}, "SESSION_STORE_PATH"},
		{"nats without url", func(c *Config) {
			c.Events.Backend = "nats"
			c.Events.NATSURL = ""
		}, "NATS_URL"},
		{"analytics without path", func(c *Config) {
			c.Analytics.Enabled = true
			c.Analytics.Path = ""
		}, "DUCKDB_PATH"},
		{"rate limit disabled skips checks", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"SESSION_STORE", "session.backend"},
		{"RECOMMEND_HIGH_THRESHOLD", "recommend.high_threshold"},
		{"NATS_URL", "events.nats_url"},
		{"DUCKDB_PATH", "analytics.path"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

// Tests below mutate the process environment and cannot run in parallel.

func TestLoadWithKoanfLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
recommend:
  default_k: 3
  high_threshold: 0.7
session:
  backend: badger
  path: ` + filepath.Join(dir, "sessions") + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("CORS_ORIGINS", "https://shop.example, https://kiosk.example")
	t.Setenv("CATALOG_PATH", filepath.Join(dir, "catalog.json"))

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191 (env beats file)", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultK != 3 {
		t.Errorf("Recommend.DefaultK = %d, want 3 from file", cfg.Recommend.DefaultK)
	}
	if cfg.Recommend.HighThreshold != 0.7 {
		t.Errorf("Recommend.HighThreshold = %v, want 0.7", cfg.Recommend.HighThreshold)
	}
	if cfg.Recommend.MediumThreshold != 0.35 {
		t.Errorf("Recommend.MediumThreshold = %v, want default 0.35", cfg.Recommend.MediumThreshold)
	}
	if cfg.Session.Backend != "badger" {
		t.Errorf("Session.Backend = %q, want badger", cfg.Session.Backend)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://kiosk.example" {
		t.Errorf("Security.CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanfRejectsInvalid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RECOMMEND_MEDIUM_THRESHOLD", "0.9")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("LoadWithKoanf() error = nil, want threshold validation error")
	}
}
