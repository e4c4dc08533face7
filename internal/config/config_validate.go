// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
		c.validateCatalog,
		c.validateEmbedding,
		c.validateRecommend,
		c.validateIntent,
		c.validateSession,
		c.validateEvents,
		c.validateAnalytics,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.Catalog.ReloadInterval < 0 {
		return fmt.Errorf("CATALOG_RELOAD_INTERVAL cannot be negative")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Dimensions < 8 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be at least 8, got %d", c.Embedding.Dimensions)
	}
	if c.Index.SimilarityFloor < -1 || c.Index.SimilarityFloor > 1 {
		return fmt.Errorf("INDEX_SIMILARITY_FLOOR must be within [-1, 1], got %g", c.Index.SimilarityFloor)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultK <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_K must be positive, got %d", r.DefaultK)
	}
	if r.MaxK < r.DefaultK {
		return fmt.Errorf("RECOMMEND_MAX_K (%d) must be >= RECOMMEND_DEFAULT_K (%d)", r.MaxK, r.DefaultK)
	}
	if r.CandidateCap < r.DefaultK {
		return fmt.Errorf("RECOMMEND_CANDIDATE_CAP (%d) must be >= RECOMMEND_DEFAULT_K (%d)", r.CandidateCap, r.DefaultK)
	}
	if r.MediumThreshold <= 0 {
		return fmt.Errorf("RECOMMEND_MEDIUM_THRESHOLD must be > 0, got %g", r.MediumThreshold)
	}
	if r.HighThreshold <= r.MediumThreshold || r.HighThreshold > 1 {
		return fmt.Errorf("RECOMMEND_HIGH_THRESHOLD must be in (%g, 1], got %g", r.MediumThreshold, r.HighThreshold)
	}
	if r.StrongMatchTags < 1 {
		return fmt.Errorf("RECOMMEND_STRONG_MATCH_TAGS must be at least 1, got %d", r.StrongMatchTags)
	}
	if r.SemanticTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_SEMANTIC_TIMEOUT must be positive")
	}
	if c.Dialogue.HistoryLimit <= 0 {
		return fmt.Errorf("DIALOGUE_HISTORY_LIMIT must be positive, got %d", c.Dialogue.HistoryLimit)
	}
	return nil
}

func (c *Config) validateIntent() error {
	if c.Intent.Timeout <= 0 {
		return fmt.Errorf("INTENT_TIMEOUT must be positive")
	}
	if c.Intent.RemoteURL == "" {
		return nil
	}
	u, err := url.Parse(c.Intent.RemoteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INTENT_REMOTE_URL must be an absolute http(s) URL, got %q", c.Intent.RemoteURL)
	}
	if c.Intent.BreakerFailures == 0 {
		return fmt.Errorf("INTENT_BREAKER_FAILURES must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Backend {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or badger, got %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "memory":
	case "nats":
		if c.Events.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be memory or nats, got %q", c.Events.Backend)
	}
	if c.Events.CatalogTopic == "" || c.Events.TurnTopic == "" {
		return fmt.Errorf("event topics cannot be empty")
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	if c.Analytics.Enabled && c.Analytics.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required when ANALYTICS_ENABLED=true")
	}
	return nil
}
