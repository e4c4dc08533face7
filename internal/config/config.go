// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package config loads Giftwise configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (CONFIG_PATH or one of DefaultConfigPaths)
//  3. Environment variables: explicit mappings in envTransformFunc
//
// Every loaded configuration passes Validate before it is returned.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Index     IndexConfig     `koanf:"index"`
	Recommend RecommendConfig `koanf:"recommend"`
	Dialogue  DialogueConfig  `koanf:"dialogue"`
	Intent    IntentConfig    `koanf:"intent"`
	Session   SessionConfig   `koanf:"session"`
	Events    EventsConfig    `koanf:"events"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CatalogConfig points at the product catalog file.
type CatalogConfig struct {
	// Path is a JSON file holding an array of products.
	Path string `koanf:"path"`

	// ReloadInterval re-reads the file and publishes a catalog-changed event
	// when its contents differ. Zero disables polling.
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// EmbeddingConfig controls the text embedder.
type EmbeddingConfig struct {
	Dimensions int           `koanf:"dimensions"`
	CacheSize  int           `koanf:"cache_size"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
}

// IndexConfig controls the vector search index and its rebuild service.
type IndexConfig struct {
	// SimilarityFloor excludes hits below this cosine similarity.
	SimilarityFloor float64 `koanf:"similarity_floor"`

	// RebuildInterval forces a periodic rebuild. Zero disables the ticker;
	// catalog-changed events still trigger rebuilds.
	RebuildInterval time.Duration `koanf:"rebuild_interval"`

	// MinRebuildGap throttles event-driven rebuilds.
	MinRebuildGap time.Duration `koanf:"min_rebuild_gap"`
}

// RecommendConfig mirrors recommend.Config.
type RecommendConfig struct {
	DefaultK        int           `koanf:"default_k"`
	MaxK            int           `koanf:"max_k"`
	CandidateCap    int           `koanf:"candidate_cap"`
	FallbackFloor   float64       `koanf:"fallback_floor"`
	HighThreshold   float64       `koanf:"high_threshold"`
	MediumThreshold float64       `koanf:"medium_threshold"`
	StrongMatchTags int           `koanf:"strong_match_tags"`
	SemanticTimeout time.Duration `koanf:"semantic_timeout"`
}

// DialogueConfig controls the conversation state machine.
type DialogueConfig struct {
	HistoryLimit int `koanf:"history_limit"`
}

// IntentConfig controls intent classification.
type IntentConfig struct {
	// RemoteURL enables the remote model classifier when non-empty.
	RemoteURL string        `koanf:"remote_url"`
	Timeout   time.Duration `koanf:"timeout"`

	// Circuit breaker settings for the remote classifier.
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerFailures    uint32        `koanf:"breaker_failures"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend         string        `koanf:"backend"` // memory or badger
	Path            string        `koanf:"path"`
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// EventsConfig selects the event bus transport.
type EventsConfig struct {
	Backend      string `koanf:"backend"` // memory or nats
	NATSURL      string `koanf:"nats_url"`
	CatalogTopic string `koanf:"catalog_topic"`
	TurnTopic    string `koanf:"turn_topic"`
	QueueGroup   string `koanf:"queue_group"`
	DurableName  string `koanf:"durable_name"`
}

// AnalyticsConfig controls the DuckDB conversation-turn store.
type AnalyticsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
}

// Load is the entry point used by cmd/server.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
