// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/giftwise/config.yaml",
	"/etc/giftwise/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Catalog: CatalogConfig{
			Path:           "/data/catalog.json",
			ReloadInterval: 0,
		},
		Embedding: EmbeddingConfig{
			Dimensions: 256,
			CacheSize:  4096,
			CacheTTL:   30 * time.Minute,
		},
		Index: IndexConfig{
			SimilarityFloor: 0.0,
			RebuildInterval: 0,
			MinRebuildGap:   5 * time.Second,
		},
		Recommend: RecommendConfig{
			DefaultK:        4,
			MaxK:            20,
			CandidateCap:    20,
			FallbackFloor:   0.25,
			HighThreshold:   0.6,
			MediumThreshold: 0.35,
			StrongMatchTags: 2,
			SemanticTimeout: 2 * time.Second,
		},
		Dialogue: DialogueConfig{
			HistoryLimit: 20,
		},
		Intent: IntentConfig{
			Timeout:            1500 * time.Millisecond,
			BreakerMaxRequests: 1,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     30 * time.Second,
			BreakerFailures:    5,
		},
		Session: SessionConfig{
			Backend:         "memory",
			Path:            "/data/sessions",
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		Events: EventsConfig{
			Backend:      "memory",
			NATSURL:      "nats://127.0.0.1:4222",
			CatalogTopic: "catalog.changed",
			TurnTopic:    "dialogue.turns",
			QueueGroup:   "giftwise",
			DurableName:  "giftwise-analytics",
		},
		Analytics: AnalyticsConfig{
			Enabled:   false,
			Path:      "/data/analytics.duckdb",
			MaxMemory: "512MB",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// environment variables, in that order of increasing precedence.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"catalog_path":            "catalog.path",
	"catalog_reload_interval": "catalog.reload_interval",

	"embedding_dimensions": "embedding.dimensions",
	"embedding_cache_size": "embedding.cache_size",
	"embedding_cache_ttl":  "embedding.cache_ttl",

	"index_similarity_floor": "index.similarity_floor",
	"index_rebuild_interval": "index.rebuild_interval",
	"index_min_rebuild_gap":  "index.min_rebuild_gap",

	"recommend_default_k":         "recommend.default_k",
	"recommend_max_k":             "recommend.max_k",
	"recommend_candidate_cap":     "recommend.candidate_cap",
	"recommend_fallback_floor":    "recommend.fallback_floor",
	"recommend_high_threshold":    "recommend.high_threshold",
	"recommend_medium_threshold":  "recommend.medium_threshold",
	"recommend_strong_match_tags": "recommend.strong_match_tags",
	"recommend_semantic_timeout":  "recommend.semantic_timeout",

	"dialogue_history_limit": "dialogue.history_limit",

	"intent_remote_url":           "intent.remote_url",
	"intent_timeout":              "intent.timeout",
	"intent_breaker_max_requests": "intent.breaker_max_requests",
	"intent_breaker_interval":     "intent.breaker_interval",
	"intent_breaker_timeout":      "intent.breaker_timeout",
	"intent_breaker_failures":     "intent.breaker_failures",

	"session_store":            "session.backend",
	"session_store_path":       "session.path",
	"session_ttl":              "session.ttl",
	"session_cleanup_interval": "session.cleanup_interval",

	"events_backend":       "events.backend",
	"nats_url":             "events.nats_url",
	"events_catalog_topic": "events.catalog_topic",
	"events_turn_topic":    "events.turn_topic",
	"nats_queue_group":     "events.queue_group",
	"nats_durable_name":    "events.durable_name",

	"analytics_enabled": "analytics.enabled",
	"duckdb_path":       "analytics.path",
	"duckdb_max_memory": "analytics.max_memory",
}

// envTransformFunc maps an environment variable name to a koanf path.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - SESSION_STORE -> session.backend
//   - RECOMMEND_HIGH_THRESHOLD -> recommend.high_threshold
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
