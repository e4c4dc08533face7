// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"fmt"
	"time"
)

// Config contains the engine's tunables.
type Config struct {
	// DefaultK is the page size when a request does not set one.
	DefaultK int `json:"default_k"`

	// MaxK caps the page size.
	MaxK int `json:"max_k"`

	// CandidateCap is the minimum number of semantic candidates (M) fetched
	// before filtering. It grows with offset and exclusions.
	CandidateCap int `json:"candidate_cap"`

	// FallbackFloor triggers the tag path when the best semantic similarity
	// is below it.
	FallbackFloor float64 `json:"fallback_floor"`

	// HighThreshold and MediumThreshold grade similarity.
	// 1 >= HighThreshold > MediumThreshold > 0.
	HighThreshold   float64 `json:"high_threshold"`
	MediumThreshold float64 `json:"medium_threshold"`

	// StrongMatchTags is the matched tag count at which a fallback result
	// that matched both occasion and recipient is graded medium.
	StrongMatchTags int `json:"strong_match_tags"`

	// SemanticTimeout bounds the embedding and vector search call.
	SemanticTimeout time.Duration `json:"semantic_timeout"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultK:        4,
		MaxK:            20,
		CandidateCap:    20,
		FallbackFloor:   0.25,
		HighThreshold:   0.6,
		MediumThreshold: 0.35,
		StrongMatchTags: 2,
		SemanticTimeout: 2 * time.Second,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.DefaultK <= 0 {
		return fmt.Errorf("default_k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k (%d) must be >= default_k (%d)", c.MaxK, c.DefaultK)
	}
	if c.CandidateCap < c.DefaultK {
		return fmt.Errorf("candidate_cap (%d) must be >= default_k (%d)", c.CandidateCap, c.DefaultK)
	}
	if c.FallbackFloor < -1 || c.FallbackFloor > 1 {
		return fmt.Errorf("fallback_floor must be in [-1, 1], got %v", c.FallbackFloor)
	}
	if c.MediumThreshold <= 0 {
		return fmt.Errorf("medium_threshold must be > 0, got %v", c.MediumThreshold)
	}
	if c.HighThreshold <= c.MediumThreshold {
		return fmt.Errorf("high_threshold (%v) must be > medium_threshold (%v)", c.HighThreshold, c.MediumThreshold)
	}
	if c.HighThreshold > 1 {
		return fmt.Errorf("high_threshold must be <= 1, got %v", c.HighThreshold)
	}
	if c.StrongMatchTags < 1 {
		return fmt.Errorf("strong_match_tags must be >= 1, got %d", c.StrongMatchTags)
	}
	if c.SemanticTimeout <= 0 {
		return fmt.Errorf("semantic_timeout must be positive, got %v", c.SemanticTimeout)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
