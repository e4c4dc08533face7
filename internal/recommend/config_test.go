// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.DefaultK < 3 || cfg.DefaultK > 5 {
		t.Errorf("DefaultK = %d, want a small page of 3-5", cfg.DefaultK)
	}
	if cfg.HighThreshold <= cfg.MediumThreshold || cfg.MediumThreshold <= 0 {
		t.Errorf("thresholds high=%v medium=%v violate high > medium > 0", cfg.HighThreshold, cfg.MediumThreshold)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default k", func(c *Config) { c.DefaultK = 0 }},
		{"max below default", func(c *Config) { c.MaxK = c.DefaultK - 1 }},
		{"candidate cap below k", func(c *Config) { c.CandidateCap = 1 }},
		{"floor out of range", func(c *Config) { c.FallbackFloor = 1.5 }},
		{"medium zero", func(c *Config) { c.MediumThreshold = 0 }},
		{"high equals medium", func(c *Config) { c.HighThreshold = c.MediumThreshold }},
		{"high below medium", func(c *Config) { c.HighThreshold = 0.2; c.MediumThreshold = 0.3 }},
		{"high above one", func(c *Config) { c.HighThreshold = 1.2 }},
		{"strong tags zero", func(c *Config) { c.StrongMatchTags = 0 }},
		{"no timeout", func(c *Config) { c.SemanticTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.DefaultK = 9
	clone.SemanticTimeout = time.Minute

	if cfg.DefaultK == 9 || cfg.SemanticTimeout == time.Minute {
		t.Error("Clone() shares state with the original")
	}
}
