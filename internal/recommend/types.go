// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"context"
	"strings"

	"github.com/tomtom215/giftwise/internal/catalog"
)

// Source identifies which path produced a result.
type Source string

const (
	// SourceSemantic marks results ranked by embedding similarity.
	SourceSemantic Source = "semantic"
	// SourceFallback marks results from the tag filter.
	SourceFallback Source = "fallback"
)

// Confidence is a discrete grade of how well a result fits the request.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// rank orders confidence levels; higher is better.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Less reports whether c is a strictly lower level than other.
func (c Confidence) Less(other Confidence) bool {
	return c.rank() < other.rank()
}

// Query describes what the shopper is looking for. Every field is optional.
type Query struct {
	Occasion     string   `json:"occasion,omitempty"`
	Recipient    string   `json:"recipient,omitempty"`
	FreeText     string   `json:"free_text,omitempty"`
	Category     string   `json:"category,omitempty"`
	PriceCeiling *float64 `json:"price_ceiling,omitempty"`
}

// Text combines the present descriptive fields into the text that is
// embedded for semantic search. Empty fields are omitted.
func (q Query) Text() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{q.Occasion, q.Recipient, q.FreeText} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Admits reports whether p satisfies the hard constraints.
func (q Query) Admits(p *catalog.Product) bool {
	if q.Category != "" && !p.InCategory(q.Category) {
		return false
	}
	if q.PriceCeiling != nil && p.Price > *q.PriceCeiling {
		return false
	}
	return true
}

// Result is one recommended product.
type Result struct {
	Product catalog.Product `json:"product"`

	// Score is the cosine similarity for semantic results and the number of
	// matched tags for fallback results.
	Score float64 `json:"score"`

	// Similarity is nil for fallback results.
	Similarity *float64 `json:"similarity,omitempty"`

	Confidence Confidence `json:"confidence"`
	Source     Source     `json:"source"`

	// Fallback match detail.
	MatchedTags      []string `json:"matched_tags,omitempty"`
	MatchedOccasion  bool     `json:"matched_occasion,omitempty"`
	MatchedRecipient bool     `json:"matched_recipient,omitempty"`
}

// Recommender produces ranked candidates for a query.
type Recommender interface {
	// Name identifies the implementation in logs.
	Name() string

	// Recommend returns at most limit results in rank order. Confidence is
	// left for the Engine to assign.
	Recommend(ctx context.Context, q Query, limit int) ([]Result, error)
}

// Request is an Engine call.
type Request struct {
	Query Query `json:"query"`

	// K is the page size; zero means the configured default.
	K int `json:"k"`

	// Offset skips that many ranked results.
	Offset int `json:"offset"`

	// Exclude lists product ids already shown in this browsing sequence.
	Exclude []string `json:"exclude,omitempty"`
}

// Response is an Engine result page.
type Response struct {
	Results []Result `json:"results"`

	// NextOffset is the offset of the following page.
	NextOffset int `json:"next_offset"`

	// Total is the number of ranked results available after exclusions.
	Total int `json:"total"`

	UsedFallback   bool   `json:"used_fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
	SemanticError  string `json:"semantic_error,omitempty"`
	LatencyMS      int64  `json:"latency_ms"`
}

// TopConfidence is the confidence of the first result, or "" when empty.
func (r *Response) TopConfidence() Confidence {
	if r == nil || len(r.Results) == 0 {
		return ""
	}
	return r.Results[0].Confidence
}

// Stats are cumulative engine counters.
type Stats struct {
	Requests         int64 `json:"requests"`
	Fallbacks        int64 `json:"fallbacks"`
	SemanticFailures int64 `json:"semantic_failures"`
	EmptyResults     int64 `json:"empty_results"`
}
