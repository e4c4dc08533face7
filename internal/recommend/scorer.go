// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import "fmt"

// Scorer maps scores to confidence levels. It is immutable and safe for
// concurrent use.
type Scorer struct {
	high       float64
	medium     float64
	strongTags int
}

// NewScorer creates a scorer. Thresholds must satisfy
// 1 >= high > medium > 0 and strongTags must be positive.
func NewScorer(high, medium float64, strongTags int) (*Scorer, error) {
	if medium <= 0 || high <= medium || high > 1 {
		return nil, fmt.Errorf("invalid confidence thresholds high=%v medium=%v", high, medium)
	}
	if strongTags < 1 {
		return nil, fmt.Errorf("invalid strong match tag count %d", strongTags)
	}
	return &Scorer{high: high, medium: medium, strongTags: strongTags}, nil
}

// Level grades a similarity.
func (s *Scorer) Level(similarity float64) Confidence {
	switch {
	case similarity >= s.high:
		return ConfidenceHigh
	case similarity >= s.medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// FallbackLevel grades a tag match: medium when both occasion and recipient
// matched with at least the strong tag count, low otherwise.
func (s *Scorer) FallbackLevel(r *Result) Confidence {
	if r.MatchedOccasion && r.MatchedRecipient && int(r.Score) >= s.strongTags {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// Grade assigns r.Confidence according to its source. Fallback results are
// never graded high.
func (s *Scorer) Grade(r *Result) {
	switch {
	case r.Source == SourceSemantic && r.Similarity != nil:
		r.Confidence = s.Level(*r.Similarity)
	case r.Source == SourceSemantic:
		r.Confidence = s.Level(r.Score)
	default:
		r.Confidence = s.FallbackLevel(r)
	}
}
