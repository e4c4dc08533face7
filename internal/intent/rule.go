// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package intent

import (
	"context"

	"github.com/tomtom215/giftwise/internal/metrics"
)

// Button values sent by the intent menu.
const (
	ButtonSpecial  = "special"
	ButtonBrowsing = "browsing"
)

var browsingPhrases = []string{
	"just browsing", "browsing", "browse", "just looking", "looking around",
	"window shopping", "nothing specific", "nothing special", "no occasion",
	"not sure", "see what you have", "see what", "explore", "exploring",
	"for myself", "treat myself", "just curious", "curious",
}

var specialPhrases = []string{
	"something special", "special", "special occasion", "occasion", "gift",
	"present", "birthday", "anniversary", "engagement", "engaged", "propose",
	"proposal", "wedding", "graduation", "valentine", "valentines",
	"mothers day", "fathers day", "christmas", "celebrate", "celebration",
	"surprise", "for my", "for her", "for him",
}

// negations flip "nothing special" style answers that would otherwise hit a
// special phrase.
var negatedSpecial = []string{
	"nothing special", "no occasion", "not for anyone", "no special",
}

// RuleClassifier classifies with keyword lists. It never fails.
type RuleClassifier struct{}

// NewRuleClassifier returns the rule-based classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify implements Classifier. Menu button values win outright; free text
// is scored by how many phrases of each list it contains, and a tie is
// Unknown.
func (c *RuleClassifier) Classify(_ context.Context, text string) (Intent, error) {
	intent := c.classify(text)
	metrics.RecordIntent("rules", string(intent))
	return intent, nil
}

func (c *RuleClassifier) classify(text string) Intent {
	normalized := words(text)
	if normalized == "" {
		return Unknown
	}

	switch normalized {
	case " " + ButtonSpecial + " ":
		return Special
	case " " + ButtonBrowsing + " ":
		return Browsing
	}

	for _, phrase := range negatedSpecial {
		if containsPhrase(normalized, phrase) {
			return Browsing
		}
	}

	special := countPhrases(normalized, specialPhrases)
	browsing := countPhrases(normalized, browsingPhrases)
	switch {
	case special > browsing:
		return Special
	case browsing > special:
		return Browsing
	default:
		return Unknown
	}
}

func countPhrases(normalized string, phrases []string) int {
	n := 0
	for _, phrase := range phrases {
		if containsPhrase(normalized, phrase) {
			n++
		}
	}
	return n
}
