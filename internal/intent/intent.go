// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package intent classifies the shopper's answer to "what brings you here"
// into a shopping intent.
//
// The dialogue depends on the Classifier interface only. RuleClassifier is
// deterministic and always available; RemoteClassifier calls a model
// service behind a circuit breaker; FallbackClassifier bounds the remote
// call with a timeout and consults the rules whenever it fails or is unsure.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tomtom215/giftwise/internal/embedding"
)

// Intent is the shopper's reason for the visit.
type Intent string

const (
	// Special means a gift for an occasion; the dialogue asks for occasion
	// and recipient next.
	Special Intent = "special"
	// Browsing means no particular occasion; the dialogue recommends at once.
	Browsing Intent = "browsing"
	// Unknown means the text could not be classified.
	Unknown Intent = "unknown"
)

// ErrInvalidIntent is returned when a backend answers with an unknown label.
var ErrInvalidIntent = errors.New("intent: invalid intent label")

// ParseIntent converts a backend label into an Intent.
func ParseIntent(s string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case Special:
		return Special, nil
	case Browsing:
		return Browsing, nil
	case Unknown:
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrInvalidIntent, s)
	}
}

// Classifier maps free text to an Intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// words folds text and reduces it to space-separated letter/digit runs with
// a leading and trailing space, ready for whole-phrase matching.
func words(text string) string {
	fields := strings.FieldsFunc(embedding.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return " " + strings.Join(fields, " ") + " "
}

// containsPhrase reports whether phrase occurs in normalized as whole words.
func containsPhrase(normalized, phrase string) bool {
	return strings.Contains(normalized, " "+phrase+" ")
}
