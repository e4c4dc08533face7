// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package embedding

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and collapses whitespace, so
// "Fiancée" and "fiancee" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "for": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "with": {}, "my": {}, "me": {}, "i": {}, "im": {}, "is": {}, "it": {},
	"its": {}, "some": {}, "something": {}, "show": {}, "find": {}, "want": {},
	"looking": {}, "please": {}, "ones": {}, "one": {}, "this": {}, "that": {},
	"product": {}, "description": {}, "tags": {},
	// possessive remainder: "mother's" splits into "mother" and "s"
	"s": {},
}

// Tokens splits text into folded, stemmed, stopword-free terms.
func Tokens(text string) []string {
	words := strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		out = append(out, stem(w))
	}
	return out
}

// stem strips the common English plural endings; enough to match
// "earrings" with "earring" and "necklaces" with "necklace".
func stem(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	default:
		return w
	}
}
