// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/giftwise/internal/embedding"
)

const (
	maxNameWords = 2
	maxSlotLen   = 60
)

var namePrefixes = []string{
	"my name is", "my names", "my name's", "name is", "names", "name's",
	"i am", "i'm", "im", "call me", "it's", "its", "it is", "this is",
}

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true, "hiya": true, "yo": true}

// notNames are replies that answer the prompt without giving a name.
var notNames = map[string]bool{
	"yes": true, "no": true, "ok": true, "okay": true, "sure": true, "thanks": true,
	"nothing": true, "none": true, "what": true, "why": true, "nope": true,
}

// ExtractName pulls a display name out of a reply to the name prompt.
// It strips greetings and introductions, keeps letters, hyphens and
// apostrophes, and title-cases at most two words.
func ExtractName(text string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Trim(s, " .!?,")

	for {
		first, rest, _ := strings.Cut(s, " ")
		if !greetings[strings.Trim(first, ",.!")] {
			break
		}
		s = strings.TrimLeft(rest, " ,")
	}
	for _, prefix := range namePrefixes {
		if rest, ok := strings.CutPrefix(s, prefix+" "); ok {
			s = rest
			break
		}
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-' && r != '\''
	})
	if len(words) == 0 || len(words) > maxNameWords+1 {
		return "", false
	}
	if len(words) > maxNameWords {
		words = words[:maxNameWords]
	}
	for i, w := range words {
		w = strings.Trim(w, "-'")
		if w == "" || notNames[w] {
			return "", false
		}
		words[i] = titleCase(w)
	}
	return strings.Join(words, " "), true
}

func titleCase(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}

// Canonical occasion keywords, longest phrases first.
var occasionKeywords = []struct{ phrase, value string }{
	{"mothers day", "mother's day"},
	{"mother's day", "mother's day"},
	{"fathers day", "father's day"},
	{"father's day", "father's day"},
	{"valentines", "valentine's day"},
	{"valentine", "valentine's day"},
	{"new baby", "new baby"},
	{"push present", "new baby"},
	{"birthday", "birthday"},
	{"bday", "birthday"},
	{"anniversary", "anniversary"},
	{"engagement", "engagement"},
	{"proposal", "engagement"},
	{"propose", "engagement"},
	{"wedding", "wedding"},
	{"graduation", "graduation"},
	{"graduating", "graduation"},
	{"christmas", "christmas"},
	{"holiday", "holiday"},
	{"retirement", "retirement"},
	{"promotion", "promotion"},
	{"apology", "apology"},
	{"just because", "just because"},
}

// Canonical recipient keywords, longest phrases first.
var recipientKeywords = []struct{ phrase, value string }{
	{"grandmother", "grandmother"},
	{"grandma", "grandmother"},
	{"grandfather", "grandfather"},
	{"grandpa", "grandfather"},
	{"girlfriend", "girlfriend"},
	{"boyfriend", "boyfriend"},
	{"fiancee", "fiancee"},
	{"fiance", "fiance"},
	{"husband", "husband"},
	{"wife", "wife"},
	{"partner", "partner"},
	{"spouse", "partner"},
	{"mother", "mother"},
	{"mom", "mother"},
	{"mum", "mother"},
	{"father", "father"},
	{"dad", "father"},
	{"daughter", "daughter"},
	{"son", "son"},
	{"sister", "sister"},
	{"brother", "brother"},
	{"colleague", "colleague"},
	{"coworker", "colleague"},
	{"boss", "colleague"},
	{"best friend", "friend"},
	{"friend", "friend"},
	{"myself", "myself"},
	{"me", "myself"},
	{"self", "myself"},
}

// Fillers stripped from free-text slot answers.
var slotFillers = map[string]bool{
	"it": true, "its": true, "it's": true, "is": true, "for": true, "my": true, "our": true,
	"a": true, "an": true, "the": true, "her": true, "his": true, "their": true,
	"gift": true, "present": true, "just": true, "this": true,
	"i'm": true, "im": true, "shopping": true, "buying": true, "getting": true,
	"something": true, "to": true, "celebrate": true, "celebrating": true, "of": true,
}

// ExtractOccasion normalizes a reply to the occasion prompt.
func ExtractOccasion(text string) (string, bool) {
	return extractSlot(text, occasionKeywords)
}

// ExtractRecipient normalizes a reply to the recipient prompt.
func ExtractRecipient(text string) (string, bool) {
	return extractSlot(text, recipientKeywords)
}

// extractSlot prefers a known keyword anywhere in the text and otherwise
// keeps the text with filler words removed.
func extractSlot(text string, keywords []struct{ phrase, value string }) (string, bool) {
	folded := wordsOf(text)
	if folded == "" {
		return "", false
	}
	padded := " " + folded + " "
	for _, kw := range keywords {
		if strings.Contains(padded, " "+embedding.Fold(kw.phrase)+" ") {
			return kw.value, true
		}
	}

	var kept []string
	for _, w := range strings.Fields(folded) {
		if !slotFillers[w] {
			kept = append(kept, w)
		}
	}
	out := strings.Join(kept, " ")
	if out == "" {
		return "", false
	}
	return truncateUTF8(out, maxSlotLen), true
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}

// wordsOf folds text and keeps letters, digits and apostrophes.
func wordsOf(text string) string {
	folded := embedding.Fold(text)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return strings.Join(fields, " ")
}

// Refinement is what a READY-state message asks to change.
type Refinement struct {
	Category     string
	PriceCeiling *float64
	FreeText     string
}

var categoryKeywords = map[string]string{
	"ring": "ring", "rings": "ring", "band": "ring", "bands": "ring",
	"necklace": "necklace", "necklaces": "necklace", "pendant": "necklace", "pendants": "necklace",
	"chain": "necklace", "chains": "necklace",
	"earring": "earrings", "earrings": "earrings", "stud": "earrings", "studs": "earrings",
	"hoop": "earrings", "hoops": "earrings",
	"bracelet": "bracelet", "bracelets": "bracelet", "bangle": "bracelet", "bangles": "bracelet",
	"watch": "watch", "watches": "watch",
}

var priceCeilingRe = regexp.MustCompile(
	`(?i)\b(?:under|below|less than|cheaper than|max(?:imum)?|up to|no more than|at most|within|budget(?: of| is)?)\s*\$?\s*(\d+(?:[.,]\d+)?)\s*(k\b)?`)

// ParseRefinement reads an optional category and price ceiling from text.
// FreeText is the message with the price phrase removed.
func ParseRefinement(text string) Refinement {
	text = strings.TrimSpace(text)
	var r Refinement

	if m := priceCeilingRe.FindStringSubmatchIndex(text); m != nil {
		raw := strings.ReplaceAll(text[m[2]:m[3]], ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			if m[4] >= 0 {
				v *= 1000
			}
			r.PriceCeiling = &v
		}
		text = strings.TrimSpace(text[:m[0]] + " " + text[m[1]:])
	}

	for _, w := range strings.Fields(wordsOf(text)) {
		if c, ok := categoryKeywords[w]; ok {
			r.Category = c
			break
		}
	}

	r.FreeText = strings.Join(strings.Fields(text), " ")
	return r
}
