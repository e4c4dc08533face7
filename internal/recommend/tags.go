// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/embedding"
)

// TagRecommender is the index-free fallback filter.
//
// Matching rule: a slot and a tag are compared after folding (lower-case,
// diacritics removed), stopword removal and plural stripping. A slot matches
// a tag when the normalized forms are equal, or when the slot has several
// words and one of them equals the whole tag ("my mother" matches
// "mother"). The single-word form only applies within the slot's own tag
// group: an occasion word matches occasion tags and a recipient word
// matches recipient tags, so "mother's day" never matches the recipient tag
// "mother". Substrings never match ("mother" does not match "mothers day").
type TagRecommender struct {
	catalog catalog.Catalog
}

// NewTagRecommender creates the fallback filter over c.
func NewTagRecommender(c catalog.Catalog) *TagRecommender {
	return &TagRecommender{catalog: c}
}

// Name implements Recommender.
func (t *TagRecommender) Name() string {
	return string(SourceFallback)
}

// Recommend implements Recommender. A product is returned when the hard
// constraints hold and the occasion or recipient matches one of its tags.
// With neither occasion nor recipient set every admitted product matches
// with score 0. A non-positive limit returns every match.
func (t *TagRecommender) Recommend(ctx context.Context, q Query, limit int) ([]Result, error) {
	products, err := t.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	occasion := normalizeTag(q.Occasion)
	recipient := normalizeTag(q.Recipient)
	vacuous := len(occasion) == 0 && len(recipient) == 0

	results := make([]Result, 0)
	for i := range products {
		p := &products[i]
		if !q.Admits(p) {
			continue
		}

		if vacuous {
			results = append(results, Result{Product: *p, Source: SourceFallback})
			continue
		}

		occKeys := tagKeys(p.OccasionTags)
		recKeys := tagKeys(p.RecipientTags)

		var matched []string
		var occHit, recHit bool
		for _, tag := range p.Tags() {
			key := strings.Join(normalizeTag(tag), " ")
			if key == "" {
				continue
			}
			_, inOcc := occKeys[key]
			_, inRec := recKeys[key]
			o := slotMatches(occasion, key, inOcc)
			r := slotMatches(recipient, key, inRec)
			if o || r {
				matched = append(matched, tag)
			}
			occHit = occHit || o
			recHit = recHit || r
		}
		if len(matched) == 0 {
			continue
		}
		results = append(results, Result{
			Product:          *p,
			Score:            float64(len(matched)),
			Source:           SourceFallback,
			MatchedTags:      matched,
			MatchedOccasion:  occHit,
			MatchedRecipient: recHit,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return tiebreak(&a.Product, &b.Product)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// TagsMatch reports whether slot matches tag under the fallback rule, with
// tag taken from the slot's own group.
func TagsMatch(slot, tag string) bool {
	return slotMatches(normalizeTag(slot), strings.Join(normalizeTag(tag), " "), true)
}

func normalizeTag(s string) []string {
	return embedding.Tokens(s)
}

// slotMatches applies the matching rule. sameGroup enables the
// single-word form for multi-word slots.
func slotMatches(slot []string, tagKey string, sameGroup bool) bool {
	switch len(slot) {
	case 0:
		return false
	case 1:
		return slot[0] == tagKey
	default:
		if strings.Join(slot, " ") == tagKey {
			return true
		}
		return sameGroup && slices.Contains(slot, tagKey)
	}
}

func tagKeys(tags []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if key := strings.Join(normalizeTag(tag), " "); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}
