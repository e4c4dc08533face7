// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package catalog

import (
	"strings"
)

// Product is a catalog entry. Products are immutable once a catalog
// snapshot is published; callers must not modify the slices.
type Product struct {
	ID            string    `json:"id" validate:"required,nonblank"`
	Name          string    `json:"name" validate:"required,nonblank"`
	Category      string    `json:"category" validate:"required,nonblank"`
	Price         float64   `json:"price" validate:"gte=0"`
	Metal         string    `json:"metal,omitempty"`
	Gemstones     []string  `json:"gemstones,omitempty"`
	DesignType    string    `json:"design_type,omitempty"`
	StyleTags     []string  `json:"style_tags,omitempty"`
	OccasionTags  []string  `json:"occasion_tags,omitempty"`
	RecipientTags []string  `json:"recipient_tags,omitempty"`
	Description   string    `json:"description,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// Tags returns the lower-cased union of style, occasion and recipient tags
// in declaration order, without duplicates.
func (p *Product) Tags() []string {
	n := len(p.StyleTags) + len(p.OccasionTags) + len(p.RecipientTags)
	seen := make(map[string]struct{}, n)
	tags := make([]string, 0, n)
	for _, group := range [][]string{p.StyleTags, p.OccasionTags, p.RecipientTags} {
		for _, tag := range group {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// EmbeddingText is the text embedded for semantic search.
func (p *Product) EmbeddingText() string {
	return "Product: " + p.Name + ". Description: " + p.Description + ". Tags: " + strings.Join(p.Tags(), " ")
}

// InCategory reports whether the product belongs to category, ignoring case
// and a trailing plural "s" ("earrings" matches "earring").
func (p *Product) InCategory(category string) bool {
	return normalizeCategory(p.Category) == normalizeCategory(category)
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if len(c) > 1 && strings.HasSuffix(c, "s") && !strings.HasSuffix(c, "ss") {
		c = c[:len(c)-1]
	}
	return c
}
