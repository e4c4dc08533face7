// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package analytics

import (
	"context"
	"fmt"
	"time"
)

// Summary aggregates turns recorded since a point in time.
type Summary struct {
	Since             time.Time        `json:"since"`
	Turns             int64            `json:"turns"`
	Sessions          int64            `json:"sessions"`
	RecommendSessions int64            `json:"recommend_sessions"`
	FallbackTurns     int64            `json:"fallback_turns"`
	EmptyResultTurns  int64            `json:"empty_result_turns"`
	Handoffs          int64            `json:"handoffs"`
	AvgLatencyMS      float64          `json:"avg_latency_ms"`
	FallbackRate      float64          `json:"fallback_rate"`
	ConfidenceCounts  map[string]int64 `json:"confidence_counts"`
	StateCounts       map[string]int64 `json:"state_counts"`
	TopProducts       []ProductCount   `json:"top_products"`
}

// ProductCount is how often a product was recommended.
type ProductCount struct {
	ProductID string `json:"product_id"`
	Shown     int64  `json:"shown"`
	Sessions  int64  `json:"sessions"`
}

// topProductsLimit bounds Summary.TopProducts.
const topProductsLimit = 10

// Summary computes the aggregate view.
func (s *Store) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	sum := &Summary{
		Since:            since.UTC(),
		ConfidenceCounts: make(map[string]int64),
		StateCounts:      make(map[string]int64),
		TopProducts:      make([]ProductCount, 0),
	}

	err := s.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT session_id),
			COUNT(DISTINCT session_id) FILTER (WHERE state_after = 'READY_FOR_RECOMMENDATION'),
			COUNT(*) FILTER (WHERE used_fallback),
			COUNT(*) FILTER (WHERE state_after = 'READY_FOR_RECOMMENDATION' AND result_count = 0 AND NOT end_conversation),
			COUNT(*) FILTER (WHERE end_conversation),
			COALESCE(AVG(latency_ms), 0)
		FROM conversation_turns
		WHERE ts >= ?`, since.UTC()).Scan(
		&sum.Turns, &sum.Sessions, &sum.RecommendSessions,
		&sum.FallbackTurns, &sum.EmptyResultTurns, &sum.Handoffs, &sum.AvgLatencyMS,
	)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	if recTurns, err := s.count(ctx, `SELECT COUNT(*) FROM conversation_turns WHERE ts >= ? AND result_count > 0`, since); err != nil {
		return nil, err
	} else if recTurns > 0 {
		sum.FallbackRate = float64(sum.FallbackTurns) / float64(recTurns)
	}

	if err := s.groupInto(ctx, sum.ConfidenceCounts, `
		SELECT confidence, COUNT(*) FROM conversation_turns
		WHERE ts >= ? AND confidence IS NOT NULL AND confidence <> ''
		GROUP BY confidence`, since); err != nil {
		return nil, err
	}
	if err := s.groupInto(ctx, sum.StateCounts, `
		SELECT state_after, COUNT(*) FROM conversation_turns
		WHERE ts >= ?
		GROUP BY state_after`, since); err != nil {
		return nil, err
	}

	top, err := s.TopProducts(ctx, since, topProductsLimit)
	if err != nil {
		return nil, err
	}
	sum.TopProducts = top

	return sum, nil
}

// TopProducts returns the most recommended products since a point in time,
// ordered by times shown, then sessions, then product id.
func (s *Store) TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductCount, error) {
	if limit <= 0 {
		limit = topProductsLimit
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT product_id, COUNT(*) AS shown, COUNT(DISTINCT session_id) AS sessions
		FROM recommended_products
		WHERE ts >= ?
		GROUP BY product_id
		ORDER BY shown DESC, sessions DESC, product_id ASC
		LIMIT ?`, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer closeQuietly(rows)

	out := make([]ProductCount, 0)
	for rows.Next() {
		var pc ProductCount
		if err := rows.Scan(&pc.ProductID, &pc.Shown, &pc.Sessions); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products: %w", err)
	}
	return out, nil
}

func (s *Store) count(ctx context.Context, query string, since time.Time) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, query, since.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return n, nil
}

func (s *Store) groupInto(ctx context.Context, into map[string]int64, query string, since time.Time) error {
	rows, err := s.conn.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return fmt.Errorf("query groups: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return fmt.Errorf("scan group: %w", err)
		}
		into[label] = n
	}
	return rows.Err()
}
