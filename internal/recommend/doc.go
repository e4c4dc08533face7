// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package recommend implements the hybrid gift recommendation pipeline.
//
// # Architecture
//
// Two Recommender implementations are composed by the Engine:
//
//   - SemanticRecommender: embeds the query, asks the vector index for the
//     top-M nearest products and applies hard constraints (category, price
//     ceiling) after ranking.
//   - TagRecommender: a deterministic scan of the catalog that keeps
//     products satisfying the hard constraints and carrying an occasion or
//     recipient tag.
//
// The Engine runs the semantic path under a timeout. When it fails, returns
// fewer than K survivors or its best similarity is below the fallback
// floor, the tag path is consulted and its results are appended after the
// semantic ones, deduplicated by product id. Every result is graded by the
// Scorer; tag results are capped at medium confidence.
//
// # Determinism
//
// For a fixed catalog snapshot and query the output is stable. Semantic
// results are ordered by similarity, fallback results by matched tag count;
// ties in both are broken by descending price and then ascending id.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, semantic, tags, logger)
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    Query:   recommend.Query{Occasion: "birthday", Recipient: "mother"},
//	    K:       4,
//	    Exclude: alreadyShown,
//	})
//
// # Thread Safety
//
// The engine holds no per-request state and is safe for concurrent use.
package recommend
