// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package analytics records conversation turns in DuckDB and answers the
// summary queries behind the admin analytics endpoint.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// Config selects the database file.
type Config struct {
	// Path is the DuckDB file; empty opens an in-memory database.
	Path string

	// MaxMemory caps DuckDB memory, e.g. "512MB".
	MaxMemory string

	// Threads defaults to the number of CPUs.
	Threads int
}

// Turn is one recorded conversation turn.
type Turn struct {
	EventID         string    `json:"event_id"`
	SessionID       string    `json:"session_id"`
	RequestID       string    `json:"request_id,omitempty"`
	UserMessage     string    `json:"user_message"`
	Reply           string    `json:"reply"`
	StateBefore     string    `json:"state_before"`
	StateAfter      string    `json:"state_after"`
	ResultCount     int       `json:"result_count"`
	Confidence      string    `json:"confidence,omitempty"`
	UsedFallback    bool      `json:"used_fallback"`
	EndConversation bool      `json:"end_conversation"`
	LatencyMS       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`

	// ProductIDs are the products shown in this turn, in display order.
	ProductIDs []string `json:"product_ids,omitempty"`
}

// idSeparator joins product ids in aggregated query results.
const idSeparator = "\x1f"

// Store is the DuckDB turn store.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the database and its schema.
func Open(cfg Config) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "512MB"
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// Auto-install/auto-load stay off: no extension is needed and network
	// access may be restricted.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Path == "" {
		// Every pooled connection to ":memory:" would be its own database.
		conn.SetMaxOpenConns(1)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", path).Msg("Analytics store opened")
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			event_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			request_id TEXT,
			user_message TEXT,
			reply TEXT,
			state_before TEXT NOT NULL,
			state_after TEXT NOT NULL,
			result_count INTEGER NOT NULL DEFAULT 0,
			confidence TEXT,
			used_fallback BOOLEAN NOT NULL DEFAULT false,
			end_conversation BOOLEAN NOT NULL DEFAULT false,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			ts TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_ts ON conversation_turns(ts)`,
		`CREATE TABLE IF NOT EXISTS recommended_products (
			event_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,
			PRIMARY KEY (event_id, ordinal)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommended_ts ON recommended_products(ts)`,
	}
	for _, q := range queries {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts a turn. Replayed events with a known EventID are ignored.
func (s *Store) Record(ctx context.Context, t *Turn) error {
	if t.EventID == "" || t.SessionID == "" {
		err := fmt.Errorf("turn requires event and session ids")
		metrics.RecordAnalyticsWrite(err)
		return err
	}

	err := s.record(ctx, t)
	metrics.RecordAnalyticsWrite(err)
	return err
}

func (s *Store) record(ctx context.Context, t *Turn) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	ts := t.Timestamp.UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_turns (
			event_id, session_id, request_id, user_message, reply,
			state_before, state_after, result_count, confidence,
			used_fallback, end_conversation, latency_ms, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING`,
		t.EventID, t.SessionID, t.RequestID, t.UserMessage, t.Reply,
		t.StateBefore, t.StateAfter, t.ResultCount, t.Confidence,
		t.UsedFallback, t.EndConversation, t.LatencyMS, ts,
	); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	for i, id := range t.ProductIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recommended_products (event_id, ordinal, session_id, product_id, ts)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (event_id, ordinal) DO NOTHING`,
			t.EventID, i, t.SessionID, id, ts,
		); err != nil {
			return fmt.Errorf("insert recommended product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn insert: %w", err)
	}
	return nil
}

// SessionTurns returns the most recent turns of a session, oldest first.
func (s *Store) SessionTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT t.event_id, t.session_id, COALESCE(t.request_id, ''), COALESCE(t.user_message, ''), COALESCE(t.reply, ''),
			t.state_before, t.state_after, t.result_count, COALESCE(t.confidence, ''),
			t.used_fallback, t.end_conversation, t.latency_ms, t.ts, COALESCE(p.ids, '')
		FROM (
			SELECT * FROM conversation_turns
			WHERE session_id = ?
			ORDER BY ts DESC, event_id DESC
			LIMIT ?
		) t
		LEFT JOIN (
			SELECT event_id, string_agg(product_id, chr(31) ORDER BY ordinal) AS ids
			FROM recommended_products
			WHERE session_id = ?
			GROUP BY event_id
		) p ON p.event_id = t.event_id
		ORDER BY t.ts ASC, t.event_id ASC`, sessionID, limit, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session turns: %w", err)
	}
	defer closeQuietly(rows)

	turns := make([]Turn, 0)
	for rows.Next() {
		var t Turn
		var ids string
		if err := rows.Scan(&t.EventID, &t.SessionID, &t.RequestID, &t.UserMessage, &t.Reply,
			&t.StateBefore, &t.StateAfter, &t.ResultCount, &t.Confidence,
			&t.UsedFallback, &t.EndConversation, &t.LatencyMS, &t.Timestamp, &ids); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if ids != "" {
			t.ProductIDs = strings.Split(ids, idSeparator)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
