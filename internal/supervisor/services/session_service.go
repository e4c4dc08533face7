// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionCleaner drops expired sessions. Both session stores satisfy it.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionCleanupService periodically removes expired sessions.
type SessionCleanupService struct {
	store    SessionCleaner
	interval time.Duration
	logger   zerolog.Logger
}

// NewSessionCleanupService creates the service; non-positive interval means
// five minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSessionCleanupService(store SessionCleaner, interval time.Duration, logger zerolog.Logger) *SessionCleanupService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionCleanupService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "session-cleanup").Logger(),
	}
}

// Serve implements suture.Service.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *SessionCleanupService) cleanup(ctx context.Context) {
	removed, err := s.store.CleanupExpired(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session cleanup failed")
		return
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("expired sessions removed")
	}
}

// String implements fmt.Stringer.
func (s *SessionCleanupService) String() string {
	return "session-cleanup"
}
