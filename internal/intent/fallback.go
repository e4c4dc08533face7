// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package intent

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// Fallback reasons recorded in metrics.
const (
	fallbackTimeout = "timeout"
	fallbackOpen    = "breaker_open"
	fallbackError   = "error"
	fallbackUnknown = "unknown"
)

// FallbackClassifier runs Primary under Timeout and answers with Fallback
// whenever Primary errors, times out or returns Unknown.
type FallbackClassifier struct {
	Primary  Classifier
	Fallback Classifier
	Timeout  time.Duration
}

// NewFallbackClassifier wires primary in front of the rule classifier.
// A nil primary makes the wrapper a plain rule classifier.
func NewFallbackClassifier(primary Classifier, timeout time.Duration) *FallbackClassifier {
	return &FallbackClassifier{
		Primary:  primary,
		Fallback: NewRuleClassifier(),
		Timeout:  timeout,
	}
}

// Classify implements Classifier. It only returns an error if the fallback
// itself fails.
func (f *FallbackClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	if f.Primary == nil {
		return f.Fallback.Classify(ctx, text)
	}

	callCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	intent, err := f.Primary.Classify(callCtx, text)
	if err == nil && intent != Unknown {
		return intent, nil
	}

	reason := fallbackReason(err)
	metrics.RecordIntentFallback(reason)
	logging.Ctx(ctx).Debug().Err(err).Str("reason", reason).Msg("intent classifier fell back to rules")

	return f.Fallback.Classify(ctx, text)
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return fallbackUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return fallbackTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fallbackOpen
	default:
		return fallbackError
	}
}
