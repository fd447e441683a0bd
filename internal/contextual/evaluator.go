// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package contextual provides the external assessment capability used by
// full-mode scoring: an opaque evaluator that, given a category and a
// business environment snapshot, returns a probability of success with
// free-text reasoning.
//
// Two implementations ship:
//   - HTTPEvaluator: calls an OpenAI-compatible chat completion endpoint
//     with a per-call timeout, an outbound rate limit, and a circuit
//     breaker. Failures never propagate beyond the single evaluation;
//     the pipeline degrades that evaluation to rule-only scoring.
//   - StubEvaluator: deterministic and offline, for tests and deployments
//     without an evaluator endpoint.
package contextual

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/situs/internal/models"
)

// Evaluator is the contextual assessment capability consumed by full-mode
// scoring. Implementations must be safe for concurrent use; the pipeline
// calls Assess from its worker pool.
//
// Assess returns models.ErrContextualEvaluator (wrapped) on any failure:
// transport errors, timeouts, open breaker, unparseable responses, or a
// probability outside [0,1]. Callers treat every failure the same way -
// degrade that single evaluation to rule-only scoring.
type Evaluator interface {
	Assess(ctx context.Context, category string, bev models.BusinessEnvironmentVector) (*models.ContextualAssessment, error)
}

// errInvalidAssessment marks responses that arrived but could not be used:
// malformed JSON, empty completions, or an out-of-range probability.
var errInvalidAssessment = errors.New("invalid assessment response")

// FallbackReason classifies an Assess error for degradation metrics.
// Returns one of "timeout", "breaker_open", "invalid_response", "error".
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, errInvalidAssessment):
		return "invalid_response"
	default:
		return "error"
	}
}
