// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// breakerSettings builds circuit breaker settings for a named source.
// The breaker opens after at least 10 requests with a 60% failure ratio,
// holds open for 2 minutes, and allows 3 probes while half-open.
func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Str("breaker", name).
					Uint32("requests", counts.Requests).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_ratio", failureRatio).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", breakerStateToString(from)).
				Str("to", breakerStateToString(to)).
				Msg("[CIRCUIT BREAKER] State changed")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(
				name,
				breakerStateToString(from),
				breakerStateToString(to),
			).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	}
}

// executeBreaker runs fn through the breaker with request outcome accounting.
func executeBreaker[T any](cb *gobreaker.CircuitBreaker[T], name string, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Inc()
		}
		return result, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
	return result, nil
}

// wrapBreakerErr maps breaker rejections onto the upstream-unavailable
// sentinel so the pipeline's degradation path treats an open breaker like
// any other upstream outage.
func wrapBreakerErr(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit breaker %s: %w", models.ErrUpstreamUnavailable, name, err)
	}
	return err
}

func breakerStateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// BreakerBusinessSource wraps a BusinessSource with a circuit breaker.
// Compose it outside a RetryingBusinessSource so one breaker request covers
// a full retry cycle and repeated outages fail fast.
type BreakerBusinessSource struct {
	inner BusinessSource
	cb    *gobreaker.CircuitBreaker[[]models.BusinessRecord]
	name  string
}

// NewBreakerBusinessSource creates a breaker decorator named after the
// underlying source, e.g. "overpass-businesses".
func NewBreakerBusinessSource(name string, inner BusinessSource) *BreakerBusinessSource {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateToFloat(gobreaker.StateClosed))
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	return &BreakerBusinessSource{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]models.BusinessRecord](breakerSettings(name)),
		name:  name,
	}
}

// FetchByBounds runs the inner fetch through the breaker.
func (s *BreakerBusinessSource) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	records, err := executeBreaker(s.cb, s.name, func() ([]models.BusinessRecord, error) {
		return s.inner.FetchByBounds(ctx, category, bounds)
	})
	if err != nil {
		return nil, wrapBreakerErr(s.name, err)
	}
	return records, nil
}

// FetchByRadius runs the inner fetch through the breaker.
func (s *BreakerBusinessSource) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	records, err := executeBreaker(s.cb, s.name, func() ([]models.BusinessRecord, error) {
		return s.inner.FetchByRadius(ctx, category, center, radiusM)
	})
	if err != nil {
		return nil, wrapBreakerErr(s.name, err)
	}
	return records, nil
}

// State returns the breaker state for health reporting.
func (s *BreakerBusinessSource) State() gobreaker.State {
	return s.cb.State()
}

// BreakerSocialSource wraps a SocialSource with a circuit breaker.
type BreakerSocialSource struct {
	inner SocialSource
	cb    *gobreaker.CircuitBreaker[[]models.SocialSignal]
	name  string
}

// NewBreakerSocialSource creates a breaker decorator for a social source.
func NewBreakerSocialSource(name string, inner SocialSource) *BreakerSocialSource {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateToFloat(gobreaker.StateClosed))
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	return &BreakerSocialSource{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]models.SocialSignal](breakerSettings(name)),
		name:  name,
	}
}

// Fetch runs the inner fetch through the breaker.
func (s *BreakerSocialSource) Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error) {
	signals, err := executeBreaker(s.cb, s.name, func() ([]models.SocialSignal, error) {
		return s.inner.Fetch(ctx, category, bounds, windowDays)
	})
	if err != nil {
		return nil, wrapBreakerErr(s.name, err)
	}
	return signals, nil
}

// State returns the breaker state for health reporting.
func (s *BreakerSocialSource) State() gobreaker.State {
	return s.cb.State()
}

// Compile-time interface checks.
var (
	_ BusinessSource = (*BreakerBusinessSource)(nil)
	_ SocialSource   = (*BreakerSocialSource)(nil)
)
