// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/models"
)

// RetryPolicy defines the retry behavior for failed source fetches.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts after the first call.
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential multiplier.
	BackoffMultiplier float64

	// JitterFraction is the random jitter fraction (0.0-1.0).
	JitterFraction float64

	rng   *rand.Rand
	rngMu sync.Mutex
}

// DefaultRetryPolicy returns production defaults for inline fetch retries.
// These are tighter than background-retry defaults since callers are waiting.
func DefaultRetryPolicy() *RetryPolicy {
	return NewRetryPolicyWithSeed(0)
}

// NewRetryPolicyWithSeed creates a RetryPolicy with a specific random seed.
// When seed is 0 a time-based seed is used; non-zero seeds give deterministic
// jitter in tests.
func NewRetryPolicyWithSeed(seed int64) *RetryPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RetryPolicy{
		MaxRetries:        3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
		//nolint:gosec // G404: Using weak random for non-cryptographic jitter in backoff timing
		rng: rand.New(rand.NewSource(seed)),
	}
}

// CalculateBackoff calculates the backoff duration for a given retry count.
func (p *RetryPolicy) CalculateBackoff(retryCount int) time.Duration {
	backoff := float64(p.InitialBackoff) * math.Pow(p.BackoffMultiplier, float64(retryCount))

	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	p.rngMu.Lock()
	if p.rng == nil {
		// Policies built as struct literals get a time-seeded source.
		//nolint:gosec // G404: Using weak random for non-cryptographic jitter in backoff timing
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	jitter := backoff * p.JitterFraction * (p.rng.Float64()*2 - 1) // -jitter to +jitter
	p.rngMu.Unlock()

	return time.Duration(backoff + jitter)
}

// ShouldRetry determines if an error should be retried. Cancellation,
// open circuit breakers, and permanent errors (bad configuration, unknown
// region) never retry.
func (p *RetryPolicy) ShouldRetry(err error, retryCount int) bool {
	if retryCount >= p.MaxRetries {
		return false
	}

	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, models.ErrConfiguration),
		errors.Is(err, models.ErrNotFound):
		return false
	}
	return true
}

// retryFetch runs fn with bounded exponential backoff between attempts.
// The backoff sleep aborts immediately when ctx is canceled.
func retryFetch[T any](ctx context.Context, policy *RetryPolicy, source, operation string, fn func(context.Context) ([]T, error)) ([]T, error) {
	attempt := 0
	for {
		records, err := fn(ctx)
		if err == nil {
			return records, nil
		}

		if !policy.ShouldRetry(err, attempt) {
			return nil, err
		}

		backoff := policy.CalculateBackoff(attempt)
		logging.Warn().
			Err(err).
			Str("source", source).
			Str("operation", operation).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Source fetch failed, retrying")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

// RetryingBusinessSource wraps a BusinessSource with retry-on-failure.
type RetryingBusinessSource struct {
	inner  BusinessSource
	policy *RetryPolicy
	name   string
}

// NewRetryingBusinessSource creates a retrying decorator. A nil policy uses
// DefaultRetryPolicy.
func NewRetryingBusinessSource(name string, inner BusinessSource, policy *RetryPolicy) *RetryingBusinessSource {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	return &RetryingBusinessSource{inner: inner, policy: policy, name: name}
}

// FetchByBounds retries the inner fetch per the policy.
func (s *RetryingBusinessSource) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	return retryFetch(ctx, s.policy, s.name, "fetch_by_bounds", func(ctx context.Context) ([]models.BusinessRecord, error) {
		return s.inner.FetchByBounds(ctx, category, bounds)
	})
}

// FetchByRadius retries the inner fetch per the policy.
func (s *RetryingBusinessSource) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	return retryFetch(ctx, s.policy, s.name, "fetch_by_radius", func(ctx context.Context) ([]models.BusinessRecord, error) {
		return s.inner.FetchByRadius(ctx, category, center, radiusM)
	})
}

// RetryingSocialSource wraps a SocialSource with retry-on-failure.
type RetryingSocialSource struct {
	inner  SocialSource
	policy *RetryPolicy
	name   string
}

// NewRetryingSocialSource creates a retrying decorator. A nil policy uses
// DefaultRetryPolicy.
func NewRetryingSocialSource(name string, inner SocialSource, policy *RetryPolicy) *RetryingSocialSource {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	return &RetryingSocialSource{inner: inner, policy: policy, name: name}
}

// Fetch retries the inner fetch per the policy.
func (s *RetryingSocialSource) Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error) {
	return retryFetch(ctx, s.policy, s.name, "fetch_signals", func(ctx context.Context) ([]models.SocialSignal, error) {
		return s.inner.Fetch(ctx, category, bounds, windowDays)
	})
}

// Compile-time interface checks.
var (
	_ BusinessSource = (*RetryingBusinessSource)(nil)
	_ SocialSource   = (*RetryingSocialSource)(nil)
)
