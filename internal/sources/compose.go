// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"time"

	"github.com/tomtom215/situs/internal/cache"
)

// WrapBusinessSource applies the standard decorator stack:
// cache(breaker(retry(inner))). The cache sits outermost so hits are served
// even while the breaker is open; one breaker request covers a full retry
// cycle. A nil cacher skips the cache layer.
func WrapBusinessSource(name string, inner BusinessSource, cacher cache.Cacher, ttl time.Duration, policy *RetryPolicy) BusinessSource {
	var src BusinessSource = NewRetryingBusinessSource(name, inner, policy)
	src = NewBreakerBusinessSource(name, src)
	if cacher != nil {
		src = NewCachedBusinessSource(name, src, cacher, ttl)
	}
	return src
}

// WrapSocialSource applies the standard decorator stack to a social source.
func WrapSocialSource(name string, inner SocialSource, cacher cache.Cacher, ttl time.Duration, policy *RetryPolicy) SocialSource {
	var src SocialSource = NewRetryingSocialSource(name, inner, policy)
	src = NewBreakerSocialSource(name, src)
	if cacher != nil {
		src = NewCachedSocialSource(name, src, cacher, ttl)
	}
	return src
}
