// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, request ID
tracking, and Prometheus metrics integration. The chi router in internal/api
composes these with the chi ecosystem middleware (RealIP, Recoverer, CORS,
rate limits) into the full request stack.

Key Components:

  - Compression: Gzip compression for responses when the client accepts it
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Usage Example - Request ID:

	http.HandleFunc("/api/v1/rank",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    log.Printf("[%s] Processing request", requestID)
	}

Thread Safety:

All middleware components are thread-safe:
  - Compression uses pooled per-request gzip writers
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
