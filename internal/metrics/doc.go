// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package metrics provides Prometheus instrumentation for production observability.
//
// This package defines all application metrics as package-level collectors
// registered with the default Prometheus registry via promauto. Metrics cover
// database queries, API endpoints, the scoring pipeline, upstream sources,
// dataset imports, caches, WebSocket connections, the contextual evaluator's
// circuit breaker, the Dead Letter Queue, and NATS signal ingestion.
//
// # Metric Categories
//
// Database (duckdb_*):
//   - Query durations and error counts by operation and table
//   - Connection pool utilization
//   - Appender row throughput for bulk imports
//
// API (api_*):
//   - Request counts by method, endpoint, and status code
//   - Request duration histograms
//   - Active request gauge and rate limit rejections
//
// Scoring Pipeline (pipeline_*, sweep_*, rule_*, point_*, recommendations_*, contextual_*):
//   - Per-stage durations (aggregating, normalizing, rule_scoring,
//     contextual, combining, explaining)
//   - Sweep durations, cells scored per sweep, and last success timestamp
//   - Rule and point evaluation counters
//   - Recommendations served and contextual fallback counters
//
// Upstream Sources (source_fetch_*):
//   - Fetch durations and errors by source and operation
//
// Dataset Imports (import_*):
//   - Import durations, records processed by type, errors by type
//   - Last success timestamp and batch size distribution
//
// Caches (cache_*):
//   - Hits, misses, entry counts, and evictions by cache type
//
// WebSocket (websocket_*):
//   - Connection gauge, message counters, error counts
//
// Circuit Breaker (circuit_breaker_*):
//   - State gauge (0=closed, 1=half-open, 2=open)
//   - Request outcomes (success, failure, rejected)
//   - Consecutive failures and state transitions
//
// Dead Letter Queue (dlq_*):
//   - Entry counts by category, add/remove/expire counters
//   - Retry attempts and outcomes, oldest entry age
//
// NATS (nats_*):
//   - Publish/consume/process counters, deduplication, parse failures
//   - Processing and batch flush durations, queue depth, consumer lag
//
// # Usage
//
// Record a database query:
//
//	start := time.Now()
//	rows, err := db.QueryContext(ctx, query)
//	metrics.RecordDBQuery("select", "businesses", time.Since(start), err)
//
// Record a pipeline stage:
//
//	start := time.Now()
//	normalized := normalizer.Apply(aggregated)
//	metrics.RecordPipelineStage("normalizing", time.Since(start))
//
// Record a completed sweep:
//
//	metrics.RecordSweep("full", time.Since(start), len(cells))
//
// Track active API requests (typically in middleware):
//
//	metrics.TrackActiveRequest(true)
//	defer metrics.TrackActiveRequest(false)
//
// # Accessing Metrics
//
// Metrics are exposed on the /metrics endpoint:
//
//	curl http://localhost:8095/metrics
//
// Sample output:
//
//	# HELP sweep_duration_seconds Duration of full grid sweeps in seconds
//	# TYPE sweep_duration_seconds histogram
//	sweep_duration_seconds_bucket{mode="full",le="0.5"} 12
//	sweep_duration_seconds_sum{mode="full"} 4.2
//	sweep_duration_seconds_count{mode="full"} 14
//
//	# HELP circuit_breaker_state Circuit breaker state (0=closed, 1=half-open, 2=open)
//	# TYPE circuit_breaker_state gauge
//	circuit_breaker_state{name="contextual-evaluator"} 0
//
// # PromQL Examples
//
// API request rate by endpoint over 5 minutes:
//
//	rate(api_requests_total[5m])
//
// 95th percentile sweep duration:
//
//	histogram_quantile(0.95, rate(sweep_duration_seconds_bucket[5m]))
//
// Cache hit ratio:
//
//	sum(rate(cache_hits_total[5m])) /
//	(sum(rate(cache_hits_total[5m])) + sum(rate(cache_misses_total[5m])))
//
// Contextual fallback rate (degraded scoring):
//
//	rate(contextual_fallbacks_total[5m])
//
// Time since last successful import:
//
//	time() - import_last_success_timestamp
//
// # Cardinality Considerations
//
// Label values are bounded to keep time series counts manageable:
//   - "operation" and "table" labels use fixed sets defined by the database layer
//   - "stage" has exactly six values matching pipeline stages
//   - "mode" has two values (fast, full)
//   - "error_type" values are truncated to 50 characters; callers should
//     prefer stable error categories over raw error strings
//   - "endpoint" labels use route patterns, never raw URLs with IDs
//
// Avoid adding labels derived from user input (grid IDs, categories,
// coordinates) as these create unbounded cardinality.
//
// # Alerting
//
// Suggested alert conditions:
//
//	# Contextual evaluator breaker stuck open
//	circuit_breaker_state{name="contextual-evaluator"} == 2
//
//	# No successful sweep in the last hour
//	time() - sweep_last_success_timestamp > 3600
//
//	# Elevated API error rate
//	sum(rate(api_requests_total{status_code=~"5.."}[5m])) /
//	sum(rate(api_requests_total[5m])) > 0.05
//
//	# Ingestion parse failures
//	rate(nats_messages_parse_failed_total[15m]) > 0
package metrics
