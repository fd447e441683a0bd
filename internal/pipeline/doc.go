// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

/*
Package pipeline orchestrates the recommendation engine. It is the only
component the API layer calls.

Three operations:

  - Rank: grid sweep over a region and category. Aggregates raw signals per
    cell, normalizes across the run, rule-scores every cell on a bounded
    worker pool, and returns the top cells with evidence and a rationale.
  - Evaluate: point query for an arbitrary coordinate, independent of any
    pre-built grid. Derives a business environment vector, rule-scores every
    configured category, and in full mode blends in one contextual
    assessment for the leading category.
  - Explain: evidence and rationale for one existing grid cell.

Each request walks a fixed stage sequence (received, aggregating,
normalizing, rule_scoring, contextual_pending, combining, explaining, done)
with wall-clock timings recorded per stage. The contextual_pending stage is
skipped entirely in fast mode and collapses to the degraded rule-only path
when the evaluator fails or times out.

Degradation, never failure: a source outage mid-sweep scores the run with
whatever data is available (missing counts are zero) at lowered confidence;
a contextual failure downgrades that single evaluation to rule-only.
Only unknown regions/categories (NotFound) and invalid requests
(Configuration) propagate as errors.

All shared state - the grid index, rule tables, the combiner - is immutable
after construction, so per-cell evaluations run in parallel without locking,
and the final order is deterministic regardless of completion order.
*/
package pipeline
