// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

import "errors"

// Sentinel errors shared across the engine. Callers classify failures with
// errors.Is and wrap these with fmt.Errorf("%w: ...") to add context.
//
// Handling policy:
//   - ErrConfiguration: fatal at startup, never retried. Bad grid size,
//     combiner weights that do not sum to 1.0, malformed rule tables.
//   - ErrNotFound: unknown region, grid, or category. Surfaced to the caller
//     immediately (HTTP 404).
//   - ErrUpstreamUnavailable: a business or social source failed after its
//     own bounded retries. The affected grid or point is scored from whatever
//     partial data exists and flagged low-confidence, never failed outright.
//   - ErrContextualEvaluator: the contextual evaluator errored or timed out.
//     Never fatal; the single evaluation downgrades to rule-only scoring.
//   - ErrDataIntegrity: the grid partition has overlaps or gaps. Fatal at
//     load, since every downstream result depends on a true partition.
var (
	ErrConfiguration       = errors.New("invalid configuration")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrContextualEvaluator = errors.New("contextual evaluator failure")
	ErrDataIntegrity       = errors.New("grid partition integrity violation")
)
