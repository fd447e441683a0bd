// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package scoring implements the deterministic half of the engine: raw-metric
// aggregation, run-wide normalization, business-environment vectors, the
// data-driven rule interpreter, and the score combiner.
//
// Rule tables are data, not code. Each table declares a base score and an
// ordered list of rules (predicate, delta, optional scale-by feature, reason)
// over named features; one generic interpreter evaluates every table, so
// category knowledge lives entirely in configuration. Grid tables express the
// canonical weighted formula over normalized metrics; point tables apply
// threshold deltas over an environment vector.
//
// Everything in this package is a pure function of its inputs. The only I/O
// lives in the BEV generator, which fetches businesses through the
// BusinessFetcher interface its caller supplies.
package scoring
