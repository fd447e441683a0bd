// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package testinfra provides testcontainers-based infrastructure for
// integration tests: a Postgres container for exercising the curated-dataset
// source against a real database, plus Docker availability helpers.
//
// Everything here is gated behind the "integration" build tag; unit test
// runs never touch Docker.
package testinfra
