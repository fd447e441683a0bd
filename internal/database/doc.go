// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

/*
Package database provides the embedded DuckDB dataset store.

The store holds imported business records and social signals and serves as
the default BusinessSource and SocialSource for the recommendation pipeline.

Tables:
  - businesses: one row per business (rating is NULL when the upstream
    dataset carried none)
  - social_signals: one row per demand/complaint/mention post (lat/lon are
    NULL for posts without a usable geotag)
  - dataset_imports: one row per imported payload, keyed by its BLAKE2b-256
    content fingerprint

Imports are idempotent twice over: a payload whose fingerprint is already
recorded is a no-op, and every row insert uses INSERT OR REPLACE so a
re-run of an interrupted import never duplicates rows. Import
progress checkpoints through a ProgressTracker (BadgerDB in production,
in-memory in tests) so an interrupted import resumes at its last batch.

Queries use ? placeholders and a prepared-statement cache with double-checked
locking. Close checkpoints the WAL before releasing the connection so the
next startup replays nothing.
*/
package database
