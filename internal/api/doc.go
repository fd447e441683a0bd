// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

/*
Package api provides the HTTP surface of the opportunity scoring engine.

Routing uses chi with the chi ecosystem middleware (RealIP, Recoverer,
go-chi/cors, go-chi/httprate) plus the local request-ID, compression, and
Prometheus middleware. Every endpoint responds with the standard envelope
{status, data, metadata, error}; request parameters are validated with
go-playground/validator before any work happens.

Endpoints:

  - GET  /api/v1/rank       — rank a region's grid cells for a category
  - GET  /api/v1/evaluate   — score a single point (fast or full mode)
  - GET  /api/v1/explain/{gridID} — evidence behind a cell's score
  - GET  /api/v1/regions    — configured regions and partitions
  - GET  /api/v1/categories — configured categories and rule tables
  - POST /api/v1/datasets/import — import business/signal datasets
  - GET  /api/v1/ws         — sweep progress stream (websocket)
  - GET  /api/v1/health{,/live,/ready} — health and readiness
  - GET  /metrics           — Prometheus
  - GET  /api/v1/docs/*     — swagger UI

Error mapping: models.ErrNotFound is 404, models.ErrConfiguration and
validation failures are 400, database.ErrImportInProgress is 409, and
anything else is 500. Sweeps that lost a data source still return 200 with
low-confidence entries; only a request no source could serve at all maps to
502.
*/
package api
