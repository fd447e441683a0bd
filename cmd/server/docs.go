// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package main provides the Situs HTTP server
//
// Situs scores geographic grid cells for business suitability by combining
// business density data, social signals, and rule-based scoring, with an
// optional contextual assessment for full-mode evaluations.
//
// @title Situs API
// @version 1.0
// @description Location opportunity scoring and recommendation engine
// @description
// @description ## Features
// @description
// @description - **Grid Ranking**: Rank every cell of a region for a business category
// @description - **Point Evaluation**: Score a single location across all categories (fast or full mode)
// @description - **Explanations**: Evidence behind a cell's score: top posts and nearby competitors
// @description - **Dataset Imports**: Idempotent JSON imports of businesses and social signals
// @description - **Real-time Progress**: WebSocket stream of sweep progress events
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Dataset imports are limited to 10 per minute; health probes to 1000 per minute.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-08-28T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/situs/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8095
// @BasePath /api/v1
// @schemes http https
//
// @tag.name scoring
// @tag.description Grid ranking, point evaluation, and score explanation endpoints
//
// @tag.name configuration
// @tag.description Configured regions, categories, and rule tables
//
// @tag.name datasets
// @tag.description Dataset import endpoints feeding the embedded store
//
// @tag.name health
// @tag.description Liveness, readiness, and component health reports
package main
