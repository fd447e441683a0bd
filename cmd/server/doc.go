// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

/*
Package main is the entry point for the Situs server application.

Situs scores locations for business opportunity. It divides configured
geographic regions into uniform grid cells, aggregates business density and
social signals per cell, applies a rule-based scoring engine, and serves
ranked recommendations with evidence-backed explanations over a REST API.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("situs")
	├── IngestionSupervisor ("ingestion-layer")
	│   └── Signal ingestion (optional, -tags nats)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub (progress streaming)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB store for businesses and social signals
 4. Grid Index: immutable cell index built from configured regions
 5. Scoring: aggregator, rule engine, combiner, BEV generator
 6. Sources: duckdb, Overpass, or PostgreSQL, with cache and retries
 7. Contextual Evaluator: optional LLM-backed assessment
 8. Pipeline: orchestrates sweeps, point queries, and explanations
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file (config.yaml) > Defaults

Environment variables use the SITUS_ prefix with "__" for nesting:

	# Server
	SITUS_SERVER__PORT=8095
	SITUS_LOGGING__LEVEL=info            # trace, debug, info, warn, error
	SITUS_LOGGING__FORMAT=json           # json or console

	# Data sources
	SITUS_SOURCES__PROVIDER=duckdb       # duckdb, overpass, or postgres
	SITUS_DATABASE__PATH=situs.db

	# Contextual assessment (optional)
	SITUS_CONTEXTUAL__ENABLED=true
	SITUS_CONTEXTUAL__BASE_URL=https://api.openai.com
	SITUS_CONTEXTUAL__API_KEY=<key>

	# Signal ingestion (optional, requires -tags nats)
	SITUS_NATS__ENABLED=true
	SITUS_NATS__EMBEDDED_SERVER=true

Regions and rule tables are configured in config.yaml; see config.example.yaml
for the complete reference.

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server               # Standard build
	go build -tags nats ./cmd/server    # Enable NATS JetStream signal ingestion

The nats tag adds the embedded JetStream server and the durable signal
consumer to the ingestion layer of the supervisor tree. Without the tag,
nats.enabled=true logs a warning and ingestion stays off.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Waits for in-flight requests (10s timeout)
 3. Flushes and stops the signal consumer, then the embedded NATS server
 4. Closes the WebSocket hub
 5. Closes BadgerDB and the DuckDB store
 6. Reports any services that failed to stop

# Usage Examples

Development with bundled defaults:

	go run ./cmd/server

Scoring against live OpenStreetMap data:

	export SITUS_SOURCES__PROVIDER=overpass
	export SITUS_CACHE__BACKEND=badger SITUS_CACHE__PATH=/data/cache
	./situs

With signal ingestion:

	go build -tags nats ./cmd/server
	export SITUS_NATS__ENABLED=true SITUS_NATS__EMBEDDED_SERVER=true
	./situs

# API Documentation

Swagger documentation is available at /api/v1/docs/index.html when
api.swagger_enabled is set. The API is organized into categories:

  - Scoring: grid ranking, point evaluation, explanations
  - Configuration: regions and categories
  - Datasets: bulk import with resumable progress
  - Health: liveness and readiness probes

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/pipeline: Scoring orchestration
*/
package main
