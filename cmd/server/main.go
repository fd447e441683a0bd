// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	_ "github.com/tomtom215/situs/docs" // Swagger documentation
	"github.com/tomtom215/situs/internal/api"
	"github.com/tomtom215/situs/internal/cache"
	"github.com/tomtom215/situs/internal/config"
	"github.com/tomtom215/situs/internal/contextual"
	"github.com/tomtom215/situs/internal/database"
	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/models"
	"github.com/tomtom215/situs/internal/pipeline"
	"github.com/tomtom215/situs/internal/scoring"
	"github.com/tomtom215/situs/internal/sources"
	"github.com/tomtom215/situs/internal/supervisor"
	"github.com/tomtom215/situs/internal/supervisor/services"
	ws "github.com/tomtom215/situs/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Situs with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("provider", cfg.Sources.Provider).
		Int("regions", len(cfg.Grid.Regions)).
		Bool("contextual", cfg.Contextual.Enabled).
		Msg("Configuration loaded")

	// Initialize DuckDB store for businesses and social signals
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Build the immutable grid index from configured regions
	specs := make([]grid.RegionSpec, 0, len(cfg.Grid.Regions))
	for _, r := range cfg.Grid.Regions {
		specs = append(specs, grid.RegionSpec{
			Name: r.Name,
			Bounds: models.BoundingBox{
				North: r.North,
				South: r.South,
				East:  r.East,
				West:  r.West,
			},
			CellSizeM: cfg.Grid.CellSizeM,
		})
	}
	index, err := grid.BuildIndex(specs)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build grid index")
	}
	logging.Info().
		Int("regions", len(index.RegionNames())).
		Int("cells", index.CellCount()).
		Float64("cell_size_m", cfg.Grid.CellSizeM).
		Msg("Grid index built")

	// Scoring components: aggregator, rule engine, combiner, BEV generator
	agg, err := scoring.NewAggregator(cfg.Scoring.Channels, cfg.Scoring.WindowDays)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create signal aggregator")
	}

	var tables []scoring.RuleTable
	if cfg.Scoring.RulesPath != "" {
		tables, err = scoring.LoadTables(cfg.Scoring.RulesPath)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Scoring.RulesPath).Msg("Failed to load rule tables")
		}
		logging.Info().Str("path", cfg.Scoring.RulesPath).Int("tables", len(tables)).Msg("Rule tables loaded from file")
	} else {
		tables, err = scoring.DefaultTables(cfg.Scoring.Categories, cfg.Scoring.GridWeights)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to build default rule tables")
		}
	}
	engine, err := scoring.NewEngine(tables)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create rule engine")
	}

	combiner, err := scoring.NewCombiner(cfg.Scoring.Weights, cfg.Scoring.Tiers)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create score combiner")
	}

	bevGen, err := scoring.NewGenerator(db, scoring.DefaultLandmarks(), scoring.DefaultProximityKm())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create BEV generator")
	}

	// BadgerDB backs the cache and import progress tracking when configured
	var badgerDB *badger.DB
	if cfg.Cache.Backend == string(cache.BackendBadger) && cfg.Cache.Path != "" {
		opts := badger.DefaultOptions(cfg.Cache.Path).WithLogger(nil)
		badgerDB, err = badger.Open(opts)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("Failed to open BadgerDB, falling back to memory cache")
		} else {
			defer func() {
				if err := badgerDB.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing BadgerDB")
				}
			}()
			logging.Info().Str("path", cfg.Cache.Path).Msg("BadgerDB opened")
		}
	}
	cacher := cache.NewCacher(cache.Config{
		Backend: cache.Backend(cfg.Cache.Backend),
		TTL:     cfg.Cache.TTL,
	}, badgerDB)

	// Business and social sources, wrapped with caching and retries
	business, social, err := buildSources(cfg, db, cacher)
	if err != nil {
		logging.Fatal().Err(err).Str("provider", cfg.Sources.Provider).Msg("Failed to initialize data sources")
	}

	// Contextual evaluator (optional LLM-backed assessment)
	var evaluator contextual.Evaluator
	if cfg.Contextual.Enabled {
		evaluator = contextual.NewHTTPEvaluator(contextual.Options{
			BaseURL:           cfg.Contextual.BaseURL,
			APIKey:            cfg.Contextual.APIKey,
			Model:             cfg.Contextual.Model,
			Timeout:           cfg.Contextual.Timeout,
			RequestsPerSecond: cfg.Contextual.RequestsPerSecond,
			Burst:             cfg.Contextual.Burst,
		})
		logging.Info().
			Str("base_url", cfg.Contextual.BaseURL).
			Str("model", cfg.Contextual.Model).
			Msg("Contextual evaluator enabled")
	} else {
		logging.Info().Msg("Contextual evaluator disabled, full-mode requests score rule-only")
	}

	// WebSocket hub for progress streaming (optional)
	var wsHub *ws.Hub
	var notifier pipeline.ProgressNotifier
	if cfg.WebSocket.Enabled {
		wsHub = ws.NewHub()
		notifier = ws.NewNotifier(wsHub)
	}

	pipe, err := pipeline.New(index, agg, engine, combiner, bevGen, business, social, evaluator, notifier, pipeline.Config{
		WindowDays:     cfg.Scoring.WindowDays,
		Workers:        cfg.Scoring.Workers,
		TopPosts:       cfg.Scoring.TopPosts,
		TopCompetitors: cfg.Scoring.TopCompetitors,
		TraceEnabled:   cfg.Scoring.TraceEnabled,
		Complementary:  cfg.Scoring.Complementary,
		ProgressEvery:  cfg.WebSocket.ProgressEvery,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create scoring pipeline")
	}

	// Dataset importer with resumable progress tracking
	var progress database.ProgressTracker
	if badgerDB != nil {
		progress = database.NewBadgerProgress(badgerDB)
	} else {
		progress = database.NewInMemoryProgress()
	}
	importer := database.NewImporter(db, progress)

	handler := api.NewHandler(pipe, index, engine, importer, db, api.HandlerConfig{
		DefaultLimit:        cfg.API.DefaultLimit,
		MaxLimit:            cfg.API.MaxLimit,
		DefaultPointRadiusM: cfg.Scoring.PointRadiusM,
	})
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.API.RateLimitReqs,
		RateLimitWindow:    cfg.API.RateLimitWindow,
	})
	wsHandler := api.NewWebSocketHandler(wsHub)
	router := api.NewRouter(handler, wsHandler, mw, cfg.API.SwaggerEnabled)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Ingestion layer: NATS JetStream signal ingestion (requires -tags nats)
	ingest, err := InitIngest(cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize signal ingestion")
	}
	if ingest != nil {
		tree.AddIngestionService(services.NewIngestService(ingest))
		logging.Info().Msg("Signal ingestion added to supervisor tree")
	}

	// Messaging layer: WebSocket hub
	if wsHub != nil {
		tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
		logging.Info().Msg("WebSocket hub added to supervisor tree")
	}

	// API layer: HTTP server
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildSources constructs the business and social sources for the configured
// provider and wraps both with the shared cache and retry policy. The duckdb
// provider serves both kinds of records from the local store; overpass serves
// businesses from the Overpass API with social signals from the local store;
// postgres serves both from an external PostgreSQL database.
func buildSources(cfg *config.Config, db *database.DB, cacher cache.Cacher) (sources.BusinessSource, sources.SocialSource, error) {
	policy := sources.DefaultRetryPolicy()
	if cfg.Sources.RetryAttempts > 0 {
		policy.MaxRetries = cfg.Sources.RetryAttempts
	}
	if cfg.Sources.RetryDelay > 0 {
		policy.InitialBackoff = cfg.Sources.RetryDelay
	}

	var business sources.BusinessSource
	var social sources.SocialSource

	switch cfg.Sources.Provider {
	case "duckdb", "":
		business = db
		social = db
	case "overpass":
		business = sources.NewOverpassSource(sources.OverpassConfig{
			Endpoint:          cfg.Sources.Overpass.Endpoint,
			Timeout:           cfg.Sources.Overpass.Timeout,
			RequestsPerSecond: cfg.Sources.Overpass.RequestsPerSecond,
		})
		social = db
	case "postgres":
		pg, err := sources.NewPostgresSource(sources.PostgresConfig{
			DSN:             cfg.Sources.Postgres.DSN,
			MaxOpenConns:    cfg.Sources.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Sources.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Sources.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres source: %w", err)
		}
		business = pg
		social = pg
	default:
		return nil, nil, fmt.Errorf("%w: unknown sources provider %q", models.ErrConfiguration, cfg.Sources.Provider)
	}

	name := cfg.Sources.Provider
	if name == "" {
		name = "duckdb"
	}
	business = sources.WrapBusinessSource(name, business, cacher, cfg.Sources.CacheTTL, policy)
	social = sources.WrapSocialSource(name, social, cacher, cfg.Sources.CacheTTL, policy)
	return business, social, nil
}
