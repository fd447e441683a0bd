// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/situs/internal/middleware"
)

// Router assembles the HTTP surface of the engine.
type Router struct {
	handler       *Handler
	wsHandler     *WebSocketHandler
	chiMiddleware *ChiMiddleware
	swagger       bool
}

// NewRouter wires handlers and middleware into a router. wsHandler may be
// nil when the progress stream is disabled.
func NewRouter(handler *Handler, wsHandler *WebSocketHandler, mw *ChiMiddleware, swaggerEnabled bool) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	if wsHandler == nil {
		wsHandler = NewWebSocketHandler(nil)
	}
	return &Router{
		handler:       handler,
		wsHandler:     wsHandler,
		chiMiddleware: mw,
		swagger:       swaggerEnabled,
	}
}

// chiMiddlewareFn adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler so r.Use() can take it.
func chiMiddlewareFn(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health endpoints get the permissive limiter so monitoring probes
	// never exhaust the API quota.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Scoring and configuration endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(chiMiddlewareFn(middleware.PrometheusMetrics))
		r.Use(chiMiddlewareFn(middleware.Compression))

		r.Get("/rank", router.handler.Rank)
		r.Get("/evaluate", router.handler.Evaluate)
		r.Get("/explain/{gridID}", router.handler.Explain)
		r.Get("/regions", router.handler.Regions)
		r.Get("/categories", router.handler.Categories)
		r.Get("/ws", router.wsHandler.Serve)
	})

	// Dataset imports hold an exclusive write transaction; rate limit them
	// hard.
	r.Route("/api/v1/datasets", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitImport())
		r.Use(SecurityHeaders())
		r.Use(chiMiddlewareFn(middleware.PrometheusMetrics))

		r.Post("/import", router.handler.ImportDatasets)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())
	if router.swagger {
		r.Get("/api/v1/docs/*", httpSwagger.Handler(
			httpSwagger.URL("/api/v1/docs/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("list"),
			httpSwagger.DomID("swagger-ui"),
		))
	}

	return r
}
