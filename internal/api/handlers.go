// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/situs/internal/database"
	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/models"
	"github.com/tomtom215/situs/internal/scoring"
)

// maxImportBody bounds the dataset import request body (64 MB).
const maxImportBody = 64 << 20

// Ranker is the scoring surface the handlers need. Satisfied by
// *pipeline.Pipeline; the narrow interface keeps handler tests free of a
// full pipeline.
type Ranker interface {
	Rank(ctx context.Context, region, category string, limit int) ([]models.Recommendation, error)
	Evaluate(ctx context.Context, lat, lon, radiusM float64, mode string) (models.Recommendation, error)
	Explain(ctx context.Context, gridID, category string) (models.Explanation, error)
}

// HandlerConfig carries the request-shaping settings from config.APIConfig.
type HandlerConfig struct {
	DefaultLimit        int
	MaxLimit            int
	DefaultPointRadiusM float64
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	ranker   Ranker
	index    *grid.Index
	engine   *scoring.Engine
	importer *database.Importer
	db       *database.DB
	cfg      HandlerConfig
	started  time.Time
}

// NewHandler wires the handler set. importer and db may be nil in tests
// that exercise only the scoring endpoints.
func NewHandler(ranker Ranker, index *grid.Index, engine *scoring.Engine, importer *database.Importer, db *database.DB, cfg HandlerConfig) *Handler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.DefaultPointRadiusM <= 0 {
		cfg.DefaultPointRadiusM = 1000
	}
	return &Handler{
		ranker:   ranker,
		index:    index,
		engine:   engine,
		importer: importer,
		db:       db,
		cfg:      cfg,
		started:  time.Now(),
	}
}

// Rank handles GET /api/v1/rank.
//
// @Summary Rank grid cells for a category
// @Description Scores every grid cell of a region for the given business category and returns the top candidates, best first.
// @Tags scoring
// @Produce json
// @Param region query string true "Region name"
// @Param category query string true "Business category"
// @Param limit query int false "Maximum results (1-100)" default(10)
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/rank [get]
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := RankRequest{
		Region:   r.URL.Query().Get("region"),
		Category: r.URL.Query().Get("category"),
		Limit:    getIntParam(r, "limit", h.cfg.DefaultLimit),
	}
	if req.Limit > h.cfg.MaxLimit {
		req.Limit = h.cfg.MaxLimit
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	recs, err := h.ranker.Rank(r.Context(), req.Region, req.Category, req.Limit)
	if err != nil {
		h.respondScoringError(w, r, err)
		return
	}

	respondData(w, recs, started)
}

// Evaluate handles GET /api/v1/evaluate.
//
// @Summary Evaluate a single point
// @Description Scores one location across all configured categories. Full mode adds the contextual assessment; fast mode is rule-only.
// @Tags scoring
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_m query number false "Catchment radius in meters (100-5000)" default(1000)
// @Param mode query string false "fast or full" default(fast)
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/evaluate [get]
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := EvaluateRequest{
		Lat:     getFloatParam(r, "lat", 0),
		Lon:     getFloatParam(r, "lon", 0),
		RadiusM: getFloatParam(r, "radius_m", h.cfg.DefaultPointRadiusM),
		Mode:    r.URL.Query().Get("mode"),
	}
	if req.Mode == "" {
		req.Mode = models.ModeFast
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	rec, err := h.ranker.Evaluate(r.Context(), req.Lat, req.Lon, req.RadiusM, req.Mode)
	if err != nil {
		h.respondScoringError(w, r, err)
		return
	}

	respondData(w, rec, started)
}

// Explain handles GET /api/v1/explain/{gridID}.
//
// @Summary Explain a cell's score
// @Description Returns the evidence behind one grid cell's score for a category: top social posts and nearby competitors.
// @Tags scoring
// @Produce json
// @Param gridID path string true "Grid cell ID"
// @Param category query string true "Business category"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/explain/{gridID} [get]
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := ExplainRequest{
		GridID:   chi.URLParam(r, "gridID"),
		Category: r.URL.Query().Get("category"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	exp, err := h.ranker.Explain(r.Context(), req.GridID, req.Category)
	if err != nil {
		h.respondScoringError(w, r, err)
		return
	}

	respondData(w, exp, started)
}

// Regions handles GET /api/v1/regions.
//
// @Summary List configured regions
// @Tags configuration
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/v1/regions [get]
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.index == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeConfiguration, "grid index not loaded", nil)
		return
	}
	respondData(w, h.index.Describe(), started)
}

// Categories handles GET /api/v1/categories.
//
// @Summary List configured categories and rule tables
// @Tags configuration
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/v1/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeConfiguration, "scoring engine not loaded", nil)
		return
	}
	respondData(w, h.engine.Describe(), started)
}

// ImportDatasets handles POST /api/v1/datasets/import.
//
// @Summary Import business and signal datasets
// @Description Imports a JSON payload of business records and/or social signals into the dataset store. Idempotent by content fingerprint.
// @Tags datasets
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/v1/datasets/import [post]
func (h *Handler) ImportDatasets(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if h.importer == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeConfiguration, "dataset store not configured", nil)
		return
	}

	var payload database.DatasetPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err := dec.Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "malformed import payload: "+err.Error(), nil)
		return
	}

	stats, err := h.importer.Import(r.Context(), &payload)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInvalidDataset):
			respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		case errors.Is(err, database.ErrImportInProgress):
			respondError(w, http.StatusConflict, ErrCodeConflict, "an import is already running", nil)
		default:
			logging.Error().Err(err).Msg("Dataset import failed")
			respondError(w, http.StatusInternalServerError, ErrCodeInternal, "import failed", nil)
		}
		return
	}

	respondData(w, stats, started)
}

// respondScoringError maps pipeline errors to HTTP statuses. Degraded
// results never reach here; the pipeline returns them as 200 payloads with
// lowered confidence.
func (h *Handler) respondScoringError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away or the server timed out the request.
		respondError(w, http.StatusServiceUnavailable, ErrCodeInternal, "request canceled", nil)
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, models.ErrConfiguration):
		respondError(w, http.StatusBadRequest, ErrCodeConfiguration, err.Error(), nil)
	case errors.Is(err, models.ErrUpstreamUnavailable):
		respondError(w, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "no data source could serve the request", nil)
	default:
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("Scoring request failed")
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error", nil)
	}
}
