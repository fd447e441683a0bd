// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/situs/internal/models"
	"github.com/tomtom215/situs/internal/version"
)

// Health handles GET /api/v1/health: a full component report.
//
// @Summary Health report
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/v1/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	dbConnected := false
	if h.db != nil {
		dbConnected = h.db.Ping(r.Context()) == nil
	}

	regionCount := 0
	if h.index != nil {
		regionCount = len(h.index.RegionNames())
	}

	status := "healthy"
	if !dbConnected || h.index == nil {
		status = "degraded"
	}

	respondData(w, models.HealthStatus{
		Status:            status,
		Version:           version.String(),
		DatabaseConnected: dbConnected,
		GridIndexLoaded:   h.index != nil,
		RegionCount:       regionCount,
		UptimeSeconds:     time.Since(h.started).Seconds(),
	}, started)
}

// HealthLive handles GET /api/v1/health/live. Liveness means the process
// answers; it never inspects dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires the
// dataset store to answer a ping and the grid index to be loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if h.index == nil || h.index.CellCount() == 0 {
		respondError(w, http.StatusServiceUnavailable, ErrCodeConfiguration, "grid index not loaded", nil)
		return
	}
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "dataset store not reachable", nil)
			return
		}
	}

	respondData(w, map[string]string{"status": "ready"}, started)
}
