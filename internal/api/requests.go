// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// HTTP request validation structs with go-playground/validator tags. Each
// handler fills one of these from query parameters before any scoring work.
package api

// RankRequest holds the validated query parameters for GET /rank.
type RankRequest struct {
	Region   string `validate:"required,min=1"`
	Category string `validate:"required,min=1"`
	Limit    int    `validate:"min=1,max=100"`
}

// EvaluateRequest holds the validated query parameters for GET /evaluate.
// Radius is bounded to keep a single point query from degenerating into a
// region sweep.
type EvaluateRequest struct {
	Lat     float64 `validate:"latitude"`
	Lon     float64 `validate:"longitude"`
	RadiusM float64 `validate:"min=100,max=5000"`
	Mode    string  `validate:"oneof=fast full"`
}

// ExplainRequest holds the validated parameters for GET /explain/{gridID}.
type ExplainRequest struct {
	GridID   string `validate:"required,min=1"`
	Category string `validate:"required,min=1"`
}
