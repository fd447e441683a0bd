// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package validation provides request DTO validation using
// go-playground/validator v10 behind a thread-safe singleton.
//
// The API layer declares its constraints as struct tags and calls
// ValidateStruct before touching the pipeline:
//
//	type RankRequest struct {
//	    Region   string `validate:"required"`
//	    Category string `validate:"required"`
//	    Limit    int    `validate:"min=1,max=100"`
//	}
//
// Failures translate to the envelope's VALIDATION_ERROR shape via
// ToAPIError, with one human-readable message per failing field.
package validation
