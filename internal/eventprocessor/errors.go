// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package eventprocessor

import (
	"errors"
	"fmt"
)

// ErrNATSNotEnabled is returned when NATS features are used without the nats
// build tag.
var ErrNATSNotEnabled = errors.New("signal ingestion not enabled (build with -tags nats)")

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidEvent marks events that fail envelope validation.
var ErrInvalidEvent = errors.New("invalid signal event")

// ErrInvalidConfig marks unusable bus configuration.
var ErrInvalidConfig = errors.New("invalid ingestion configuration")

// FieldError reports which envelope field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidEvent, e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidEvent }
