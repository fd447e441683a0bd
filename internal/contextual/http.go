// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package contextual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// maxErrorBodySize limits the maximum amount of response body read for error reporting
// This prevents unbounded memory allocation when reading large error responses
const maxErrorBodySize = 64 * 1024 // 64KB

// defaultTimeout is the per-call budget for one assessment. The pipeline
// treats an expired budget the same as any other evaluator failure.
const defaultTimeout = 8 * time.Second

const defaultModel = "gpt-4o-mini"

// breakerName labels the evaluator's circuit breaker in logs and metrics.
const breakerName = "contextual-evaluator"

// Options configures an HTTPEvaluator.
type Options struct {
	// BaseURL is the evaluator endpoint root, without the /v1 path
	// (e.g. "https://api.openai.com"). Required.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model names the chat completion model. Defaults to gpt-4o-mini.
	Model string

	// Timeout bounds each Assess call end to end, including the rate
	// limiter wait. Defaults to 8 seconds.
	Timeout time.Duration

	// RequestsPerSecond caps outbound request rate. Zero or negative
	// disables limiting.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size, minimum 1.
	Burst int
}

// HTTPEvaluator assesses locations via an OpenAI-compatible chat completion
// endpoint. Each call carries the category and the BEV snapshot and expects
// a strict-JSON assessment back.
//
// Resilience: per-call timeout, outbound rate limit (golang.org/x/time/rate),
// and a circuit breaker (sony/gobreaker) that opens after a 60% failure rate
// over at least 10 requests. While open, Assess fails fast without touching
// the network.
//
// DETERMINISM NOTE: The circuit breaker uses real time for its interval and
// timeout calculations. Tests should exercise the evaluator against an
// httptest server or use StubEvaluator, not manipulate the breaker.
//
// Thread Safety: Safe for concurrent use.
type HTTPEvaluator struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*models.ContextualAssessment]
	name    string
}

// NewHTTPEvaluator creates an evaluator for the given endpoint.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewHTTPEvaluator(opts Options) *HTTPEvaluator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	// Initialize circuit breaker state metrics
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*models.ContextualAssessment](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,               // Allow 3 concurrent requests in half-open state
		Interval:    time.Minute,     // Reset counts after 1 minute in closed state
		Timeout:     2 * time.Minute, // Wait 2 minutes before transitioning from open to half-open

		// ReadyToTrip determines when to open the circuit
		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // Need at least 10 requests for statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		// OnStateChange is called whenever the circuit breaker changes state
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			// Update metrics
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			// Reset consecutive failures when transitioning to closed
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	e := &HTTPEvaluator{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   model,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
		name:    breakerName,
	}

	logging.Info().
		Str("endpoint", logging.SanitizeURL(e.baseURL)).
		Str("api_key", logging.SanitizeToken(e.apiKey)).
		Str("model", e.model).
		Msg("Contextual evaluator configured")

	return e
}

// Assess requests a contextual assessment for the category at the BEV's
// center. Every failure is wrapped in models.ErrContextualEvaluator; use
// FallbackReason to classify it for metrics.
func (e *HTTPEvaluator) Assess(ctx context.Context, category string, bev models.BusinessEnvironmentVector) (*models.ContextualAssessment, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	assessment, err := e.execute(func() (*models.ContextualAssessment, error) {
		return e.assess(ctx, category, bev)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrContextualEvaluator, err)
	}
	return assessment, nil
}

// execute wraps an evaluator call with circuit breaker protection
// Returns the result or an error if circuit is open or request fails
func (e *HTTPEvaluator) execute(fn func() (*models.ContextualAssessment, error)) (*models.ContextualAssessment, error) {
	result, err := e.cb.Execute(fn)

	// Update metrics based on result
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Circuit is open or too many concurrent requests in half-open state
			metrics.CircuitBreakerRequests.WithLabelValues(e.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Assessment rejected")
		} else {
			// Request failed
			metrics.CircuitBreakerRequests.WithLabelValues(e.name, "failure").Inc()

			// Increment consecutive failures
			counts := e.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(e.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	// Request succeeded
	metrics.CircuitBreakerRequests.WithLabelValues(e.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(e.name).Set(0)

	return result, nil
}

// chatRequest is the OpenAI-compatible chat completion request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the completion response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You assess locations for new businesses. Given a business category and a JSON snapshot of the surrounding environment (competitor densities, landmark distances, ratings), respond with a single JSON object and nothing else:
{"probability": <float 0..1, chance the business succeeds here>, "reasoning": <one short paragraph>, "risks": [<short strings>], "key_factors": [<short strings>]}`

// assess performs one chat completion round trip.
func (e *HTTPEvaluator) assess(ctx context.Context, category string, bev models.BusinessEnvironmentVector) (*models.ContextualAssessment, error) {
	// Respect the per-call budget while waiting for a rate limiter slot
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(struct {
		Category    string                           `json:"category"`
		Environment models.BusinessEnvironmentVector `json:"environment"`
	}{Category: category, Environment: bev})
	if err != nil {
		return nil, fmt.Errorf("failed to encode environment snapshot: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(snapshot)},
		},
		Temperature:    0.1,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := e.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assess request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody := readBodyForError(resp.Body)
		logging.Warn().Int("status", resp.StatusCode).Str("error", logging.SanitizeError(string(respBody))).Msg("Contextual evaluator returned non-200")
		return nil, fmt.Errorf("assess request failed with status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("%w: failed to decode completion: %w", errInvalidAssessment, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion has no choices", errInvalidAssessment)
	}

	var assessment models.ContextualAssessment
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &assessment); err != nil {
		return nil, fmt.Errorf("%w: failed to parse assessment: %w", errInvalidAssessment, err)
	}
	if assessment.Probability < 0 || assessment.Probability > 1 {
		return nil, fmt.Errorf("%w: probability %v out of range [0,1]", errInvalidAssessment, assessment.Probability)
	}

	return &assessment, nil
}

// readBodyForError reads the response body for error reporting (max 64KB)
// Returns the body content or a placeholder message if reading fails
// Uses io.LimitReader to prevent unbounded memory allocation
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	// If we hit the limit, indicate truncation
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
