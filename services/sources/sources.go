// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sources fetches the external signals that feed a digest run:
// release notes (GitHub), health metrics (Datadog), and recent incidents.
//
// Every fetcher degrades instead of failing. Missing credentials yield a
// canned mock payload immediately; a live call that errors, returns non-2xx,
// or produces an undecodable body yields the same canned payload tagged as a
// fallback. Callers never see an error from a fetcher - degraded data is a
// documented mode, not a failure.
//
// There are no retries and no timeout beyond the HTTP client's default.
// A fallback is a single substitution, not a retry loop.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Origin tags where a fetch result's payload came from.
type Origin string

const (
	// OriginLive means the payload came from the provider API.
	OriginLive Origin = "live"

	// OriginMock means credentials were absent and the canned payload was
	// returned without attempting a live call.
	OriginMock Origin = "mock"

	// OriginFallback means a live call was attempted and failed, and the
	// canned payload was substituted.
	OriginFallback Origin = "fallback"
)

// FetchResult is the outcome of one source fetch. Payload is always usable;
// Origin distinguishes live data from the degraded modes.
type FetchResult[T any] struct {
	Source     string
	Origin     Origin
	CapturedAt time.Time
	Payload    T
}

// Provenance renders the source string for a digest's provenance trail.
// Fallback results carry a " (fallback)" suffix so a degraded run is
// distinguishable from a true mock run in persisted history.
func (r FetchResult[T]) Provenance() string {
	if r.Origin == OriginFallback {
		return r.Source + " (fallback)"
	}
	return r.Source
}

// Config holds provider credentials. Empty credentials switch the matching
// fetcher into mock mode.
type Config struct {
	GitHubToken string
	GitHubRepo  string // "owner/repo"; defaults to "<product>/<product>"

	DatadogAPIKey string
	DatadogAppKey string
	DatadogSite   string // defaults to "datadoghq.com"

	IncidentsURL string
	IncidentsKey string
}

// ConfigFromEnv reads provider credentials from the environment.
func ConfigFromEnv() Config {
	return Config{
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:    os.Getenv("GITHUB_REPO"),
		DatadogAPIKey: os.Getenv("DATADOG_API_KEY"),
		DatadogAppKey: os.Getenv("DATADOG_APP_KEY"),
		DatadogSite:   os.Getenv("DATADOG_SITE"),
		IncidentsURL:  os.Getenv("INCIDENTS_API_URL"),
		IncidentsKey:  os.Getenv("INCIDENTS_API_KEY"),
	}
}

// Client fetches all three source kinds. Safe for concurrent use: fetches
// are read-only against external services and write only to their own
// result values.
type Client struct {
	HTTP   HTTPClient
	Config Config

	// now is a test hook; defaults to time.Now.
	now func() time.Time
}

// NewClient creates a Client with the standard 30 second HTTP timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: 30 * time.Second},
		Config: cfg,
		now:    time.Now,
	}
}

// Fetcher is the surface the digest aggregator consumes. *Client implements it.
type Fetcher interface {
	FetchReleaseHighlights(ctx context.Context, productID string) FetchResult[[]datatypes.ReleaseHighlight]
	FetchHealthMetrics(ctx context.Context, productID string) FetchResult[[]datatypes.HealthMetric]
	FetchIncidents(ctx context.Context, productID string) FetchResult[[]string]
}

var _ Fetcher = (*Client)(nil)

// mockResult builds a result for the credentials-absent path.
func mockResult[T any](source string, at time.Time, payload T) FetchResult[T] {
	return FetchResult[T]{Source: source, Origin: OriginMock, CapturedAt: at, Payload: payload}
}

// fallbackResult builds a result for a failed live call.
func fallbackResult[T any](source string, at time.Time, payload T) FetchResult[T] {
	return FetchResult[T]{Source: source, Origin: OriginFallback, CapturedAt: at, Payload: payload}
}

// liveResult builds a result for a successful live call.
func liveResult[T any](source string, at time.Time, payload T) FetchResult[T] {
	return FetchResult[T]{Source: source, Origin: OriginLive, CapturedAt: at, Payload: payload}
}

// getJSON performs a GET-style request and decodes the JSON body into out.
// Non-2xx responses and decode failures are errors; the caller converts
// them into a fallback result.
func (c *Client) getJSON(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
