// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
	"github.com/AleutianAI/ReleasePilot/services/pilot/observability"
	"github.com/AleutianAI/ReleasePilot/services/sources"
)

// HistoryRecorder receives each persisted run's metrics for trend history.
// Recording is best-effort: errors are logged, never fatal to a run.
type HistoryRecorder interface {
	RecordMetrics(ctx context.Context, productID string, at time.Time, metrics []datatypes.HealthMetric) error
}

// Aggregator runs the digest pipeline: fan out to the three source
// fetchers, infer the overall status, compose the summary, and persist
// (or preview) the resulting entry.
type Aggregator struct {
	Sources sources.Fetcher
	Store   Store

	// History is optional; nil disables metric-history recording.
	History HistoryRecorder

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics

	// now is a test hook; defaults to time.Now.
	now func() time.Time
}

// NewAggregator wires the pipeline with its required collaborators.
func NewAggregator(fetcher sources.Fetcher, store Store) *Aggregator {
	return &Aggregator{
		Sources: fetcher,
		Store:   store,
		now:     time.Now,
	}
}

// Run executes one aggregation attempt.
//
// The three fetches run concurrently and are joined before any state is
// touched; fetcher failures are absorbed inside the fetchers and never fail
// a run. Persistence failure is the only fatal path and is reported as
// ok=false rather than an error return - the caller never observes a raw
// failure, and no partial digest is ever written.
//
// With dryRun the digest gets a synthetic preview id and nothing is
// persisted. DurationMs is wall-clock time for the whole run.
func (a *Aggregator) Run(ctx context.Context, productID string, dryRun bool) datatypes.DigestRunResult {
	started := a.now()

	var (
		releases  sources.FetchResult[[]datatypes.ReleaseHighlight]
		metrics   sources.FetchResult[[]datatypes.HealthMetric]
		incidents sources.FetchResult[[]string]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		releases = a.Sources.FetchReleaseHighlights(gctx, productID)
		return nil
	})
	g.Go(func() error {
		metrics = a.Sources.FetchHealthMetrics(gctx, productID)
		return nil
	})
	g.Go(func() error {
		incidents = a.Sources.FetchIncidents(gctx, productID)
		return nil
	})
	_ = g.Wait() // fetchers absorb their own failures

	a.Metrics.RecordSourceResult("releases", string(releases.Origin))
	a.Metrics.RecordSourceResult("metrics", string(metrics.Origin))
	a.Metrics.RecordSourceResult("incidents", string(incidents.Origin))

	status := InferStatus(metrics.Payload)
	summary := ComposeSummary(releases.Payload, metrics.Payload, incidents.Payload, status)

	// Provenance trail, in fetch order.
	provenance := []string{releases.Provenance(), metrics.Provenance(), incidents.Provenance()}

	if dryRun {
		entry := datatypes.DigestEntry{
			ID:         fmt.Sprintf("dg-preview-%d", a.now().UnixMilli()),
			ProductID:  productID,
			Title:      titleFor(productID),
			Summary:    summary,
			Date:       a.now().UTC(),
			Status:     status,
			Highlights: releases.Payload,
			Metrics:    metrics.Payload,
			Incidents:  incidents.Payload,
			Sources:    provenance,
		}
		duration := a.now().Sub(started)
		a.Metrics.RecordRun("dry_run", string(status), duration.Seconds())
		return datatypes.DigestRunResult{
			OK:         true,
			Digest:     &entry,
			Sources:    provenance,
			DurationMs: duration.Milliseconds(),
		}
	}

	entry, err := a.Store.Create(ctx, CreateFields{
		ProductID:  productID,
		Title:      titleFor(productID),
		Summary:    summary,
		Status:     status,
		Highlights: releases.Payload,
		Metrics:    metrics.Payload,
		Incidents:  incidents.Payload,
		Sources:    provenance,
	})
	if err != nil {
		duration := a.now().Sub(started)
		slog.Error("Digest run failed", "product", productID, "error", err)
		a.Metrics.RecordRun("error", "none", duration.Seconds())
		return datatypes.DigestRunResult{
			OK:         false,
			Error:      err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	if a.History != nil {
		if err := a.History.RecordMetrics(ctx, productID, entry.Date, entry.Metrics); err != nil {
			slog.Warn("Metric history recording failed", "product", productID, "error", err)
		}
	}

	duration := a.now().Sub(started)
	slog.Info("Digest run completed",
		"product", productID,
		"digest_id", entry.ID,
		"status", status,
		"duration_ms", duration.Milliseconds())
	a.Metrics.RecordRun("ok", string(status), duration.Seconds())

	return datatypes.DigestRunResult{
		OK:         true,
		Digest:     &entry,
		Sources:    provenance,
		DurationMs: duration.Milliseconds(),
	}
}

// titleFor renders the digest title for a product.
func titleFor(productID string) string {
	if productID == "" {
		productID = "launchpad"
	}
	return capitalize(productID) + " daily release brief"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
