// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for Release Pilot.
//
// # Description
//
// This package implements Prometheus metrics for monitoring digest
// aggregation and the chat assistant. Metrics include:
//   - Digest run counters (by outcome and inferred status)
//   - Run duration histograms
//   - Source fetch results (by kind and origin: live, mock, fallback)
//   - Chat request counters (by variant and answer path)
//   - LLM fallback counter
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
// All recording methods are nil-receiver safe so packages under test can
// run without a registry.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "releasepilot"

const digestSubsystem = "digest"

// Metrics holds all Prometheus metrics for the pilot service.
// Initialize once at startup via InitMetrics().
type Metrics struct {
	// RunsTotal counts digest runs.
	// Labels: outcome (ok, error, dry_run), status (healthy, warning, critical, none)
	RunsTotal *prometheus.CounterVec

	// RunDurationSeconds measures wall-clock digest run duration.
	// Labels: outcome (ok, error, dry_run)
	RunDurationSeconds *prometheus.HistogramVec

	// SourceResultsTotal counts source fetch results.
	// Labels: kind (releases, metrics, incidents), origin (live, mock, fallback)
	SourceResultsTotal *prometheus.CounterVec

	// ChatRequestsTotal counts chat answers.
	// Labels: variant (classifier variant), path (llm, deterministic)
	ChatRequestsTotal *prometheus.CounterVec

	// LLMFallbacksTotal counts LLM calls that failed over to the
	// deterministic responder.
	LLMFallbacksTotal prometheus.Counter

	// SlackRequestsTotal counts Slack endpoint hits.
	// Labels: kind (handshake, command)
	SlackRequestsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *Metrics

// InitMetrics creates and registers all Prometheus metrics. Call once at
// startup; panics on duplicate registration.
func InitMetrics() *Metrics {
	DefaultMetrics = &Metrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: digestSubsystem,
				Name:      "runs_total",
				Help:      "Total digest runs by outcome and inferred status",
			},
			[]string{"outcome", "status"},
		),

		RunDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: digestSubsystem,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of a digest run",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"outcome"},
		),

		SourceResultsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: digestSubsystem,
				Name:      "source_results_total",
				Help:      "Source fetch results by kind and origin",
			},
			[]string{"kind", "origin"},
		),

		ChatRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Chat answers by classifier variant and answer path",
			},
			[]string{"variant", "path"},
		),

		LLMFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "chat",
				Name:      "llm_fallbacks_total",
				Help:      "LLM calls that fell back to the deterministic responder",
			},
		),

		SlackRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "slack",
				Name:      "requests_total",
				Help:      "Slack endpoint hits by payload kind",
			},
			[]string{"kind"},
		),
	}

	return DefaultMetrics
}

// RecordRun records a completed digest run.
func (m *Metrics) RecordRun(outcome, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome, status).Inc()
	m.RunDurationSeconds.WithLabelValues(outcome).Observe(seconds)
}

// RecordSourceResult records one source fetch outcome.
func (m *Metrics) RecordSourceResult(kind, origin string) {
	if m == nil {
		return
	}
	m.SourceResultsTotal.WithLabelValues(kind, origin).Inc()
}

// RecordChat records a chat answer.
func (m *Metrics) RecordChat(variant, path string) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(variant, path).Inc()
}

// RecordLLMFallback records an LLM failure that degraded to the
// deterministic path.
func (m *Metrics) RecordLLMFallback() {
	if m == nil {
		return
	}
	m.LLMFallbacksTotal.Inc()
}

// RecordSlack records a Slack endpoint hit.
func (m *Metrics) RecordSlack(kind string) {
	if m == nil {
		return
	}
	m.SlackRequestsTotal.WithLabelValues(kind).Inc()
}
