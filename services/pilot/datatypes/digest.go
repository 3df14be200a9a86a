// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the Release Pilot service.
//
// This file contains the digest domain model. Digest entries are immutable
// once persisted: the store keeps an append-only history of runs and the
// status field is fixed at creation time. For chat request/response types,
// see chat.go.
package datatypes

import "time"

// DigestStatus is the overall health classification of a digest.
type DigestStatus string

const (
	StatusHealthy  DigestStatus = "healthy"
	StatusWarning  DigestStatus = "warning"
	StatusCritical DigestStatus = "critical"
)

// Rank orders statuses by severity: healthy < warning < critical.
// Used for priority-max aggregation across metrics.
func (s DigestStatus) Rank() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// Trend is the direction of a metric between its two latest samples.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// ReleaseHighlight is one shipped item surfaced in a digest.
// Immutable once created.
type ReleaseHighlight struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Impact      string    `json:"impact"`
	ShippedAt   time.Time `json:"shippedAt"`
	Owner       string    `json:"owner"`
	Tags        []string  `json:"tags"`
}

// HealthMetric is an immutable snapshot of one measurement taken at
// digest-creation time. Value and Delta are display strings; the numeric
// interpretation lives with the provider that produced them.
type HealthMetric struct {
	ID     string       `json:"id"`
	Label  string       `json:"label"`
	Value  string       `json:"value"`
	Delta  string       `json:"delta"`
	Trend  Trend        `json:"trend"`
	Status DigestStatus `json:"status"`
	Target string       `json:"target,omitempty"`
	Note   string       `json:"note,omitempty"`
}

// DigestEntry is one persisted digest run.
//
// Invariant: Status equals the status inferred from Metrics at creation time
// and is never mutated afterward. Sources preserves fetch order
// (releases, metrics, incidents) as the run's provenance trail.
type DigestEntry struct {
	ID         string             `json:"id"`
	ProductID  string             `json:"productId"`
	Title      string             `json:"title"`
	Summary    string             `json:"summary"`
	Date       time.Time          `json:"date"`
	Status     DigestStatus       `json:"status"`
	Highlights []ReleaseHighlight `json:"highlights"`
	Metrics    []HealthMetric     `json:"metrics"`
	Incidents  []string           `json:"incidents"`
	Sources    []string           `json:"sources"`
}

// DigestRunResult is the transient outcome of one aggregation attempt.
// Exactly one of Digest/Error is populated, determined by OK.
type DigestRunResult struct {
	OK         bool         `json:"ok"`
	Digest     *DigestEntry `json:"digest,omitempty"`
	Error      string       `json:"error,omitempty"`
	Sources    []string     `json:"sources,omitempty"`
	DurationMs int64        `json:"durationMs"`
}
