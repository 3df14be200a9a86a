// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// --- Datadog API Structs ---

type datadogQueryResponse struct {
	Series []struct {
		// Pointlist rows are [unix_ms, value] pairs.
		Pointlist [][]float64 `json:"pointlist"`
	} `json:"series"`
}

// metricQuery defines one Datadog timeseries query and its display target.
type metricQuery struct {
	Name   string
	Query  string
	Target string
}

// healthQueries returns the fixed set of metrics tracked per product.
func healthQueries(productID string) []metricQuery {
	return []metricQuery{
		{
			Name:   "Crash-free sessions",
			Query:  fmt.Sprintf("sum:session.crash{env:production,service:%s} / sum:session.count{env:production,service:%s} * 100", productID, productID),
			Target: "99.0%",
		},
		{
			Name:   "Deployment success rate",
			Query:  fmt.Sprintf("avg:kubernetes_state.deployment.replicas_available{kube_deployment:%s} / avg:kubernetes_state.deployment.replicas_desired{kube_deployment:%s} * 100", productID, productID),
			Target: "98.0%",
		},
		{
			Name:   "Active workspaces",
			Query:  fmt.Sprintf("count:trace.servlet.request{env:production,service:%s}", productID),
			Target: "1000+",
		},
	}
}

// FetchHealthMetrics queries Datadog for the last 24 hours of each tracked
// metric and derives trend, delta, and status from the timeseries.
//
// Both DATADOG_API_KEY and DATADOG_APP_KEY are required for live mode.
// A failure on any single query downgrades the whole set: health cards are
// only meaningful as a complete snapshot.
func (c *Client) FetchHealthMetrics(ctx context.Context, productID string) FetchResult[[]datatypes.HealthMetric] {
	now := c.now()

	if c.Config.DatadogAPIKey == "" || c.Config.DatadogAppKey == "" {
		slog.Warn("Datadog credentials not configured, using mock metric data", "product", productID)
		return mockResult(
			fmt.Sprintf("mock://metrics/getHealth?product=%s", productID),
			now, MockMetrics())
	}

	site := c.Config.DatadogSite
	if site == "" {
		site = "datadoghq.com"
	}
	source := fmt.Sprintf("datadog://api.%s/query?service=%s", site, productID)
	from := now.Add(-24 * time.Hour).Unix()
	to := now.Unix()

	queries := healthQueries(productID)
	metrics := make([]datatypes.HealthMetric, 0, len(queries))
	for _, q := range queries {
		metric, err := c.queryDatadogMetric(ctx, site, q, from, to)
		if err != nil {
			slog.Warn("Datadog query failed, falling back", "metric", q.Name, "error", err)
			return fallbackResult(source, now, MockMetrics())
		}
		metrics = append(metrics, metric)
	}

	return liveResult(source, now, metrics)
}

// queryDatadogMetric runs one timeseries query and folds it into a metric
// snapshot.
func (c *Client) queryDatadogMetric(ctx context.Context, site string, q metricQuery, from, to int64) (datatypes.HealthMetric, error) {
	endpoint := fmt.Sprintf("https://api.%s/api/v1/query?from=%d&to=%d&query=%s",
		site, from, to, url.QueryEscape(q.Query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return datatypes.HealthMetric{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("DD-API-KEY", c.Config.DatadogAPIKey)
	req.Header.Set("DD-APPLICATION-KEY", c.Config.DatadogAppKey)

	var body datadogQueryResponse
	if err := c.getJSON(req, &body); err != nil {
		return datatypes.HealthMetric{}, err
	}

	var points [][]float64
	if len(body.Series) > 0 {
		points = body.Series[0].Pointlist
	}

	current, previous := latestPair(points)
	metric := datatypes.HealthMetric{
		ID:     "dd-" + strings.ReplaceAll(strings.ToLower(q.Name), " ", "-"),
		Label:  q.Name,
		Value:  formatMetricValue(q.Name, current),
		Delta:  fmt.Sprintf("%.1fpp", current-previous),
		Trend:  trendOf(current, previous),
		Status: statusFor(q.Name, current),
		Target: q.Target,
		Note:   "Last 24h average from Datadog",
	}
	return metric, nil
}

// latestPair returns the last two point values; with fewer than two samples
// the trend is treated as flat.
func latestPair(points [][]float64) (current, previous float64) {
	n := len(points)
	if n > 0 && len(points[n-1]) > 1 {
		current = points[n-1][1]
	}
	previous = current
	if n > 1 && len(points[n-2]) > 1 {
		previous = points[n-2][1]
	}
	return current, previous
}

// trendOf compares the latest two samples: up if the latest is greater,
// down if less, flat otherwise.
func trendOf(current, previous float64) datatypes.Trend {
	switch {
	case current > previous:
		return datatypes.TrendUp
	case current < previous:
		return datatypes.TrendDown
	default:
		return datatypes.TrendFlat
	}
}

// statusFor applies per-metric thresholds:
//
//	Crash-free sessions:     >=99 healthy, >=95 warning, else critical
//	Deployment success rate: >=95 healthy, >=90 warning, else critical
//	anything else:           healthy
func statusFor(name string, value float64) datatypes.DigestStatus {
	switch {
	case strings.Contains(name, "Crash"):
		if value >= 99 {
			return datatypes.StatusHealthy
		}
		if value >= 95 {
			return datatypes.StatusWarning
		}
		return datatypes.StatusCritical
	case strings.Contains(name, "Deployment"):
		if value >= 95 {
			return datatypes.StatusHealthy
		}
		if value >= 90 {
			return datatypes.StatusWarning
		}
		return datatypes.StatusCritical
	default:
		return datatypes.StatusHealthy
	}
}

// formatMetricValue renders the display value; rate metrics get a percent
// suffix.
func formatMetricValue(name string, value float64) string {
	if strings.Contains(name, "rate") {
		return fmt.Sprintf("%.1f%%", value)
	}
	return fmt.Sprintf("%.1f", value)
}
