// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history records per-run metric values into InfluxDB so trend
// questions can reach further back than the digest store's recent window.
// The whole package is optional: without a token the recorder is nil and
// every caller treats that as "history disabled".
package history

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

const measurement = "health_metrics"

// MetricPoint is one historical sample for a metric.
type MetricPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Recorder writes and queries metric history.
type Recorder struct {
	WriteAPI api.WriteAPIBlocking
	QueryAPI api.QueryAPI
	Bucket   string
}

// NewFromEnv builds a Recorder from INFLUXDB_* variables. A missing token
// disables history and returns nil; callers must treat a nil Recorder as
// the disabled state.
func NewFromEnv() *Recorder {
	token := os.Getenv("INFLUXDB_TOKEN")
	if token == "" {
		slog.Info("INFLUXDB_TOKEN not set, metric history disabled")
		return nil
	}

	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		url = "http://localhost:8086"
	}
	org := os.Getenv("INFLUXDB_ORG")
	if org == "" {
		org = "releasepilot"
	}
	bucket := os.Getenv("INFLUXDB_BUCKET")
	if bucket == "" {
		bucket = "digests"
	}

	client := influxdb2.NewClient(url, token)
	slog.Info("Metric history enabled", "url", url, "org", org, "bucket", bucket)
	return &Recorder{
		WriteAPI: client.WriteAPIBlocking(org, bucket),
		QueryAPI: client.QueryAPI(org),
		Bucket:   bucket,
	}
}

// RecordMetrics writes one point per metric whose display value parses to a
// number. Non-numeric values are skipped, not errors.
func (r *Recorder) RecordMetrics(ctx context.Context, productID string, at time.Time, metrics []datatypes.HealthMetric) error {
	var written int
	for _, metric := range metrics {
		value, ok := parseMetricValue(metric.Value)
		if !ok {
			slog.Debug("Skipping non-numeric metric value", "metric", metric.ID, "value", metric.Value)
			continue
		}
		point := influxdb2.NewPoint(
			measurement,
			map[string]string{
				"product":   productID,
				"metric_id": metric.ID,
				"label":     metric.Label,
			},
			map[string]interface{}{
				"value":  value,
				"status": string(metric.Status),
				"trend":  string(metric.Trend),
			},
			at,
		)
		if err := r.WriteAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("write metric %s: %w", metric.ID, err)
		}
		written++
	}
	slog.Debug("Recorded metric history", "product", productID, "points", written)
	return nil
}

// MetricHistory returns the recorded samples for one metric over the
// lookback window, oldest first.
func (r *Recorder) MetricHistory(ctx context.Context, productID, metricID string, lookback time.Duration) ([]MetricPoint, error) {
	result, err := r.QueryAPI.Query(ctx, fluxHistoryQuery(r.Bucket, productID, metricID, lookback))
	if err != nil {
		return nil, fmt.Errorf("query metric history: %w", err)
	}

	var points []MetricPoint
	for result != nil && result.Next() {
		value, ok := result.Record().Value().(float64)
		if !ok {
			continue
		}
		points = append(points, MetricPoint{
			Time:  result.Record().Time(),
			Value: value,
		})
	}
	if result != nil && result.Err() != nil {
		return nil, fmt.Errorf("read metric history: %w", result.Err())
	}
	return points, nil
}

// fluxHistoryQuery builds the flux query for one metric's value series.
func fluxHistoryQuery(bucket, productID, metricID string, lookback time.Duration) string {
	return fmt.Sprintf(`
        from(bucket: "%s")
          |> range(start: -%ds)
          |> filter(fn: (r) => r._measurement == "%s")
          |> filter(fn: (r) => r.product == "%s")
          |> filter(fn: (r) => r.metric_id == "%s")
          |> filter(fn: (r) => r._field == "value")
          |> sort(columns: ["_time"])
    `, bucket, int(lookback.Seconds()), measurement, productID, metricID)
}

// parseMetricValue converts a display value like "99.4%" or "1,240" into a
// float. Returns false for values with no numeric form.
func parseMetricValue(display string) (float64, bool) {
	cleaned := strings.TrimSpace(display)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
