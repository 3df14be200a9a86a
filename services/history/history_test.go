// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// --- Mock InfluxDB WriteAPI ---

type MockWriteAPI struct {
	Points   []*write.Point
	WriteErr error
}

func (m *MockWriteAPI) WritePoint(ctx context.Context, point ...*write.Point) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Points = append(m.Points, point...)
	return nil
}

func (m *MockWriteAPI) WriteRecord(ctx context.Context, line ...string) error { return nil }
func (m *MockWriteAPI) EnableBatching()                                       {}
func (m *MockWriteAPI) Flush(ctx context.Context) error                       { return nil }

func TestParseMetricValue(t *testing.T) {
	tests := []struct {
		display string
		want    float64
		ok      bool
	}{
		{"99.4%", 99.4, true},
		{"96%", 96, true},
		{"1,240", 1240, true},
		{" 42 ", 42, true},
		{"-2.5", -2.5, true},
		{"n/a", 0, false},
		{"", 0, false},
		{"%", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			got, ok := parseMetricValue(tt.display)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}

func TestRecordMetrics(t *testing.T) {
	mock := &MockWriteAPI{}
	recorder := &Recorder{WriteAPI: mock, Bucket: "digests"}
	at := time.Date(2025, 11, 21, 9, 0, 0, 0, time.UTC)

	err := recorder.RecordMetrics(context.Background(), "launchpad", at, []datatypes.HealthMetric{
		{ID: "mt-001", Label: "Crash-free sessions", Value: "99.4%", Status: datatypes.StatusHealthy, Trend: datatypes.TrendUp},
		{ID: "mt-003", Label: "Active workspaces", Value: "1,240", Status: datatypes.StatusHealthy, Trend: datatypes.TrendUp},
		{ID: "mt-bad", Label: "Unparseable", Value: "n/a", Status: datatypes.StatusWarning, Trend: datatypes.TrendFlat},
	})
	require.NoError(t, err)

	// The unparseable value is skipped, not an error.
	require.Len(t, mock.Points, 2)
	assert.Equal(t, "health_metrics", mock.Points[0].Name())
	assert.Equal(t, at, mock.Points[0].Time())
}

func TestRecordMetricsWriteFailure(t *testing.T) {
	mock := &MockWriteAPI{WriteErr: errors.New("bucket not found")}
	recorder := &Recorder{WriteAPI: mock, Bucket: "digests"}

	err := recorder.RecordMetrics(context.Background(), "launchpad", time.Now(), []datatypes.HealthMetric{
		{ID: "mt-001", Label: "Crash-free sessions", Value: "99.4%"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metric mt-001")
}

func TestFluxHistoryQuery(t *testing.T) {
	query := fluxHistoryQuery("digests", "launchpad", "mt-001", 7*24*time.Hour)
	assert.Contains(t, query, `from(bucket: "digests")`)
	assert.Contains(t, query, "range(start: -604800s)")
	assert.Contains(t, query, `r._measurement == "health_metrics"`)
	assert.Contains(t, query, `r.product == "launchpad"`)
	assert.Contains(t, query, `r.metric_id == "mt-001"`)
	assert.Contains(t, query, `r._field == "value"`)
}
