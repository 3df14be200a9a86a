// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ReleasePilot/pkg/validation"
	"github.com/AleutianAI/ReleasePilot/services/history"
)

// MetricHistory serves recorded metric samples from InfluxDB. With history
// disabled (nil recorder) the endpoint answers 503 so clients can tell
// "not configured" from "no data".
func MetricHistory(recorder *history.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Metric history is disabled."})
			return
		}

		productID, err := validation.SanitizeProductID(c.DefaultQuery("product", defaultProductID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id."})
			return
		}
		metricID := c.Query("metric")
		if metricID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Metric id is required."})
			return
		}

		days := 7
		if raw := c.Query("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 90 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Days must be between 1 and 90."})
				return
			}
			days = parsed
		}

		points, err := recorder.MetricHistory(c.Request.Context(), productID, metricID,
			time.Duration(days)*24*time.Hour)
		if err != nil {
			slog.Error("Metric history query failed", "product", productID, "metric", metricID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query history."})
			return
		}
		if points == nil {
			points = []history.MetricPoint{}
		}
		c.JSON(http.StatusOK, gin.H{"product": productID, "metric": metricID, "points": points})
	}
}
