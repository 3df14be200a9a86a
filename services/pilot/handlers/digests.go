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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ReleasePilot/pkg/validation"
	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// defaultProductID is used when a trigger request omits the product.
const defaultProductID = "launchpad"

// digestListLimit is the fixed window served by the list endpoint.
const digestListLimit = 5

// ListDigests serves the recent digest window, newest first.
func ListDigests(store digest.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.FindRecent(c.Request.Context(), digestListLimit)
		if err != nil {
			slog.Error("Failed to list digests", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load digests."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"digests": entries})
	}
}

// TriggerDigest runs the aggregation pipeline. An empty or missing body is
// a default run for the launchpad product; dryRun previews without
// persisting. The run result is returned with 200 on success and 500 when
// persistence failed.
func TriggerDigest(agg *digest.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.TriggerDigestRequest
		// Body is optional; a bind failure means defaults.
		_ = c.ShouldBindJSON(&req)

		if req.ProductID == "" {
			req.ProductID = defaultProductID
		}
		productID, err := validation.SanitizeProductID(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id."})
			return
		}

		result := agg.Run(c.Request.Context(), productID, req.DryRun)
		if !result.OK {
			c.JSON(http.StatusInternalServerError, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
