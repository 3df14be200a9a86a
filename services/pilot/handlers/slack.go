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
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
	"github.com/AleutianAI/ReleasePilot/services/pilot/observability"
	"github.com/AleutianAI/ReleasePilot/services/slack"
)

// slackVerification is the url_verification handshake payload.
type slackVerification struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
}

// HandleSlack serves the single Slack endpoint: the JSON url_verification
// handshake and form-encoded slash commands. Token verification applies to
// commands only; the handshake predates any token exchange.
func HandleSlack(svc *slack.Service, store digest.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.Contains(c.ContentType(), "application/json") {
			var payload slackVerification
			if err := c.ShouldBindJSON(&payload); err == nil &&
				payload.Type == "url_verification" && payload.Challenge != "" {
				metrics.RecordSlack("handshake")
				c.JSON(http.StatusOK, gin.H{"challenge": payload.Challenge})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported payload."})
			return
		}

		if !svc.VerifyToken(c.PostForm("token")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Verification failed."})
			return
		}
		metrics.RecordSlack("command")

		command := c.PostForm("command")
		text := c.PostForm("text")

		var latest *datatypes.DigestEntry
		entry, ok, err := digest.Latest(c.Request.Context(), store)
		if err != nil {
			slog.Error("Failed to load latest digest for Slack", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load digest."})
			return
		}
		if ok {
			latest = &entry
		}

		if latest != nil && strings.Contains(text, "blocks") {
			responseType := "ephemeral"
			if strings.Contains(text, "channel") {
				responseType = "in_channel"
			}
			c.JSON(http.StatusOK, svc.BlockMessage(*latest, responseType))
			return
		}

		c.String(http.StatusOK, svc.CommandReply(command, text, latest))
	}
}
