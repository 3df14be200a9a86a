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

	"github.com/AleutianAI/ReleasePilot/services/chat"
	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// HandleChat answers an assistant question. A missing message is the only
// 400 on this path; malformed JSON degrades to the same response because
// the message is then absent.
func HandleChat(responder *chat.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ChatRequest
		_ = c.ShouldBindJSON(&req)

		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required."})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message is too large."})
			return
		}

		result, err := responder.Answer(c.Request.Context(), req)
		if err != nil {
			slog.Error("Chat answer failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer."})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ListQuickActions serves the canned chat prompts.
func ListQuickActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": chat.QuickActions()})
}

// BootstrapChat serves the opening conversation for a fresh chat panel.
func BootstrapChat(responder *chat.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		messages, err := responder.BootstrapMessages(c.Request.Context())
		if err != nil {
			slog.Error("Chat bootstrap failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}
