// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/ReleasePilot/services/chat"
	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/history"
	"github.com/AleutianAI/ReleasePilot/services/pilot/handlers"
	"github.com/AleutianAI/ReleasePilot/services/pilot/observability"
	"github.com/AleutianAI/ReleasePilot/services/slack"
)

func SetupRoutes(router *gin.Engine, store digest.Store, agg *digest.Aggregator,
	responder *chat.Responder, slackSvc *slack.Service, recorder *history.Recorder,
	metrics *observability.Metrics) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/digests", handlers.ListDigests(store))
		v1.POST("/digests", handlers.TriggerDigest(agg))
		v1.POST("/chat", handlers.HandleChat(responder))
		v1.GET("/chat/actions", handlers.ListQuickActions)
		v1.GET("/chat/bootstrap", handlers.BootstrapChat(responder))
		v1.POST("/slack", handlers.HandleSlack(slackSvc, store, metrics))
		v1.GET("/history", handlers.MetricHistory(recorder))
	}
}
