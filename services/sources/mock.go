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
	"time"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// Canned payloads used for mock mode, fallbacks, and store seeding.
// Fresh slices are returned on every call so callers can mutate safely.

// MockHighlights returns the canned release highlights. Shipped times are
// anchored to the given capture time so mock digests look current.
func MockHighlights(now time.Time) []datatypes.ReleaseHighlight {
	return []datatypes.ReleaseHighlight{
		{
			ID:          "hl-001",
			Title:       "Unified release timeline",
			Description: "Daily timeline page now links PRs, incidents, and Jira epics.",
			Impact:      "Gives PMs a single source of truth for release readiness.",
			ShippedAt:   now,
			Owner:       "Launchpad Core",
			Tags:        []string{"release", "visibility", "platform"},
		},
		{
			ID:          "hl-002",
			Title:       "Slack acknowledgement workflow",
			Description: "Stakeholders can acknowledge digests directly from Slack, feeding back to the dashboard.",
			Impact:      "Improves accountability and provides read receipts for PM leadership.",
			ShippedAt:   now.Add(-4 * time.Hour),
			Owner:       "Eng Productivity",
			Tags:        []string{"slack", "automation"},
		},
		{
			ID:          "hl-003",
			Title:       "Realtime health card API",
			Description: "New source tool queries observability APIs to build per-release health cards.",
			Impact:      "PMs can spot regression signals without leaving the digest.",
			ShippedAt:   now.Add(-24 * time.Hour),
			Owner:       "Telemetry",
			Tags:        []string{"sources", "metrics", "api"},
		},
	}
}

// MockMetrics returns the canned health metric snapshot. The deployment
// metric carries a warning so seeded dashboards show the full status range.
func MockMetrics() []datatypes.HealthMetric {
	return []datatypes.HealthMetric{
		{
			ID:     "mt-001",
			Label:  "Crash-free sessions",
			Value:  "99.4%",
			Delta:  "+0.3pp",
			Trend:  datatypes.TrendUp,
			Status: datatypes.StatusHealthy,
			Target: "99.0%",
			Note:   "Spike from mobile beta cohort resolved.",
		},
		{
			ID:     "mt-002",
			Label:  "Deployment success rate",
			Value:  "96%",
			Delta:  "-2pp",
			Trend:  datatypes.TrendDown,
			Status: datatypes.StatusWarning,
			Target: "98%",
			Note:   "Two rollbacks triggered auto-pauses; fix shipping today.",
		},
		{
			ID:     "mt-003",
			Label:  "Active workspaces",
			Value:  "1,240",
			Delta:  "+4%",
			Trend:  datatypes.TrendUp,
			Status: datatypes.StatusHealthy,
			Note:   "Growth driven by new onboarding flow AB test.",
		},
	}
}

// MockIncidents returns the canned incident list.
func MockIncidents() []string {
	return []string{
		"Two deploy rollbacks between 02:00-04:00 UTC due to config drift; auto-pauses cleared.",
	}
}
