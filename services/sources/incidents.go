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
	"strings"
)

// FetchIncidents fetches recent incident summaries from the configured
// incidents API (PagerDuty, OpsGenie, or internal tracking - anything that
// serves a JSON array of strings).
//
// Both INCIDENTS_API_URL and INCIDENTS_API_KEY are required for live mode.
func (c *Client) FetchIncidents(ctx context.Context, productID string) FetchResult[[]string] {
	now := c.now()

	if c.Config.IncidentsURL == "" || c.Config.IncidentsKey == "" {
		slog.Warn("Incidents API not configured, using mock incident data", "product", productID)
		return mockResult(
			fmt.Sprintf("mock://incidents/listRecent?product=%s", productID),
			now, MockIncidents())
	}

	base := strings.TrimRight(c.Config.IncidentsURL, "/")
	source := base + "/incidents"
	endpoint := fmt.Sprintf("%s/incidents?product=%s&status=resolved&limit=5", base, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Warn("Incidents request build failed, falling back", "error", err)
		return fallbackResult(source, now, MockIncidents())
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.IncidentsKey)
	req.Header.Set("Content-Type", "application/json")

	var incidents []string
	if err := c.getJSON(req, &incidents); err != nil {
		slog.Warn("Incidents fetch failed, falling back", "error", err)
		return fallbackResult(source, now, MockIncidents())
	}
	if incidents == nil {
		incidents = []string{}
	}

	return liveResult(source, now, incidents)
}
