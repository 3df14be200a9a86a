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
	"time"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// --- GitHub API Structs ---

type gitHubRelease struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TagName     string `json:"tag_name"`
	Body        string `json:"body"`
	Prerelease  bool   `json:"prerelease"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
	Author      *struct {
		Login string `json:"login"`
	} `json:"author"`
}

// FetchReleaseHighlights fetches recent releases for the product's repository
// and transforms them into digest highlights.
//
// Without GITHUB_TOKEN the canned highlights are returned immediately.
// GITHUB_REPO overrides the default "<product>/<product>" repository guess.
func (c *Client) FetchReleaseHighlights(ctx context.Context, productID string) FetchResult[[]datatypes.ReleaseHighlight] {
	now := c.now()

	if c.Config.GitHubToken == "" {
		slog.Warn("GITHUB_TOKEN not set, using mock release data", "product", productID)
		return mockResult(
			fmt.Sprintf("mock://releases/fetchLatest?product=%s", productID),
			now, MockHighlights(now))
	}

	repo := c.Config.GitHubRepo
	if repo == "" {
		repo = productID + "/" + productID
	}
	owner, name, _ := strings.Cut(repo, "/")
	source := fmt.Sprintf("github://repos/%s/%s/releases", owner, name)
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases?per_page=10", owner, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("GitHub request build failed, falling back", "error", err)
		return fallbackResult(source, now, MockHighlights(now))
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.GitHubToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	var releases []gitHubRelease
	if err := c.getJSON(req, &releases); err != nil {
		slog.Warn("GitHub release fetch failed, falling back", "repo", repo, "error", err)
		return fallbackResult(source, now, MockHighlights(now))
	}

	return liveResult(source, now, transformReleases(releases, now))
}

// transformReleases converts the GitHub schema into the canonical highlight
// shape. Missing optional fields get display defaults.
func transformReleases(releases []gitHubRelease, now time.Time) []datatypes.ReleaseHighlight {
	highlights := make([]datatypes.ReleaseHighlight, 0, len(releases))
	for _, release := range releases {
		title := release.Name
		if title == "" {
			title = release.TagName
		}
		description := release.Body
		if description == "" {
			description = "Release notes"
		}
		impact := "Production release"
		tags := []string{"production"}
		if release.Prerelease {
			impact = "Beta release"
			tags = []string{"prerelease"}
		}
		owner := "GitHub"
		if release.Author != nil && release.Author.Login != "" {
			owner = release.Author.Login
		}

		highlights = append(highlights, datatypes.ReleaseHighlight{
			ID:          fmt.Sprintf("gh-%d", release.ID),
			Title:       title,
			Description: description,
			Impact:      impact,
			ShippedAt:   parseReleaseTime(release.PublishedAt, release.CreatedAt, now),
			Owner:       owner,
			Tags:        tags,
		})
	}
	return highlights
}

// parseReleaseTime prefers published_at, falls back to created_at, and uses
// the capture time when neither parses.
func parseReleaseTime(published, created string, now time.Time) time.Time {
	for _, raw := range []string{published, created} {
		if raw == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts
		}
	}
	return now
}
