// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
	"github.com/AleutianAI/ReleasePilot/services/sources"
)

// Seed digest ids are fixed so seeding is an idempotent upsert: re-running
// EnsureSeeded on every process start (or from concurrent first requests)
// can never duplicate an entry. Correctness does not depend on any
// in-memory "already seeded" state surviving restarts.
const (
	seedDigestToday     = "dg-seed-0001"
	seedDigestYesterday = "dg-seed-0002"
)

// SeedDigests returns the built-in demo digests, dated relative to now.
func SeedDigests(now time.Time) []datatypes.DigestEntry {
	todayMetrics := sources.MockMetrics()

	yesterdayMetrics := sources.MockMetrics()
	for i := range yesterdayMetrics {
		if yesterdayMetrics[i].ID == "mt-002" {
			yesterdayMetrics[i].Value = "98%"
			yesterdayMetrics[i].Delta = "+1pp"
			yesterdayMetrics[i].Trend = datatypes.TrendUp
			yesterdayMetrics[i].Status = datatypes.StatusHealthy
		}
	}

	return []datatypes.DigestEntry{
		{
			ID:        seedDigestToday,
			ProductID: "launchpad",
			Title:     "Launchpad daily release brief",
			Summary: "Top-line metrics remain healthy while deployment reliability is under watch. " +
				"Slack acknowledgement workflow is live and adoption is trending up.",
			Date:       now,
			Status:     datatypes.StatusWarning,
			Highlights: sources.MockHighlights(now),
			Metrics:    todayMetrics,
			Incidents:  sources.MockIncidents(),
			Sources: []string{
				"mock://releases/fetchLatest?product=launchpad",
				"mock://metrics/getHealth?product=launchpad",
				"slack://eng-announce/threads/abc123",
			},
		},
		{
			ID:         seedDigestYesterday,
			ProductID:  "launchpad",
			Title:      "Launchpad daily release brief",
			Summary:    "Feature flags cleaned up across three services and error budget stayed comfortable.",
			Date:       now.Add(-24 * time.Hour),
			Status:     datatypes.StatusHealthy,
			Highlights: sources.MockHighlights(now)[:2],
			Metrics:    yesterdayMetrics,
			Incidents:  []string{},
			Sources: []string{
				"mock://releases/fetchLatest?product=launchpad&day=-1",
				"pagerduty://incidents/closed?since=24h",
			},
		},
	}
}

// EnsureSeeded upserts the built-in digests so a fresh deployment has data
// to show. Entries whose fixed ids already exist are left untouched, so the
// call is safe on every start and under concurrent first requests.
func (s *BadgerStore) EnsureSeeded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	seeded := 0
	for _, entry := range SeedDigests(s.now().UTC()) {
		err := s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(digestKey(entry.ID))
			if err == nil {
				return nil // already present
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			seeded++
			return putEntry(txn, entry)
		})
		if err != nil {
			return fmt.Errorf("seed digest %s: %w", entry.ID, err)
		}
	}

	if seeded > 0 {
		slog.Info("Seeded built-in digests", "count", seeded)
	}
	return nil
}
