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

import "github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"

// InferStatus derives the overall digest status from a metric set.
//
// Priority-max over the status ordinal: any critical metric makes the digest
// critical; otherwise any warning makes it warning; otherwise healthy.
// Metric order does not affect the result. An empty set is healthy.
func InferStatus(metrics []datatypes.HealthMetric) datatypes.DigestStatus {
	overall := datatypes.StatusHealthy
	for _, metric := range metrics {
		if metric.Status.Rank() > overall.Rank() {
			overall = metric.Status
		}
	}
	return overall
}
