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
	"fmt"
	"strings"

	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// ComposeSummary renders the one-paragraph digest synopsis.
//
// Deterministic template: leads with the upper-cased status, names the first
// highlight (or a generic placeholder), cites the first metric's label and
// value (or placeholders), and closes with the first incident or a fixed
// no-incident clause. A presentation convenience, not summarization.
func ComposeSummary(highlights []datatypes.ReleaseHighlight, metrics []datatypes.HealthMetric,
	incidents []string, status datatypes.DigestStatus) string {

	topHighlight := "latest release"
	if len(highlights) > 0 {
		topHighlight = highlights[0].Title
	}

	metricLabel, metricValue := "key metric", "n/a"
	if len(metrics) > 0 {
		metricLabel = metrics[0].Label
		metricValue = metrics[0].Value
	}

	incidentNote := "No blocking incidents reported."
	if len(incidents) > 0 {
		incidentNote = "Notable incident: " + incidents[0]
	}

	return fmt.Sprintf("Status %s: %s shipped and %s sits at %s. %s",
		strings.ToUpper(string(status)), topHighlight, metricLabel, metricValue, incidentNote)
}
