// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chat implements the digest assistant: quick actions, the
// deterministic reply engine, and the optional LLM path layered on top.
package chat

import "strings"

// Variant names the deterministic reply shape chosen for a request.
// Classification is a pure function of the request and whether any digest
// exists, so it is testable without a store or renderer.
type Variant string

const (
	// VariantNoDigest applies whenever the store is empty, regardless of
	// the action or message.
	VariantNoDigest Variant = "no_digest"

	VariantLatestDigest Variant = "latest_digest"
	VariantHealthFocus  Variant = "health_focus"
	VariantIncidents    Variant = "incidents"
	VariantTrend        Variant = "trend"
	VariantHighlights   Variant = "highlights"
	VariantDefault      Variant = "default"
)

// Classify picks the reply variant. A known quick-action id wins over
// message keywords; keyword matching is case-insensitive substring search.
func Classify(actionID, message string, hasDigest bool) Variant {
	if !hasDigest {
		return VariantNoDigest
	}

	switch actionID {
	case "latest_digest":
		return VariantLatestDigest
	case "health_focus":
		return VariantHealthFocus
	case "incidents":
		return VariantIncidents
	}

	lowered := strings.ToLower(message)
	if strings.Contains(lowered, "trend") || strings.Contains(lowered, "week") {
		return VariantTrend
	}
	if strings.Contains(lowered, "highlight") {
		return VariantHighlights
	}
	return VariantDefault
}
