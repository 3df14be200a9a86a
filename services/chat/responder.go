// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/llm"
	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
	"github.com/AleutianAI/ReleasePilot/services/pilot/observability"
)

const systemPrompt = "You are Release Pilot, an MCP-aware assistant that summarizes releases " +
	"and health metrics for PMs. Keep answers grounded in provided digest data."

// referenceLimit caps how many recent digests ground a reply and appear in
// the references list.
const referenceLimit = 5

// llmContextDigests caps how many digests are rendered into the LLM system
// prompt.
const llmContextDigests = 3

// QuickActions returns the canned prompts offered by the chat panel.
func QuickActions() []datatypes.QuickAction {
	return []datatypes.QuickAction{
		{
			ID:          "latest_digest",
			Label:       "Today's digest",
			Prompt:      "Summarize what shipped today.",
			Description: "Overview of release highlights and incidents.",
		},
		{
			ID:          "health_focus",
			Label:       "Health metrics",
			Prompt:      "How are key health metrics trending?",
			Description: "Crash-free, deployments, adoption.",
		},
		{
			ID:          "incidents",
			Label:       "Incidents",
			Prompt:      "Any incidents I should know about?",
			Description: "Summarize open risks or mitigations.",
		},
	}
}

// Responder answers assistant questions about recent digests.
//
// When LLM is nil every reply comes from the deterministic engine. When an
// LLM is configured it is tried first and any error falls back to the
// deterministic reply for the same request, so the endpoint never fails on
// LLM trouble.
type Responder struct {
	Store digest.Store

	// LLM is optional; nil selects the deterministic engine.
	LLM llm.LLMClient

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics

	// now is a test hook; defaults to time.Now.
	now func() time.Time
}

// NewResponder builds a Responder over the digest store.
func NewResponder(store digest.Store, client llm.LLMClient) *Responder {
	return &Responder{
		Store: store,
		LLM:   client,
		now:   time.Now,
	}
}

// BootstrapMessages returns the opening conversation for a fresh chat
// panel: the system prompt plus, when a digest exists, a greeting built
// from the latest summary.
func (r *Responder) BootstrapMessages(ctx context.Context) ([]datatypes.ChatMessage, error) {
	latest, ok, err := digest.Latest(ctx, r.Store)
	if err != nil {
		return nil, fmt.Errorf("load latest digest: %w", err)
	}

	now := r.now().UTC()
	messages := []datatypes.ChatMessage{
		{
			ID:        uuid.NewString(),
			Role:      datatypes.RoleSystem,
			Content:   systemPrompt,
			Timestamp: now,
		},
	}
	if ok {
		messages = append(messages, datatypes.ChatMessage{
			ID:        uuid.NewString(),
			Role:      datatypes.RoleAssistant,
			Content:   "Morning! " + latest.Summary,
			Timestamp: now,
		})
	}
	return messages, nil
}

// Answer produces the assistant reply for one request. The returned
// references are the digests the reply was grounded on, newest first.
func (r *Responder) Answer(ctx context.Context, req datatypes.ChatRequest) (datatypes.ChatResponse, error) {
	digests, err := r.Store.FindRecent(ctx, referenceLimit)
	if err != nil {
		return datatypes.ChatResponse{}, fmt.Errorf("load digests: %w", err)
	}

	variant := Classify(req.ActionID, req.Message, len(digests) > 0)

	var content string
	path := "deterministic"
	if r.LLM != nil && len(digests) > 0 {
		content, err = r.askLLM(ctx, req.Message, digests)
		if err != nil {
			slog.Warn("LLM reply failed, using deterministic fallback", "error", err)
			r.Metrics.RecordLLMFallback()
			content = renderVariant(variant, digests)
		} else {
			path = "llm"
		}
	} else {
		content = renderVariant(variant, digests)
	}
	r.Metrics.RecordChat(string(variant), path)

	reply := datatypes.ChatMessage{
		ID:        uuid.NewString(),
		Role:      datatypes.RoleAssistant,
		Content:   content,
		Timestamp: r.now().UTC(),
		ActionID:  req.ActionID,
	}
	if digests == nil {
		digests = []datatypes.DigestEntry{}
	}
	return datatypes.ChatResponse{Reply: reply, References: digests}, nil
}

// askLLM sends the question with recent digest context. Temperature and
// token limits match the product's tuned values.
func (r *Responder) askLLM(ctx context.Context, message string, digests []datatypes.DigestEntry) (string, error) {
	temperature := float32(0.7)
	maxTokens := 500

	system := fmt.Sprintf(`You are Release Pilot, an AI assistant that helps PMs understand release health and deployment status.

Be concise and specific. Reference actual data from the digests provided. Use bullet points when listing multiple items. Keep responses under 150 words unless more detail is explicitly requested.

Current context:
%s`, digestContext(digests))

	content, err := r.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	}, llm.GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		return "I couldn't generate a response. Please try again.", nil
	}
	return content, nil
}

// digestContext renders recent digests into the LLM prompt.
func digestContext(digests []datatypes.DigestEntry) string {
	if len(digests) > llmContextDigests {
		digests = digests[:llmContextDigests]
	}

	sections := make([]string, 0, len(digests))
	for _, d := range digests {
		highlights := make([]string, 0, len(d.Highlights))
		for _, h := range d.Highlights {
			highlights = append(highlights, fmt.Sprintf("- %s: %s", h.Title, h.Description))
		}
		metrics := make([]string, 0, len(d.Metrics))
		for _, m := range d.Metrics {
			metrics = append(metrics, fmt.Sprintf("- %s: %s (%s)", m.Label, m.Value, m.Trend))
		}
		sections = append(sections, fmt.Sprintf("Date: %s\nStatus: %s\nSummary: %s\nHighlights: %s\nMetrics: %s\nIncidents: %s",
			d.Date.Format("2006-01-02"),
			d.Status,
			d.Summary,
			strings.Join(highlights, "\n"),
			strings.Join(metrics, "\n"),
			strings.Join(d.Incidents, "; ")))
	}
	return strings.Join(sections, "\n\n---\n\n")
}

// renderVariant produces the deterministic reply for a classified request.
func renderVariant(variant Variant, digests []datatypes.DigestEntry) string {
	if variant == VariantNoDigest || len(digests) == 0 {
		return "I don't have any digests yet, but you can trigger one from the admin panel or Slack."
	}
	latest := digests[0]

	switch variant {
	case VariantLatestDigest, VariantHighlights:
		return summarizeDigest(latest)
	case VariantHealthFocus:
		return summarizeMetrics(latest)
	case VariantIncidents:
		return summarizeIncidents(latest)
	case VariantTrend:
		return summarizeMetrics(latest) + "\n\n7-day trend: " + trendLine(digests)
	default:
		return latest.Summary + "\nNeed more detail? Ask for \"health metrics\" or \"incidents\"."
	}
}

// summarizeDigest leads with the summary and lists the top two highlights.
func summarizeDigest(d datatypes.DigestEntry) string {
	highlights := d.Highlights
	if len(highlights) > 2 {
		highlights = highlights[:2]
	}
	lines := make([]string, 0, len(highlights))
	for _, h := range highlights {
		lines = append(lines, fmt.Sprintf("• %s: %s", h.Title, h.Impact))
	}
	return d.Summary + "\n\nHighlights:\n" + strings.Join(lines, "\n")
}

func summarizeMetrics(d datatypes.DigestEntry) string {
	lines := make([]string, 0, len(d.Metrics))
	for _, m := range d.Metrics {
		lines = append(lines, fmt.Sprintf("• %s: %s (%s, %s) – %s", m.Label, m.Value, m.Delta, m.Trend, m.Status))
	}
	return fmt.Sprintf("Here's how health looks for %s:\n%s", d.Title, strings.Join(lines, "\n"))
}

func summarizeIncidents(d datatypes.DigestEntry) string {
	if len(d.Incidents) == 0 {
		return "No incidents were reported in the last cycle."
	}
	lines := make([]string, 0, len(d.Incidents))
	for _, incident := range d.Incidents {
		lines = append(lines, "• "+incident)
	}
	return "Incident recap:\n" + strings.Join(lines, "\n")
}

// trendLine renders up to four recent digests as "date: status" hops,
// newest first.
func trendLine(digests []datatypes.DigestEntry) string {
	if len(digests) > 4 {
		digests = digests[:4]
	}
	hops := make([]string, 0, len(digests))
	for _, d := range digests {
		hops = append(hops, fmt.Sprintf("%s: %s", d.Date.Format("2006-01-02"), d.Status))
	}
	return strings.Join(hops, " → ")
}
