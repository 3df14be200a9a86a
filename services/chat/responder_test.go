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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/llm"
	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
)

// fakeStore serves a fixed digest list.
type fakeStore struct {
	entries []datatypes.DigestEntry
	err     error
}

func (f *fakeStore) FindRecent(ctx context.Context, limit int) ([]datatypes.DigestEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeStore) Create(ctx context.Context, fields digest.CreateFields) (datatypes.DigestEntry, error) {
	return datatypes.DigestEntry{}, errors.New("read-only fake")
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

// fakeLLM returns a fixed reply or error.
type fakeLLM struct {
	reply string
	err   error
	calls int

	lastMessages []llm.Message
	lastParams   llm.GenerationParams
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, params llm.GenerationParams) (string, error) {
	f.calls++
	f.lastMessages = messages
	f.lastParams = params
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testDigest(incidents []string) datatypes.DigestEntry {
	return datatypes.DigestEntry{
		ID:        "dg-test-0001",
		ProductID: "launchpad",
		Title:     "Launchpad daily release brief",
		Summary:   "Status WARNING: Unified release timeline shipped and Crash-free sessions sits at 99.4%. No blocking incidents reported.",
		Date:      time.Date(2025, 11, 21, 9, 0, 0, 0, time.UTC),
		Status:    datatypes.StatusWarning,
		Highlights: []datatypes.ReleaseHighlight{
			{ID: "hl-1", Title: "Unified release timeline", Description: "Timeline page", Impact: "Single source of truth."},
			{ID: "hl-2", Title: "Slack acknowledgement workflow", Description: "Ack from Slack", Impact: "Read receipts for leadership."},
			{ID: "hl-3", Title: "Realtime health card API", Description: "Health cards", Impact: "Spot regressions faster."},
		},
		Metrics: []datatypes.HealthMetric{
			{ID: "mt-1", Label: "Crash-free sessions", Value: "99.4%", Delta: "+0.3pp", Trend: datatypes.TrendUp, Status: datatypes.StatusHealthy},
			{ID: "mt-2", Label: "Deployment success rate", Value: "96%", Delta: "-2pp", Trend: datatypes.TrendDown, Status: datatypes.StatusWarning},
		},
		Incidents: incidents,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		actionID  string
		message   string
		hasDigest bool
		want      Variant
	}{
		{"empty store wins over action", "latest_digest", "anything", false, VariantNoDigest},
		{"latest digest action", "latest_digest", "", true, VariantLatestDigest},
		{"health focus action", "health_focus", "", true, VariantHealthFocus},
		{"incidents action", "incidents", "", true, VariantIncidents},
		{"unknown action falls through to keywords", "bogus", "what's the trend?", true, VariantTrend},
		{"trend keyword", "", "How does the Trend look?", true, VariantTrend},
		{"week keyword", "", "summarize this week", true, VariantTrend},
		{"highlight keyword", "", "any highlights?", true, VariantHighlights},
		{"no match", "", "hello there", true, VariantDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.actionID, tt.message, tt.hasDigest))
		})
	}
}

func TestAnswerNoDigests(t *testing.T) {
	responder := NewResponder(&fakeStore{}, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{Message: "what shipped?"})
	require.NoError(t, err)
	assert.Equal(t,
		"I don't have any digests yet, but you can trigger one from the admin panel or Slack.",
		resp.Reply.Content)
	assert.Equal(t, datatypes.RoleAssistant, resp.Reply.Role)
	assert.Empty(t, resp.References)
	assert.NotNil(t, resp.References)
}

func TestAnswerIncidentsWithEmptyList(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest([]string{})}}
	responder := NewResponder(store, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{
		Message:  "Any incidents I should know about?",
		ActionID: "incidents",
	})
	require.NoError(t, err)
	assert.Equal(t, "No incidents were reported in the last cycle.", resp.Reply.Content)
	assert.Equal(t, "incidents", resp.Reply.ActionID)
	require.Len(t, resp.References, 1)
}

func TestAnswerIncidentRecap(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest([]string{
		"Two deploy rollbacks due to config drift.",
		"Elevated p95 latency on the EU edge.",
	})}}
	responder := NewResponder(store, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{ActionID: "incidents"})
	require.NoError(t, err)
	assert.Equal(t,
		"Incident recap:\n• Two deploy rollbacks due to config drift.\n• Elevated p95 latency on the EU edge.",
		resp.Reply.Content)
}

func TestAnswerLatestDigest(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest(nil)}}
	responder := NewResponder(store, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{ActionID: "latest_digest"})
	require.NoError(t, err)

	// Top two highlights only, summary first.
	assert.Contains(t, resp.Reply.Content, "Status WARNING:")
	assert.Contains(t, resp.Reply.Content, "• Unified release timeline: Single source of truth.")
	assert.Contains(t, resp.Reply.Content, "• Slack acknowledgement workflow: Read receipts for leadership.")
	assert.NotContains(t, resp.Reply.Content, "Realtime health card API")
}

func TestAnswerHealthFocus(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest(nil)}}
	responder := NewResponder(store, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{ActionID: "health_focus"})
	require.NoError(t, err)
	assert.Equal(t,
		"Here's how health looks for Launchpad daily release brief:\n"+
			"• Crash-free sessions: 99.4% (+0.3pp, up) – healthy\n"+
			"• Deployment success rate: 96% (-2pp, down) – warning",
		resp.Reply.Content)
}

func TestAnswerTrend(t *testing.T) {
	older := testDigest(nil)
	older.ID = "dg-test-0000"
	older.Date = time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)
	older.Status = datatypes.StatusHealthy

	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest(nil), older}}
	responder := NewResponder(store, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{Message: "how was the week?"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply.Content, "7-day trend: 2025-11-21: warning → 2025-11-20: healthy")
}

func TestAnswerDefaultNudge(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest(nil)}}
	responder := NewResponder(store, nil)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t,
		testDigest(nil).Summary+"\nNeed more detail? Ask for \"health metrics\" or \"incidents\".",
		resp.Reply.Content)
}

func TestAnswerUsesLLMWhenConfigured(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest(nil)}}
	client := &fakeLLM{reply: "Everything shipped cleanly today."}
	responder := NewResponder(store, client)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{Message: "what shipped?"})
	require.NoError(t, err)
	assert.Equal(t, "Everything shipped cleanly today.", resp.Reply.Content)
	assert.Equal(t, 1, client.calls)

	require.Len(t, client.lastMessages, 2)
	assert.Equal(t, "system", client.lastMessages[0].Role)
	assert.Contains(t, client.lastMessages[0].Content, "Current context:")
	assert.Contains(t, client.lastMessages[0].Content, "Crash-free sessions: 99.4% (up)")
	assert.Equal(t, "what shipped?", client.lastMessages[1].Content)

	require.NotNil(t, client.lastParams.Temperature)
	assert.InDelta(t, 0.7, float64(*client.lastParams.Temperature), 0.0001)
	require.NotNil(t, client.lastParams.MaxTokens)
	assert.Equal(t, 500, *client.lastParams.MaxTokens)
}

func TestAnswerFallsBackOnLLMError(t *testing.T) {
	store := &fakeStore{entries: []datatypes.DigestEntry{testDigest([]string{})}}
	client := &fakeLLM{err: errors.New("rate limited")}
	responder := NewResponder(store, client)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{ActionID: "incidents"})
	require.NoError(t, err, "LLM failure must not surface to the caller")
	assert.Equal(t, "No incidents were reported in the last cycle.", resp.Reply.Content)
	assert.Equal(t, 1, client.calls)
}

func TestAnswerSkipsLLMWhenStoreEmpty(t *testing.T) {
	client := &fakeLLM{reply: "unused"}
	responder := NewResponder(&fakeStore{}, client)

	resp, err := responder.Answer(context.Background(), datatypes.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, client.calls)
	assert.Contains(t, resp.Reply.Content, "I don't have any digests yet")
}

func TestAnswerStoreError(t *testing.T) {
	responder := NewResponder(&fakeStore{err: errors.New("db closed")}, nil)

	_, err := responder.Answer(context.Background(), datatypes.ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load digests")
}

func TestBootstrapMessages(t *testing.T) {
	t.Run("with a digest", func(t *testing.T) {
		store := &fakeStore{entries: []datatypes.DigestEntry{testDigest(nil)}}
		responder := NewResponder(store, nil)

		messages, err := responder.BootstrapMessages(context.Background())
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, datatypes.RoleSystem, messages[0].Role)
		assert.Contains(t, messages[0].Content, "Release Pilot")
		assert.Equal(t, datatypes.RoleAssistant, messages[1].Role)
		assert.Equal(t, "Morning! "+testDigest(nil).Summary, messages[1].Content)
	})

	t.Run("empty store", func(t *testing.T) {
		responder := NewResponder(&fakeStore{}, nil)

		messages, err := responder.BootstrapMessages(context.Background())
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, datatypes.RoleSystem, messages[0].Role)
	})
}

func TestQuickActions(t *testing.T) {
	actions := QuickActions()
	require.Len(t, actions, 3)
	assert.Equal(t, "latest_digest", actions[0].ID)
	assert.Equal(t, "health_focus", actions[1].ID)
	assert.Equal(t, "incidents", actions[2].ID)
	for _, a := range actions {
		assert.NotEmpty(t, a.Label)
		assert.NotEmpty(t, a.Prompt)
	}
}
