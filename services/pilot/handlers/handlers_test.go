// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/ReleasePilot/services/chat"
	"github.com/AleutianAI/ReleasePilot/services/digest"
	"github.com/AleutianAI/ReleasePilot/services/pilot/datatypes"
	"github.com/AleutianAI/ReleasePilot/services/slack"
	"github.com/AleutianAI/ReleasePilot/services/sources"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Fakes ---

type fakeStore struct {
	entries   []datatypes.DigestEntry
	findErr   error
	createErr error
	created   int
}

func (f *fakeStore) FindRecent(ctx context.Context, limit int) ([]datatypes.DigestEntry, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeStore) Create(ctx context.Context, fields digest.CreateFields) (datatypes.DigestEntry, error) {
	f.created++
	if f.createErr != nil {
		return datatypes.DigestEntry{}, f.createErr
	}
	return datatypes.DigestEntry{
		ID:        "dg-test-0001",
		ProductID: fields.ProductID,
		Title:     fields.Title,
		Summary:   fields.Summary,
		Date:      time.Date(2025, 11, 21, 9, 0, 0, 0, time.UTC),
		Status:    fields.Status,
		Metrics:   fields.Metrics,
		Incidents: fields.Incidents,
		Sources:   fields.Sources,
	}, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

type fakeFetcher struct{}

func (f *fakeFetcher) FetchReleaseHighlights(ctx context.Context, productID string) sources.FetchResult[[]datatypes.ReleaseHighlight] {
	return sources.FetchResult[[]datatypes.ReleaseHighlight]{
		Source: "mock://releases/fetchLatest?product=" + productID,
		Origin: sources.OriginMock,
	}
}

func (f *fakeFetcher) FetchHealthMetrics(ctx context.Context, productID string) sources.FetchResult[[]datatypes.HealthMetric] {
	return sources.FetchResult[[]datatypes.HealthMetric]{
		Source:  "mock://metrics/getHealth?product=" + productID,
		Origin:  sources.OriginMock,
		Payload: sources.MockMetrics(),
	}
}

func (f *fakeFetcher) FetchIncidents(ctx context.Context, productID string) sources.FetchResult[[]string] {
	return sources.FetchResult[[]string]{
		Source: "mock://incidents/recent?product=" + productID,
		Origin: sources.OriginMock,
	}
}

func sampleEntry() datatypes.DigestEntry {
	return datatypes.DigestEntry{
		ID:        "dg-test-0001",
		ProductID: "launchpad",
		Title:     "Launchpad daily release brief",
		Summary:   "Status HEALTHY: all quiet.",
		Date:      time.Date(2025, 11, 21, 9, 0, 0, 0, time.UTC),
		Status:    datatypes.StatusHealthy,
		Metrics: []datatypes.HealthMetric{
			{ID: "mt-1", Label: "Crash-free sessions", Value: "99.4%", Status: datatypes.StatusHealthy},
		},
		Incidents: []string{},
	}
}

func performRequest(router *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := performRequest(router, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "release-pilot", response["service"])
}

// =============================================================================
// Digest Endpoint Tests
// =============================================================================

func TestListDigests(t *testing.T) {
	t.Run("returns recent digests", func(t *testing.T) {
		router := gin.New()
		router.GET("/v1/digests", ListDigests(&fakeStore{entries: []datatypes.DigestEntry{sampleEntry()}}))

		w := performRequest(router, "GET", "/v1/digests", "", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Digests []datatypes.DigestEntry `json:"digests"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Digests, 1)
		assert.Equal(t, "dg-test-0001", response.Digests[0].ID)
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		router := gin.New()
		router.GET("/v1/digests", ListDigests(&fakeStore{findErr: errors.New("db closed")}))

		w := performRequest(router, "GET", "/v1/digests", "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTriggerDigest(t *testing.T) {
	newRouter := func(store *fakeStore) *gin.Engine {
		router := gin.New()
		router.POST("/v1/digests", TriggerDigest(digest.NewAggregator(&fakeFetcher{}, store)))
		return router
	}

	t.Run("empty body defaults to launchpad", func(t *testing.T) {
		store := &fakeStore{}
		w := performRequest(newRouter(store), "POST", "/v1/digests", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, store.created)

		var result datatypes.DigestRunResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.OK)
		require.NotNil(t, result.Digest)
		assert.Equal(t, "launchpad", result.Digest.ProductID)
	})

	t.Run("dry run does not persist", func(t *testing.T) {
		store := &fakeStore{}
		w := performRequest(newRouter(store), "POST", "/v1/digests",
			"application/json", `{"dryRun":true}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, store.created)

		var result datatypes.DigestRunResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.NotNil(t, result.Digest)
		assert.True(t, strings.HasPrefix(result.Digest.ID, "dg-preview-"))
	})

	t.Run("invalid product id is a 400", func(t *testing.T) {
		store := &fakeStore{}
		w := performRequest(newRouter(store), "POST", "/v1/digests",
			"application/json", `{"productId":"../etc/passwd"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, store.created)
	})

	t.Run("uppercase product id is normalized", func(t *testing.T) {
		store := &fakeStore{}
		w := performRequest(newRouter(store), "POST", "/v1/digests",
			"application/json", `{"productId":"Launchpad"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var result datatypes.DigestRunResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.NotNil(t, result.Digest)
		assert.Equal(t, "launchpad", result.Digest.ProductID)
	})

	t.Run("persistence failure is a 500 with the error", func(t *testing.T) {
		store := &fakeStore{createErr: errors.New("disk full")}
		w := performRequest(newRouter(store), "POST", "/v1/digests", "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var result datatypes.DigestRunResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.OK)
		assert.Contains(t, result.Error, "disk full")
	})
}

// =============================================================================
// Chat Endpoint Tests
// =============================================================================

func TestHandleChat(t *testing.T) {
	newRouter := func(store *fakeStore) *gin.Engine {
		router := gin.New()
		router.POST("/v1/chat", HandleChat(chat.NewResponder(store, nil)))
		return router
	}

	t.Run("missing message is a 400 with the contract body", func(t *testing.T) {
		w := performRequest(newRouter(&fakeStore{}), "POST", "/v1/chat",
			"application/json", `{"actionId":"incidents"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Message is required."}`, w.Body.String())
	})

	t.Run("malformed JSON degrades to the same 400", func(t *testing.T) {
		w := performRequest(newRouter(&fakeStore{}), "POST", "/v1/chat",
			"application/json", `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Message is required."}`, w.Body.String())
	})

	t.Run("oversized message is a 400", func(t *testing.T) {
		huge := strings.Repeat("a", datatypes.MaxMessageContentBytes+1)
		body, _ := json.Marshal(map[string]string{"message": huge})
		w := performRequest(newRouter(&fakeStore{}), "POST", "/v1/chat",
			"application/json", string(body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("answers with references", func(t *testing.T) {
		store := &fakeStore{entries: []datatypes.DigestEntry{sampleEntry()}}
		w := performRequest(newRouter(store), "POST", "/v1/chat",
			"application/json", `{"message":"Any incidents I should know about?","actionId":"incidents"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var response datatypes.ChatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "No incidents were reported in the last cycle.", response.Reply.Content)
		assert.Equal(t, datatypes.RoleAssistant, response.Reply.Role)
		require.Len(t, response.References, 1)
	})

	t.Run("empty store still answers", func(t *testing.T) {
		w := performRequest(newRouter(&fakeStore{}), "POST", "/v1/chat",
			"application/json", `{"message":"what shipped?"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var response datatypes.ChatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response.Reply.Content, "I don't have any digests yet")
	})
}

func TestListQuickActions(t *testing.T) {
	router := gin.New()
	router.GET("/v1/chat/actions", ListQuickActions)

	w := performRequest(router, "GET", "/v1/chat/actions", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Actions []datatypes.QuickAction `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Actions, 3)
	assert.Equal(t, "latest_digest", response.Actions[0].ID)
}

// =============================================================================
// Slack Endpoint Tests
// =============================================================================

func newSlackRouter(svc *slack.Service, store *fakeStore) *gin.Engine {
	router := gin.New()
	router.POST("/v1/slack", HandleSlack(svc, store, nil))
	return router
}

func TestHandleSlackURLVerification(t *testing.T) {
	router := newSlackRouter(&slack.Service{}, &fakeStore{})

	w := performRequest(router, "POST", "/v1/slack",
		"application/json", `{"type":"url_verification","challenge":"abc123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"challenge":"abc123"}`, w.Body.String())
}

func TestHandleSlackUnsupportedJSON(t *testing.T) {
	router := newSlackRouter(&slack.Service{}, &fakeStore{})

	w := performRequest(router, "POST", "/v1/slack",
		"application/json", `{"type":"event_callback"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSlackTokenGate(t *testing.T) {
	svc := &slack.Service{Token: "sekrit"}
	store := &fakeStore{entries: []datatypes.DigestEntry{sampleEntry()}}

	t.Run("wrong token is a 401", func(t *testing.T) {
		form := url.Values{"token": {"wrong"}, "command": {"/digest"}}
		w := performRequest(newSlackRouter(svc, store), "POST", "/v1/slack",
			"application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Verification failed."}`, w.Body.String())
	})

	t.Run("matching token passes", func(t *testing.T) {
		form := url.Values{"token": {"sekrit"}, "command": {"/digest"}}
		w := performRequest(newSlackRouter(svc, store), "POST", "/v1/slack",
			"application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleSlackCommand(t *testing.T) {
	entry := sampleEntry()
	store := &fakeStore{entries: []datatypes.DigestEntry{entry}}

	t.Run("daily reply", func(t *testing.T) {
		form := url.Values{"command": {"/digest"}}
		w := performRequest(newSlackRouter(&slack.Service{}, store), "POST", "/v1/slack",
			"application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Today: "+entry.Summary+"\nTop metric: 99.4%.", w.Body.String())
	})

	t.Run("weekly reply", func(t *testing.T) {
		form := url.Values{"command": {"/digest"}, "text": {"week"}}
		w := performRequest(newSlackRouter(&slack.Service{}, store), "POST", "/v1/slack",
			"application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "Weekly digest: "))
	})

	t.Run("no digest prompt", func(t *testing.T) {
		form := url.Values{"command": {"/digest"}}
		w := performRequest(newSlackRouter(&slack.Service{}, &fakeStore{}), "POST", "/v1/slack",
			"application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, slack.NoDigestReply, w.Body.String())
	})

	t.Run("blocks variant returns Block Kit JSON", func(t *testing.T) {
		form := url.Values{"command": {"/digest"}, "text": {"blocks"}}
		w := performRequest(newSlackRouter(&slack.Service{AppURL: "http://localhost:3000"}, store),
			"POST", "/v1/slack", "application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.Contains(t, w.Body.String(), `"blocks"`)
		assert.Contains(t, w.Body.String(), "Launchpad daily release brief")
	})
}

// =============================================================================
// History Endpoint Tests
// =============================================================================

func TestMetricHistoryDisabled(t *testing.T) {
	router := gin.New()
	router.GET("/v1/history", MetricHistory(nil))

	w := performRequest(router, "GET", "/v1/history?metric=mt-001", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Metric history is disabled."}`, w.Body.String())
}
