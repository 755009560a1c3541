package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/magang-agent/internal/config"
	"github.com/jonathan/magang-agent/internal/pipeline"
)

func testServer(apiKey string, run RunFunc) *Server {
	cfg := &config.Config{
		ListenAddr: ":0",
		APIKey:     apiKey,
	}
	if run == nil {
		run = func(ctx context.Context) (*pipeline.RunStats, error) {
			return &pipeline.RunStats{}, nil
		}
	}
	return New(cfg, nil, NewRunner(run))
}

func doRequest(s *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTriggerScrape_NotConfigured(t *testing.T) {
	s := testServer("", nil)
	rec := doRequest(s, http.MethodPost, "/api/v1/trigger-scrape", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerScrape_InvalidKey(t *testing.T) {
	s := testServer("secret", nil)

	rec := doRequest(s, http.MethodPost, "/api/v1/trigger-scrape", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/trigger-scrape",
		map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerScrape_Accepted(t *testing.T) {
	s := testServer("secret", nil)

	rec := doRequest(s, http.MethodPost, "/api/v1/trigger-scrape",
		map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp TriggerScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "triggered", resp.Status)
	_, err := uuid.Parse(resp.RunID)
	assert.NoError(t, err)
}

func TestTriggerScrape_Conflict(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	s := testServer("secret", func(ctx context.Context) (*pipeline.RunStats, error) {
		<-release
		return &pipeline.RunStats{}, nil
	})

	rec := doRequest(s, http.MethodPost, "/api/v1/trigger-scrape",
		map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/trigger-scrape",
		map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunStatus_Lifecycle(t *testing.T) {
	s := testServer("secret", func(ctx context.Context) (*pipeline.RunStats, error) {
		return &pipeline.RunStats{Upserted: 3}, nil
	})

	rec := doRequest(s, http.MethodPost, "/api/v1/trigger-scrape",
		map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var trig TriggerScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trig))

	require.Eventually(t, func() bool {
		rec := doRequest(s, http.MethodGet, "/api/v1/runs/"+trig.RunID, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var status RunStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.State == RunStateCompleted && status.Stats != nil && status.Stats.Upserted == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunStatus_BadID(t *testing.T) {
	s := testServer("", nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStatus_NotFound(t *testing.T) {
	s := testServer("", nil)
	rec := doRequest(s, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := testServer("", nil)
	rec := doRequest(s, http.MethodOptions, "/api/v1/lowongan", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lowongan?limit=250&offset=abc", nil)

	assert.Equal(t, 100, parseQueryInt(req, "limit", 20, 100), "values above max are clamped")
	assert.Equal(t, 0, parseQueryInt(req, "offset", 0, 0), "unparsable values fall back to the default")
	assert.Equal(t, 20, parseQueryInt(req, "missing", 20, 100))
}
