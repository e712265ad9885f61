package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/grid"
	"github.com/aristath/chapaty/logging"
)

func testRegistry() *RunRegistry {
	agents := []agent.Agent{agent.NoOpAgent{ID: "a1"}, agent.NoOpAgent{ID: "a2"}}
	evaluate := func(ctx context.Context, a agent.Agent) (grid.AgentResult, error) {
		return grid.AgentResult{AgentID: a.Identifier(), Metrics: map[string]float64{"score": 1.0}}, nil
	}
	return NewRunRegistry(agents, evaluate, []string{"score"})
}

func TestServer_HealthAndVersion(t *testing.T) {
	s := New(Config{Log: logging.Default}, testRegistry())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SubmitAndPollRun(t *testing.T) {
	s := New(Config{Log: logging.Default}, testRegistry())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/runs/", "application/json", nil)
	require.NoError(t, err)
	var submitted struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEmpty(t, submitted.ID)

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/api/runs/" + submitted.ID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var run Run
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			return false
		}
		return run.Status == RunDone
	}, time.Second, 10*time.Millisecond)

	resp, err = http.Get(srv.URL + "/api/runs/" + submitted.ID + "/leaderboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var lb map[string][]grid.AgentResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lb))
	assert.Len(t, lb["score"], 2)
}

func TestServer_GetRunNotFound(t *testing.T) {
	s := New(Config{Log: logging.Default}, testRegistry())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
