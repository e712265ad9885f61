package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/grid"
	"github.com/aristath/chapaty/logging"
)

// RunStatus is a run's lifecycle state.
type RunStatus string

const (
	RunQueued  RunStatus = "queued"
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

// Run is one submitted grid evaluation and its outcome so far.
type Run struct {
	ID     string    `json:"id"`
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	leaderboard *grid.Leaderboard
}

// RunRegistry tracks in-flight and completed grid runs in memory. It is the
// API server's only state; a process restart drops it, which is acceptable
// since every run is also reproducible from its SimulationData fingerprint.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*Run

	agents   []agent.Agent
	evaluate grid.EvaluateFunc
	metrics  []string
}

// NewRunRegistry builds a registry that dispatches submitted runs through
// evaluate against agents, tracking the top results per metrics.
func NewRunRegistry(agents []agent.Agent, evaluate grid.EvaluateFunc, metrics []string) *RunRegistry {
	return &RunRegistry{
		runs:     make(map[string]*Run),
		agents:   agents,
		evaluate: evaluate,
		metrics:  metrics,
	}
}

// Submit starts a new run in the background and returns its id immediately.
func (rr *RunRegistry) Submit(ctx context.Context, gridCfg grid.Config) string {
	id := uuid.NewString()
	run := &Run{ID: id, Status: RunQueued, leaderboard: grid.NewLeaderboard(10, rr.metrics)}

	rr.mu.Lock()
	rr.runs[id] = run
	rr.mu.Unlock()

	go func() {
		rr.mu.Lock()
		run.Status = RunRunning
		rr.mu.Unlock()

		err := grid.Run(ctx, rr.agents, rr.evaluate, gridCfg, run.leaderboard, logging.Default)

		rr.mu.Lock()
		if err != nil {
			run.Status = RunFailed
			run.Error = err.Error()
		} else {
			run.Status = RunDone
		}
		rr.mu.Unlock()
	}()

	return id
}

func (rr *RunRegistry) get(id string) (*Run, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	r, ok := rr.runs[id]
	return r, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Workers int `json:"workers"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	// A submitted run outlives this request, so it gets a detached context
	// rather than r.Context() (which cancels the moment the response is sent).
	id := s.runs.Submit(context.Background(), grid.Config{Workers: req.Workers})
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	run, ok := s.runs.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	run, ok := s.runs.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	out := make(map[string][]grid.AgentResult, len(run.leaderboard.Metrics()))
	for _, m := range run.leaderboard.Metrics() {
		out[m] = run.leaderboard.Top(m)
	}
	writeJSON(w, http.StatusOK, out)
}
