package grid

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/logging"
)

// Config tunes the evaluator's worker pool and progress cadence.
type Config struct {
	Workers int
	// ProgressEvery, if > 0, overrides the default progress cadence of
	// len(agents)/100 (spec §4.8: "progress reporting every stream_len/100
	// agents").
	ProgressEvery int
}

// EvaluateFunc runs one full backtest for a single agent and reduces it to
// an AgentResult (every metric the leaderboard might track). Implementations
// typically build a fresh env.Environment, drive it to completion, and
// derive metrics from the resulting journal.Journal.
type EvaluateFunc func(ctx context.Context, a agent.Agent) (AgentResult, error)

type job struct {
	index int
	agent agent.Agent
}

type jobResult struct {
	index  int
	result AgentResult
	err    error
}

// Run evaluates every agent concurrently across a bounded worker pool
// (grounded on the teacher's services/evaluator worker-pool job/result
// channel shape), folding each result into lb as it completes and logging
// progress at the configured cadence. The first evaluation error stops
// dispatch of further jobs but lets in-flight jobs finish so already-started
// work is not silently lost.
func Run(ctx context.Context, agents []agent.Agent, evaluate EvaluateFunc, cfg Config, lb *Leaderboard, log zerolog.Logger) error {
	n := len(agents)
	if n == 0 {
		return nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		if c, err := cpu.Counts(true); err == nil && c > 0 {
			workers = c
		} else {
			workers = 4
		}
	}
	if workers > n {
		workers = n
	}

	progressEvery := cfg.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = n / 100
	}
	if progressEvery <= 0 {
		progressEvery = 1
	}

	jobs := make(chan job, n)
	results := make(chan jobResult, n)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var firstErr error
	var errOnce sync.Once
	var stopped atomic.Bool

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if stopped.Load() {
					continue
				}
				res, err := evaluate(ctx, j.agent)
				if err != nil {
					errOnce.Do(func() { firstErr = err; stopped.Store(true); cancel() })
				}
				results <- jobResult{index: j.index, result: res, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, a := range agents {
			select {
			case jobs <- job{index: i, agent: a}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var completed int64
	for r := range results {
		if r.err != nil {
			continue
		}
		lb.Offer(r.result)
		done := atomic.AddInt64(&completed, 1)
		if done%int64(progressEvery) == 0 || int(done) == n {
			log.Info().Int64("completed", done).Int("total", n).Msg("grid evaluation progress")
		}
	}

	if firstErr != nil {
		return firstErr
	}
	return nil
}

// RunWithDefaultLogger runs Run against the package-wide logging.Default
// logger, for callers that have not threaded their own through.
func RunWithDefaultLogger(ctx context.Context, agents []agent.Agent, evaluate EvaluateFunc, cfg Config, lb *Leaderboard) error {
	return Run(ctx, agents, evaluate, cfg, lb, logging.Default)
}
