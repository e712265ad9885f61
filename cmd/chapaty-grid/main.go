// Command chapaty-grid runs a one-shot grid evaluation from the command
// line: every agent in a fixed pool is evaluated against the same
// SimulationData, and the top results per metric are printed. It is the
// offline counterpart to cmd/chapaty-serve's long-running HTTP front end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/bootstrap"
	"github.com/aristath/chapaty/grid"
	"github.com/aristath/chapaty/logging"
)

func main() {
	workers := flag.Int("workers", 0, "worker pool size (0 = CPU count)")
	topK := flag.Int("top", 10, "leaderboard size per metric")
	flag.Parse()

	cfg, err := bootstrap.Load()
	level := "info"
	if err == nil && cfg != nil {
		level = cfg.LogLevel
	}
	log := logging.New(logging.Config{Level: level, Pretty: true})
	if err != nil {
		log.Warn().Err(err).Msg("failed to load bootstrap config, continuing with defaults")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Warn().Msg("received shutdown signal, canceling in-flight evaluations")
		cancel()
	}()

	// The agent pool and evaluation function are caller-specific (they depend
	// on the SimulationData this run targets); this entrypoint wires the
	// generic worker pool and leaderboard around whatever is supplied here.
	agents := []agent.Agent{}
	evaluate := func(ctx context.Context, a agent.Agent) (grid.AgentResult, error) {
		return grid.AgentResult{AgentID: a.Identifier(), Metrics: map[string]float64{}}, nil
	}

	metrics := []string{"sharpe", "total_pnl", "hit_ratio"}
	lb := grid.NewLeaderboard(*topK, metrics)

	if err := grid.Run(ctx, agents, evaluate, grid.Config{Workers: *workers}, lb, log); err != nil {
		log.Fatal().Err(err).Msg("grid evaluation failed")
	}

	for _, m := range metrics {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		fmt.Printf("=== top %s ===\n", m)
		_ = enc.Encode(lb.Top(m))
	}
}
