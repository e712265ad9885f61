// Command chapaty-serve exposes the grid evaluator over HTTP: submit a run
// of agents against a fixed SimulationData, poll its status, fetch its
// leaderboard. It is the thin wrapper a continuous-evaluation service would
// front with a scheduler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/api"
	"github.com/aristath/chapaty/bootstrap"
	"github.com/aristath/chapaty/grid"
	"github.com/aristath/chapaty/logging"
)

func main() {
	cfg, err := bootstrap.Load()
	log := logging.New(logging.Config{Level: pick(cfg, err), Pretty: cfg != nil && cfg.DevMode})
	if err != nil {
		log.Warn().Err(err).Msg("failed to load bootstrap config, continuing with defaults")
	}

	// A real deployment supplies its own agent pool and SimulationData here;
	// this wrapper only wires the evaluation loop to the HTTP front end. The
	// evaluate function below is a placeholder: it builds no environment and
	// returns an empty metrics map for every agent.
	agents := []agent.Agent{}
	evaluate := func(ctx context.Context, a agent.Agent) (grid.AgentResult, error) {
		return grid.AgentResult{AgentID: a.Identifier(), Metrics: map[string]float64{}}, nil
	}

	registry := api.NewRunRegistry(agents, evaluate, []string{"sharpe", "total_pnl", "hit_ratio"})
	server := api.New(api.Config{Log: log, DevMode: cfg != nil && cfg.DevMode}, registry)

	httpServer := &http.Server{
		Addr:              ":8090",
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("chapaty-serve listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func pick(cfg *bootstrap.Config, err error) string {
	if err != nil || cfg == nil {
		return "info"
	}
	return cfg.LogLevel
}
