// Package env implements the gym-style environment: reset/step loop, episode
// FSM, reward accumulation (spec §4.6, component J).
package env

import (
	"sort"
	"strings"

	"github.com/aristath/chapaty/cursor"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/simdata"
)

// RiskMetricsConfig parameterizes the portfolio-performance calculations in
// package journal (spec §6 "risk_metrics_cfg").
type RiskMetricsConfig struct {
	InitialPortfolioValue float64
	RiskFreeRate          float64
	PeriodsPerYear        int
}

// Config is the full configuration surface a caller builds an Environment
// from (spec §6 "Configuration surface").
type Config struct {
	Streams               []domain.StreamID
	EpisodeLength         cursor.EpisodeLength
	Filter                simdata.FilterConfig
	InvalidActionPenalty  domain.InvalidActionPenalty
	RiskMetrics           RiskMetricsConfig
	ExecutionBias         domain.ExecutionBias
	DefaultDecimalPlaces  int
	PerMarketDecimalPlaces map[domain.MarketID]int
}

// Fingerprint folds every field that affects the assembled SimulationData
// into the deterministic config hash (spec §3 "config_hash").
func (c Config) Fingerprint() string {
	ids := make([]string, len(c.Streams))
	for i, s := range c.Streams {
		ids[i] = s.String()
	}
	sort.Strings(ids)
	return "streams:[" + strings.Join(ids, ",") + "]|" + c.Filter.Fingerprint()
}
