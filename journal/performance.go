package journal

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RiskMetricsConfig parameterizes PortfolioPerformance. Mirrors
// env.RiskMetricsConfig's fields but lives in this package too so journal
// has no import-cycle dependency on env.
type RiskMetricsConfig struct {
	RiskFreeRate   float64
	PeriodsPerYear int
}

// PortfolioPerformance is the risk-adjusted summary of an equity curve
// (spec §4.7 "Portfolio performance": Sharpe ratio, annualized volatility,
// max drawdown), computed with gonum/stat the way the teacher's pkg/formulas
// package does for its own Sharpe/volatility calculations.
type PortfolioPerformance struct {
	Sharpe               float64
	AnnualizedVolatility float64
	MaxDrawdownPct       float64
}

// periodReturns converts a step-ordered equity curve into simple per-period
// returns; a non-positive prior value yields a zero return for that step
// rather than a division by zero or an Inf.
func periodReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		returns[i-1] = (equity[i] - equity[i-1]) / equity[i-1]
	}
	return returns
}

// ComputePortfolioPerformance derives Sharpe/volatility/drawdown from an
// equity curve (cumulative portfolio value per step, strictly in step
// order).
func ComputePortfolioPerformance(equity []float64, cfg RiskMetricsConfig) PortfolioPerformance {
	periodsPerYear := cfg.PeriodsPerYear
	if periodsPerYear <= 0 {
		periodsPerYear = 252
	}

	returns := periodReturns(equity)
	if len(returns) == 0 {
		return PortfolioPerformance{}
	}

	meanReturn := stat.Mean(returns, nil)
	stdReturn := stat.StdDev(returns, nil)

	riskFreePerPeriod := cfg.RiskFreeRate / float64(periodsPerYear)
	var sharpe float64
	if stdReturn != 0 {
		sharpe = (meanReturn - riskFreePerPeriod) / stdReturn * math.Sqrt(float64(periodsPerYear))
	}

	return PortfolioPerformance{
		Sharpe:               sharpe,
		AnnualizedVolatility: stdReturn * math.Sqrt(float64(periodsPerYear)),
		MaxDrawdownPct:       maxDrawdown(equity),
	}
}

// maxDrawdown returns the largest peak-to-trough percentage decline observed
// along the curve, as a positive fraction (0.2 == a 20% drawdown).
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	var worst float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak
		if drawdown > worst {
			worst = drawdown
		}
	}
	return worst
}
