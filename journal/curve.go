package journal

import (
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/chapaty/domain"
)

// EquityCurveFit is one linear trend fit over a window of an equity curve:
// slope/intercept from gonum's ordinary least squares, and the R² goodness
// of fit (spec §4.7 "Equity curve fitting").
type EquityCurveFit struct {
	Window    string
	Slope     float64
	Intercept float64
	RSquared  float64
}

func fitWindow(label string, ys []float64) EquityCurveFit {
	if len(ys) < 2 {
		return EquityCurveFit{Window: label}
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	return EquityCurveFit{Window: label, Slope: slope, Intercept: intercept, RSquared: r2}
}

// FitEquityCurve fits three trend lines over increasingly recent slices of
// the curve — full history, the most recent half, and the most recent
// quarter — the three "k" lookback choices spec §6.3 calls out, so a caller
// can tell a strategy that is merely drifting up over its whole run apart
// from one that has only recently started trending.
func FitEquityCurve(equity []float64) []EquityCurveFit {
	n := len(equity)
	return []EquityCurveFit{
		fitWindow("full", equity),
		fitWindow("recent_half", equity[n/2:]),
		fitWindow("recent_quarter", equity[3*n/4:]),
	}
}

// EquityCurveViews is the three-way equity-curve breakdown spec §6.3 names,
// matching original_source/src/equity_curve's actual split
// (market_and_year.rs, market_and_agg_years.rs, agg_markets_and_year.rs):
// per-market-and-year, per-market-aggregated-over-years, and
// aggregated-across-markets-per-year — each a running cumulative-PnL series
// in record (exit-timestamp) order. Aggregate is an additional flat view
// collapsing every market and year into one curve.
type EquityCurveViews struct {
	Aggregate []float64

	// PerMarketAndYear is original_source's market_and_year.rs split: one
	// curve per (market, year) pair.
	PerMarketAndYear map[domain.MarketID]map[domain.Year][]float64
	// PerMarketAggregatedYears is market_and_agg_years.rs's split: one curve
	// per market, folding every year together.
	PerMarketAggregatedYears map[domain.MarketID][]float64
	// AggregatedMarketsByYear is agg_markets_and_year.rs's split: one curve
	// per year, folding every market together.
	AggregatedMarketsByYear map[domain.Year][]float64
}

func toFloatCurve(rewards []domain.Reward) []float64 {
	out := make([]float64, len(rewards))
	for i, r := range rewards {
		out[i] = float64(r)
	}
	return out
}

// BuildEquityCurveViews derives every curve view from a Journal's records.
// records is expected in exit-timestamp order (as Journal.Records returns
// it); grouping preserves that order within each bucket.
func BuildEquityCurveViews(records []TradeRecord) EquityCurveViews {
	views := EquityCurveViews{
		Aggregate:                toFloatCurve(CumulativeReturns(records)),
		PerMarketAndYear:         make(map[domain.MarketID]map[domain.Year][]float64),
		PerMarketAggregatedYears: make(map[domain.MarketID][]float64),
		AggregatedMarketsByYear:  make(map[domain.Year][]float64),
	}

	byMarket := make(map[domain.MarketID][]TradeRecord)
	byMarketYear := make(map[domain.MarketID]map[domain.Year][]TradeRecord)
	byYear := make(map[domain.Year][]TradeRecord)
	for _, r := range records {
		byMarket[r.MarketID] = append(byMarket[r.MarketID], r)
		byYear[r.ExitYear] = append(byYear[r.ExitYear], r)
		if byMarketYear[r.MarketID] == nil {
			byMarketYear[r.MarketID] = make(map[domain.Year][]TradeRecord)
		}
		byMarketYear[r.MarketID][r.ExitYear] = append(byMarketYear[r.MarketID][r.ExitYear], r)
	}

	for market, rs := range byMarket {
		views.PerMarketAggregatedYears[market] = toFloatCurve(CumulativeReturns(rs))
	}
	for year, rs := range byYear {
		views.AggregatedMarketsByYear[year] = toFloatCurve(CumulativeReturns(rs))
	}
	for market, years := range byMarketYear {
		curves := make(map[domain.Year][]float64, len(years))
		for year, rs := range years {
			curves[year] = toFloatCurve(CumulativeReturns(rs))
		}
		views.PerMarketAndYear[market] = curves
	}
	return views
}
