package journal

import "github.com/aristath/chapaty/domain"

// TradeStatistics summarizes win/loss/flat counts and the derived hit and
// payoff ratios for a set of closed trades (spec §4.7 "Trade statistics").
type TradeStatistics struct {
	Wins, Losses, Flats int
	HitRatio            float64 // wins / (wins + losses), 0 if none
	PayoffRatio         float64 // avg win size / avg loss size, 0 if no losses
	TotalPnL            domain.Reward
}

// ComputeTradeStatistics derives TradeStatistics from a slice of records.
func ComputeTradeStatistics(records []TradeRecord) TradeStatistics {
	var stats TradeStatistics
	var winSum, lossSum domain.Reward
	for _, r := range records {
		stats.TotalPnL += r.RealizedPnL
		switch {
		case r.RealizedPnL > 0:
			stats.Wins++
			winSum += r.RealizedPnL
		case r.RealizedPnL < 0:
			stats.Losses++
			lossSum += -r.RealizedPnL
		default:
			stats.Flats++
		}
	}
	if decided := stats.Wins + stats.Losses; decided > 0 {
		stats.HitRatio = float64(stats.Wins) / float64(decided)
	}
	if stats.Losses > 0 && stats.Wins > 0 {
		avgWin := float64(winSum) / float64(stats.Wins)
		avgLoss := float64(lossSum) / float64(stats.Losses)
		if avgLoss != 0 {
			stats.PayoffRatio = avgWin / avgLoss
		}
	}
	return stats
}

// PnLStatement is a simple PnL summary for one grouping (a market, an agent,
// or the whole run) — spec §6.2's supplemented per-market/aggregate PnL
// statements.
type PnLStatement struct {
	TotalPnL   domain.Reward
	TradeCount int
	Wins       int
	Losses     int
}

func pnlStatement(records []TradeRecord) PnLStatement {
	var s PnLStatement
	for _, r := range records {
		s.TotalPnL += r.RealizedPnL
		s.TradeCount++
		switch {
		case r.RealizedPnL > 0:
			s.Wins++
		case r.RealizedPnL < 0:
			s.Losses++
		}
	}
	return s
}

// PnLByMarket groups records by MarketID and computes one PnLStatement per
// group.
func PnLByMarket(records []TradeRecord) map[domain.MarketID]PnLStatement {
	grouped := make(map[domain.MarketID][]TradeRecord)
	for _, r := range records {
		grouped[r.MarketID] = append(grouped[r.MarketID], r)
	}
	out := make(map[domain.MarketID]PnLStatement, len(grouped))
	for market, rs := range grouped {
		out[market] = pnlStatement(rs)
	}
	return out
}

// AggregatePnL computes a single PnLStatement across every record.
func AggregatePnL(records []TradeRecord) PnLStatement {
	return pnlStatement(records)
}

// CumulativeReturns returns the running sum of RealizedPnL, in record order
// (spec §4.7 "Cumulative returns").
func CumulativeReturns(records []TradeRecord) []domain.Reward {
	out := make([]domain.Reward, len(records))
	var running domain.Reward
	for i, r := range records {
		running += r.RealizedPnL
		out[i] = running
	}
	return out
}
