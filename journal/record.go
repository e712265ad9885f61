// Package journal implements the append-only trade record log and the
// performance/statistics views derived from it: cumulative returns, equity
// curve fitting, portfolio performance (Sharpe/volatility/drawdown), and
// trade statistics (spec §4.7, component K).
package journal

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/ledger"
)

// TradeRecord is one immutable, closed-trade log line. Journal entries are
// never mutated once appended (spec §3 "Journal": "append-only").
type TradeRecord struct {
	TradeID           uuid.UUID
	AgentID           string
	MarketID          domain.MarketID
	Direction         domain.TradeDirection
	Quantity          domain.Quantity
	EntryPrice        domain.Price
	ExitPrice         domain.Price
	EntryTimestamp    domain.Timestamp
	ExitTimestamp     domain.Timestamp
	RealizedPnL       domain.Reward
	TerminationReason ledger.TerminationReason
	// ExitYear is ExitTimestamp's calendar year, the grouping key the
	// original's equity-curve/PnL reports break down by
	// (original_source/src/equity_curve, src/pnl).
	ExitYear domain.Year
}

func newTradeRecord(t *ledger.Trade) TradeRecord {
	return TradeRecord{
		TradeID:           t.TradeID,
		AgentID:           t.AgentID,
		MarketID:          t.MarketID,
		Direction:         t.Direction,
		Quantity:          t.Quantity,
		EntryPrice:        *t.EntryPrice,
		ExitPrice:         t.ExitPrice,
		EntryTimestamp:    t.EntryTimestamp,
		ExitTimestamp:     t.ExitTimestamp,
		RealizedPnL:       t.RealizedPnL,
		TerminationReason: t.TerminationReason,
		ExitYear:          domain.Year(time.Time(t.ExitTimestamp).Year()),
	}
}

// Journal is the append-only log of every trade that reached Closed.
type Journal struct {
	records []TradeRecord
}

// New builds an empty journal.
func New() *Journal { return &Journal{} }

// Append records a closed trade. Appending a trade not in StateClosed is a
// SystemError: the caller (the environment's step loop) must only append
// once a trade has fully closed.
func (j *Journal) Append(t *ledger.Trade) error {
	if t.State != ledger.StateClosed {
		return cerrors.NewSystemError(cerrors.SystemInvariantViolation, "journal.Append called on a non-closed trade")
	}
	j.records = append(j.records, newTradeRecord(t))
	return nil
}

// Records returns every record, ordered by exit timestamp (stable on ties by
// insertion order).
func (j *Journal) Records() []TradeRecord {
	out := append([]TradeRecord(nil), j.records...)
	sort.SliceStable(out, func(i, k int) bool { return out[i].ExitTimestamp.Before(out[k].ExitTimestamp) })
	return out
}

// ByMarket filters Records to a single market.
func (j *Journal) ByMarket(market domain.MarketID) []TradeRecord {
	digest := market.Digest()
	var out []TradeRecord
	for _, r := range j.Records() {
		if r.MarketID.Digest() == digest {
			out = append(out, r)
		}
	}
	return out
}

// ByAgent filters Records to a single agent.
func (j *Journal) ByAgent(agentID string) []TradeRecord {
	var out []TradeRecord
	for _, r := range j.Records() {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	return out
}
