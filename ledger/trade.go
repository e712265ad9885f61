// Package ledger implements the trade lifecycle state machine and the
// per-market trade ledger (spec §3 "Trade", §4.4, §3 "Ledger state").
package ledger

import (
	"github.com/google/uuid"

	"github.com/aristath/chapaty/domain"
)

// TradeState tags a Trade's position in the lifecycle FSM.
type TradeState int

const (
	StatePending TradeState = iota
	StateActive
	StateCanceled
	StateClosed
)

func (s TradeState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateCanceled:
		return "canceled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TerminationReason records why a Closed trade stopped trading.
type TerminationReason int

const (
	TerminationMarketClose TerminationReason = iota
	TerminationStopLoss
	TerminationTakeProfit
)

func (r TerminationReason) String() string {
	switch r {
	case TerminationStopLoss:
		return "stop_loss"
	case TerminationTakeProfit:
		return "take_profit"
	default:
		return "market_close"
	}
}

// Trade is a single order/position, parameterized by lifecycle state. Common
// fields are always populated; state-specific fields are populated only
// once the trade reaches (or passes through) that state, matching spec §3's
// per-state field list.
type Trade struct {
	TradeID   uuid.UUID
	AgentID   string
	MarketID  domain.MarketID
	Direction domain.TradeDirection
	Quantity  domain.Quantity
	State     TradeState

	EntryPrice *domain.Price
	StopLoss   *domain.Price
	TakeProfit *domain.Price

	// Pending
	CreatedAt domain.Timestamp

	// Active
	EntryTimestamp domain.Timestamp
	UnrealizedPnL  domain.Reward
	LastMark       domain.Price

	// Closed
	ExitTimestamp     domain.Timestamp
	ExitPrice         domain.Price
	RealizedPnL       domain.Reward
	TerminationReason TerminationReason

	// Canceled
	CanceledAt     domain.Timestamp
	CancelReason   string

	// ActiveQuantity is the quantity still open; a MarketCloseCmd can close
	// less than the full position (spec §4.4 "min(quantity, active_quantity)").
	ActiveQuantity domain.Quantity
}

// Clone returns a deep-enough copy of the trade for safe concurrent reads;
// Trade itself has no reference fields that alias mutable state, so a value
// copy suffices.
func (t Trade) Clone() Trade { return t }
