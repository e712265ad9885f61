package ledger

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// States is the ledger: the single owner of every trade in a run. Every
// other component holds only read-borrows of a Trade for the duration of a
// step (spec §3 "Ownership").
type States struct {
	byMarket map[domain.MarketID][]uuid.UUID
	byAgent  map[string][]uuid.UUID
	byID     map[uuid.UUID]*Trade

	pending  map[uuid.UUID]struct{}
	active   map[uuid.UUID]struct{}
	closed   map[uuid.UUID]struct{}
	canceled map[uuid.UUID]struct{}

	decimalPlaces        map[domain.MarketID]int
	defaultDecimalPlaces int
	bias                 domain.ExecutionBias
}

// NewStates builds an empty ledger. defaultDecimalPlaces rounds any market
// without an explicit entry in perMarketDecimalPlaces.
func NewStates(defaultDecimalPlaces int, perMarketDecimalPlaces map[domain.MarketID]int, bias domain.ExecutionBias) *States {
	dp := make(map[domain.MarketID]int, len(perMarketDecimalPlaces))
	for k, v := range perMarketDecimalPlaces {
		dp[k] = v
	}
	return &States{
		byMarket:             make(map[domain.MarketID][]uuid.UUID),
		byAgent:               make(map[string][]uuid.UUID),
		byID:                  make(map[uuid.UUID]*Trade),
		pending:               make(map[uuid.UUID]struct{}),
		active:                make(map[uuid.UUID]struct{}),
		closed:                make(map[uuid.UUID]struct{}),
		canceled:              make(map[uuid.UUID]struct{}),
		decimalPlaces:         dp,
		defaultDecimalPlaces:  defaultDecimalPlaces,
		bias:                  bias,
	}
}

func (l *States) decimalsFor(market domain.MarketID) int {
	if dp, ok := l.decimalPlaces[market]; ok {
		return dp
	}
	return l.defaultDecimalPlaces
}

func roundToDecimals(price domain.Price, decimals int) domain.Price {
	mul := math.Pow(10, float64(decimals))
	return domain.Price(math.Round(float64(price)*mul) / mul)
}

// OpenCmd requests a new Pending trade, immediately filled (spec §4.4:
// "Pending orders with no price constraint immediately fill in the same
// step").
type OpenCmd struct {
	AgentID    string
	MarketID   domain.MarketID
	Direction  domain.TradeDirection
	Quantity   domain.Quantity
	EntryPrice domain.Price
	StopLoss   *domain.Price
	TakeProfit *domain.Price
}

// Open admits a new Pending trade at step timestamp t0. Because this engine
// only ever has market orders (no price constraint), the trade is eligible
// to Fill within the very same step — spec §4.4 — but remains Pending until
// Fill is called, so a CancelCmd issued later in the same action batch can
// still intercept it.
func (l *States) Open(cmd OpenCmd, t0 domain.Timestamp) (*Trade, error) {
	if cmd.Quantity <= 0 {
		return nil, cerrors.NewAgentError(cerrors.AgentInvalidInput, "quantity must be > 0")
	}
	decimals := l.decimalsFor(cmd.MarketID)
	entry := roundToDecimals(cmd.EntryPrice, decimals)
	var sl, tp *domain.Price
	if cmd.StopLoss != nil {
		v := roundToDecimals(*cmd.StopLoss, decimals)
		sl = &v
	}
	if cmd.TakeProfit != nil {
		v := roundToDecimals(*cmd.TakeProfit, decimals)
		tp = &v
	}

	trade := &Trade{
		TradeID:        uuid.New(),
		AgentID:        cmd.AgentID,
		MarketID:       cmd.MarketID,
		Direction:      cmd.Direction,
		Quantity:       cmd.Quantity,
		ActiveQuantity: cmd.Quantity,
		State:          StatePending,
		EntryPrice:     &entry,
		StopLoss:       sl,
		TakeProfit:     tp,
		CreatedAt:      t0,
		LastMark:       entry,
	}

	l.byID[trade.TradeID] = trade
	l.byMarket[cmd.MarketID] = append(l.byMarket[cmd.MarketID], trade.TradeID)
	l.byAgent[cmd.AgentID] = append(l.byAgent[cmd.AgentID], trade.TradeID)
	l.pending[trade.TradeID] = struct{}{}
	return trade, nil
}

// Fill transitions a still-Pending trade to Active at timestamp t, using the
// entry price captured at Open time (there is no slippage/requote model).
// Called once per step, after cancellations and modifications have been
// applied, for every trade opened this step that was not canceled.
func (l *States) Fill(tradeID uuid.UUID, t domain.Timestamp) error {
	trade, ok := l.byID[tradeID]
	if !ok {
		return cerrors.NewSystemError(cerrors.SystemInvariantViolation, "fill of unknown trade_id")
	}
	if trade.State != StatePending {
		return nil
	}
	trade.State = StateActive
	trade.EntryTimestamp = t
	delete(l.pending, tradeID)
	l.active[tradeID] = struct{}{}
	return nil
}

// PendingTrades returns every trade currently Pending, ordered by CreatedAt;
// the order of trades with equal CreatedAt is not defined.
func (l *States) PendingTrades() []*Trade {
	out := make([]*Trade, 0, len(l.pending))
	for id := range l.pending {
		out = append(out, l.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ModifyCmd updates stop_loss/take_profit/quantity of a Pending or Active
// trade owned by the issuing agent.
type ModifyCmd struct {
	TradeID    uuid.UUID
	AgentID    string
	StopLoss   *domain.Price
	TakeProfit *domain.Price
	Quantity   *domain.Quantity
}

func (l *States) Modify(cmd ModifyCmd) error {
	trade, ok := l.byID[cmd.TradeID]
	if !ok {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "unknown trade_id")
	}
	if trade.AgentID != cmd.AgentID {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "trade not owned by agent")
	}
	if trade.State != StatePending && trade.State != StateActive {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "modify on trade not pending/active")
	}
	decimals := l.decimalsFor(trade.MarketID)
	if cmd.StopLoss != nil {
		v := roundToDecimals(*cmd.StopLoss, decimals)
		trade.StopLoss = &v
	}
	if cmd.TakeProfit != nil {
		v := roundToDecimals(*cmd.TakeProfit, decimals)
		trade.TakeProfit = &v
	}
	if cmd.Quantity != nil {
		if *cmd.Quantity <= 0 {
			return cerrors.NewAgentError(cerrors.AgentInvalidInput, "quantity must be > 0")
		}
		trade.Quantity = *cmd.Quantity
		trade.ActiveQuantity = *cmd.Quantity
	}
	return nil
}

// CancelCmd transitions a Pending trade to Canceled. Canceling an Active
// trade is rejected; use MarketCloseCmd instead (spec §4.4).
type CancelCmd struct {
	TradeID uuid.UUID
	AgentID string
	Reason  string
}

func (l *States) Cancel(cmd CancelCmd, ts domain.Timestamp) error {
	trade, ok := l.byID[cmd.TradeID]
	if !ok {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "unknown trade_id")
	}
	if trade.AgentID != cmd.AgentID {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "trade not owned by agent")
	}
	if trade.State != StatePending {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "cannot cancel a non-pending trade; use MarketCloseCmd for active trades")
	}
	trade.State = StateCanceled
	trade.CanceledAt = ts
	trade.CancelReason = cmd.Reason
	delete(l.pending, trade.TradeID)
	l.canceled[trade.TradeID] = struct{}{}
	return nil
}

// MarketCloseCmd transitions an Active trade to Closed at the current
// market price for min(quantity, active_quantity).
type MarketCloseCmd struct {
	TradeID  uuid.UUID
	AgentID  string
	Quantity domain.Quantity // 0 means "close everything"
}

func (l *States) MarketClose(cmd MarketCloseCmd, price domain.Price, ts domain.Timestamp) error {
	trade, ok := l.byID[cmd.TradeID]
	if !ok {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "unknown trade_id")
	}
	if trade.AgentID != cmd.AgentID {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "trade not owned by agent")
	}
	if trade.State != StateActive {
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "market-close on a non-active trade")
	}
	qty := cmd.Quantity
	if qty <= 0 || qty > trade.ActiveQuantity {
		qty = trade.ActiveQuantity
	}
	l.close(trade, price, ts, TerminationMarketClose, qty)
	return nil
}

func (l *States) close(trade *Trade, exitPrice domain.Price, ts domain.Timestamp, reason TerminationReason, qty domain.Quantity) {
	decimals := l.decimalsFor(trade.MarketID)
	exit := roundToDecimals(exitPrice, decimals)
	pnl := domain.Reward(math.Round(profit(trade.Direction, *trade.EntryPrice, exit) * float64(qty)))

	trade.ExitTimestamp = ts
	trade.ExitPrice = exit
	trade.RealizedPnL = pnl
	trade.TerminationReason = reason
	trade.ActiveQuantity -= qty
	if trade.ActiveQuantity <= 0 {
		trade.State = StateClosed
		delete(l.active, trade.TradeID)
		l.closed[trade.TradeID] = struct{}{}
	}
}

// profit computes the directional PnL per unit of quantity.
func profit(direction domain.TradeDirection, entry, exit domain.Price) float64 {
	switch direction {
	case domain.DirectionLong:
		return float64(exit - entry)
	case domain.DirectionShort:
		return float64(entry - exit)
	default:
		return 0
	}
}

// MarkResult reports one trade's outcome after a single mark-to-market pass.
type MarkResult struct {
	Trade        *Trade
	RealizedPnL  domain.Reward
	JustClosed   bool
}

// MarkToMarket revalues every Active trade on the given market against the
// event's close, triggering stop-loss/take-profit when the intrabar
// low/high range crosses them (spec §4.4). When both would fire in the same
// candle, ties resolve pessimistically per direction (Long: stop-loss
// first, Short: take-profit first) unless overridden by ExecutionBias.
func (l *States) MarkToMarket(market domain.MarketID, event schema.MarketEvent) []MarkResult {
	ids := append([]uuid.UUID(nil), l.byMarket[market]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var results []MarkResult
	for _, id := range ids {
		trade := l.byID[id]
		if trade.State != StateActive {
			continue
		}
		trade.LastMark = event.Close
		unrealized := domain.Reward(math.Round(profit(trade.Direction, *trade.EntryPrice, event.Close) * float64(trade.ActiveQuantity)))
		trade.UnrealizedPnL = unrealized

		if triggerPrice, reason, fired := l.checkStopTarget(trade, event); fired {
			qty := trade.ActiveQuantity
			l.close(trade, triggerPrice, event.Timestamp, reason, qty)
			results = append(results, MarkResult{Trade: trade, RealizedPnL: trade.RealizedPnL, JustClosed: true})
		}
	}
	return results
}

func (l *States) checkStopTarget(trade *Trade, event schema.MarketEvent) (domain.Price, TerminationReason, bool) {
	slHit := trade.StopLoss != nil && crosses(event, *trade.StopLoss)
	tpHit := trade.TakeProfit != nil && crosses(event, *trade.TakeProfit)

	if slHit && tpHit {
		switch l.bias {
		case domain.ExecutionBiasLong:
			return *trade.StopLoss, TerminationStopLoss, true
		case domain.ExecutionBiasShort:
			return *trade.TakeProfit, TerminationTakeProfit, true
		default:
			if trade.Direction == domain.DirectionLong {
				return *trade.StopLoss, TerminationStopLoss, true
			}
			return *trade.TakeProfit, TerminationTakeProfit, true
		}
	}
	if slHit {
		return *trade.StopLoss, TerminationStopLoss, true
	}
	if tpHit {
		return *trade.TakeProfit, TerminationTakeProfit, true
	}
	return 0, 0, false
}

// crosses reports whether the event's intrabar range [low, high] contains
// the trigger price.
func crosses(event schema.MarketEvent, trigger domain.Price) bool {
	return float64(event.Low) <= float64(trigger) && float64(trigger) <= float64(event.High)
}

// ByAgent returns every trade owned by agentID, regardless of state.
func (l *States) ByAgent(agentID string) []*Trade {
	ids := l.byAgent[agentID]
	out := make([]*Trade, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.byID[id])
	}
	return out
}

// Get returns a trade by id.
func (l *States) Get(id uuid.UUID) (*Trade, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// ActiveTrades returns every trade currently Active.
func (l *States) ActiveTrades() []*Trade {
	out := make([]*Trade, 0, len(l.active))
	for id := range l.active {
		out = append(out, l.byID[id])
	}
	return out
}

// ClosedTrades returns every trade that has reached Closed.
func (l *States) ClosedTrades() []*Trade {
	out := make([]*Trade, 0, len(l.closed))
	for id := range l.closed {
		out = append(out, l.byID[id])
	}
	return out
}
