package env

import (
	"sort"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/cursor"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/ledger"
	"github.com/aristath/chapaty/marketview"
	"github.com/aristath/chapaty/schema"
	"github.com/aristath/chapaty/simdata"
)

// Phase is the environment's coarse FSM state (spec §4.6 "Ready → Running →
// {EpisodeDone | Done}").
type Phase int

const (
	PhaseReady Phase = iota
	PhaseRunning
	PhaseEpisodeDone
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseRunning:
		return "running"
	case PhaseEpisodeDone:
		return "episode_done"
	default:
		return "done"
	}
}

// StepOutcome reports what happened to the episode/run FSM as a result of a
// single Step call.
type StepOutcome struct {
	EpisodeDone bool
	Done        bool // every episode and every stream exhausted
}

// Observation is what a caller receives after Reset or Step: the market view
// every agent acts against next, plus this step's per-agent reward delta and
// the resulting FSM outcome.
type Observation struct {
	View    marketview.MarketView
	Rewards map[string]domain.Reward
	Outcome StepOutcome
}

// Environment is the deterministic, single-threaded simulation loop: one
// ledger, one cursor group, one rolling market view, replayed episode by
// episode over a fixed SimulationData (spec §4.6, component J).
type Environment struct {
	cfg    Config
	data   *simdata.SimulationData
	ledger *ledger.States
	group  *cursor.Group
	view   marketview.MarketView

	episode      cursor.Episode
	phase        Phase
	cumulative   map[string]domain.Reward
}

// New builds an Environment over pre-assembled SimulationData. Call Reset
// before the first Step.
func New(cfg Config, data *simdata.SimulationData) *Environment {
	return &Environment{
		cfg:   cfg,
		data:  data,
		phase: PhaseReady,
	}
}

// Reset (re)starts the environment at the first (or next) episode boundary,
// rebuilding the ledger and rewinding the cursor group to the episode start.
// Returns the initial Observation, with an empty Rewards map (spec §4.6:
// reset never accrues reward).
func (e *Environment) Reset() (Observation, error) {
	if e.phase == PhaseReady {
		e.episode = cursor.Episode{Index: 0, Start: e.data.GlobalOpenStart, Length: e.cfg.EpisodeLength}
	} else {
		e.episode = e.episode.Next()
	}

	e.ledger = ledger.NewStates(e.cfg.DefaultDecimalPlaces, e.cfg.PerMarketDecimalPlaces, e.cfg.ExecutionBias)
	if e.group == nil {
		e.group = cursor.NewGroup(buildStreams(e.data))
	}
	e.group.ResetTo(e.episode.Start)
	e.view = marketview.NewMarketView(e.episode.Start)
	e.cumulative = make(map[string]domain.Reward)

	if e.group.Exhausted() {
		e.phase = PhaseDone
		return Observation{View: e.view, Rewards: map[string]domain.Reward{}, Outcome: StepOutcome{EpisodeDone: true, Done: true}}, nil
	}
	e.phase = PhaseRunning
	return Observation{View: e.view, Rewards: map[string]domain.Reward{}}, nil
}

// Step applies every agent's submitted commands, advances the cursor by
// exactly one tick, marks every active trade to market against the new
// prices, and returns the resulting Observation. When the next tick lies
// outside the current finite episode, Step ends the episode instead and
// leaves that tick unconsumed for the next Reset. Calling Step while the
// environment is not PhaseRunning is an EnvError (spec §7: env errors are
// fatal during step).
//
// Per-step algorithm (spec §4.6):
//  1. validate each agent's submitted commands
//  2. apply admissions (Open), cancellations, modifications, then Fill
//     every trade opened this step that was not canceled
//  3. apply market-close commands against the pre-advance view
//  4. advance the cursor by one tick, or end the episode if that tick
//     falls outside it
//  5. update the rolling market view from the new tick's events
//  6. mark every active trade to market, triggering stop-loss/take-profit
//  7. accumulate realized PnL (and any invalid-action penalty) into reward
//  8. determine the resulting StepOutcome
func (e *Environment) Step(actions map[string][]agent.Command) (Observation, error) {
	if e.phase != PhaseRunning {
		return Observation{}, cerrors.NewEnvError(cerrors.EnvInvalidState, "Step called while environment is not running")
	}

	rewards := make(map[string]domain.Reward)
	ts := e.view.Timestamp

	agentIDs := make([]string, 0, len(actions))
	for id := range actions {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)

	// Apply commands in category order — admissions, cancellations, and
	// modifications before market closes — so a same-step
	// MarketClose(tradeX)+Modify(tradeX) never races the close ahead of
	// the modify. Within a category, caller order is preserved (agents in
	// sorted-ID order, each agent's own commands in submission order).
	type categorized struct {
		agentID string
		cmd     agent.Command
	}
	var opens, cancels, modifies, closes []categorized
	for _, agentID := range agentIDs {
		for _, cmd := range actions[agentID] {
			entry := categorized{agentID: agentID, cmd: cmd}
			switch {
			case cmd.Open != nil:
				opens = append(opens, entry)
			case cmd.Cancel != nil:
				cancels = append(cancels, entry)
			case cmd.Modify != nil:
				modifies = append(modifies, entry)
			case cmd.MarketClose != nil:
				closes = append(closes, entry)
			default:
				closes = append(closes, entry) // invalid: surfaced by applyCommand's default case
			}
		}
	}

	var opened []ledger.Trade
	apply := func(entries []categorized) error {
		for _, entry := range entries {
			if err := e.applyCommand(entry.agentID, entry.cmd, ts, &opened); err != nil {
				if !agent.RecoverableError(err) {
					return err
				}
				rewards[entry.agentID] += domain.Reward(e.cfg.InvalidActionPenalty)
			}
		}
		return nil
	}
	for _, bucket := range [][]categorized{opens, cancels, modifies} {
		if err := apply(bucket); err != nil {
			return Observation{}, err
		}
	}
	for _, t := range opened {
		if err := e.ledger.Fill(t.TradeID, ts); err != nil {
			return Observation{}, err
		}
	}
	if err := apply(closes); err != nil {
		return Observation{}, err
	}

	if next, ok := e.group.PeekTime(); ok && !e.episode.Contains(next) {
		for id, r := range rewards {
			e.cumulative[id] += r
		}
		e.phase = PhaseEpisodeDone
		return e.finishEpisode(rewards)
	}

	tick, hasTick := e.group.AdvanceTick()
	if !hasTick {
		e.phase = PhaseEpisodeDone
		return e.finishEpisode(rewards)
	}

	var calendarEvents []schema.CalendarEvent
	for _, te := range tick.Events {
		switch payload := te.Payload.(type) {
		case schema.MarketEvent:
			marketID, ok := te.StreamID.(domain.MarketID)
			if !ok {
				return Observation{}, cerrors.NewSystemError(cerrors.SystemInvariantViolation, "market event tagged with non-market stream id")
			}
			e.view = e.view.WithMarket(marketID, payload)
			for _, mr := range e.ledger.MarkToMarket(marketID, payload) {
				rewards[mr.Trade.AgentID] += mr.RealizedPnL
			}
		case schema.CalendarEvent:
			calendarEvents = append(calendarEvents, payload)
		default:
			return Observation{}, cerrors.NewSystemError(cerrors.SystemInvariantViolation, "unrecognized tick payload")
		}
	}
	e.view.Timestamp = tick.Timestamp
	e.view.Calendar = calendarEvents

	for id, r := range rewards {
		e.cumulative[id] += r
	}

	if e.group.Exhausted() {
		e.phase = PhaseDone
		return Observation{View: e.view, Rewards: rewards, Outcome: StepOutcome{EpisodeDone: true, Done: true}}, nil
	}
	return Observation{View: e.view, Rewards: rewards}, nil
}

func (e *Environment) finishEpisode(rewards map[string]domain.Reward) (Observation, error) {
	done := !e.cfg.EpisodeLength.Finite || e.group.Exhausted()
	return Observation{View: e.view, Rewards: rewards, Outcome: StepOutcome{EpisodeDone: true, Done: done}}, nil
}

// applyCommand dispatches a single sealed Command to the ledger, appending
// to opened whenever an Open succeeds (so the caller can Fill it once every
// command in the batch has been applied).
func (e *Environment) applyCommand(agentID string, cmd agent.Command, ts domain.Timestamp, opened *[]ledger.Trade) error {
	switch {
	case cmd.Open != nil:
		o := *cmd.Open
		o.AgentID = agentID
		trade, err := e.ledger.Open(o, ts)
		if err != nil {
			return err
		}
		*opened = append(*opened, *trade)
		return nil
	case cmd.Cancel != nil:
		c := *cmd.Cancel
		c.AgentID = agentID
		return e.ledger.Cancel(c, ts)
	case cmd.Modify != nil:
		m := *cmd.Modify
		m.AgentID = agentID
		return e.ledger.Modify(m)
	case cmd.MarketClose != nil:
		mc := *cmd.MarketClose
		mc.AgentID = agentID
		trade, ok := e.ledger.Get(mc.TradeID)
		if !ok {
			return cerrors.NewAgentError(cerrors.AgentInvalidInput, "unknown trade_id")
		}
		price, ok := e.view.Market(trade.MarketID)
		if !ok {
			return cerrors.NewAgentError(cerrors.AgentMissingResource, "no market price available to close against")
		}
		return e.ledger.MarketClose(mc, price.Close, ts)
	default:
		return cerrors.NewAgentError(cerrors.AgentInvalidInput, "command has no populated variant")
	}
}

// Phase reports the environment's current FSM state.
func (e *Environment) Phase() Phase { return e.phase }

// CumulativeReward returns the running total reward per agent across every
// step since the last Reset.
func (e *Environment) CumulativeReward() map[string]domain.Reward {
	out := make(map[string]domain.Reward, len(e.cumulative))
	for k, v := range e.cumulative {
		out[k] = v
	}
	return out
}

// Snapshot returns agentID's own-trade snapshot for the next Act call.
func (e *Environment) Snapshot(agentID string) agent.Snapshot {
	return agent.Snapshot{OwnTrades: e.ledger.ByAgent(agentID)}
}
