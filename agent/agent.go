// Package agent defines the contract every trading strategy implements. The
// spec treats agent bodies as black-box consumers of this contract (spec §1
// "Out of scope"); this package only defines the seams, not any strategy.
package agent

import (
	"errors"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/ledger"
	"github.com/aristath/chapaty/marketview"
)

// Command is the sealed set of actions an agent may submit in one step.
// Exactly one of the embedded pointers is non-nil.
type Command struct {
	Open        *ledger.OpenCmd
	Modify      *ledger.ModifyCmd
	Cancel      *ledger.CancelCmd
	MarketClose *ledger.MarketCloseCmd
}

// Snapshot is the read-only ledger view an agent receives each step — every
// trade it owns, across every state, per spec §3 "Ownership" (agents never
// hold a mutable reference into the ledger).
type Snapshot struct {
	OwnTrades []*ledger.Trade
}

// Agent is the minimal capability set every strategy implements: act on an
// observation, report an identifier used for parallel-run bookkeeping, and
// reset internal state between episodes. Kept deliberately small so a
// single erased/interface value suffices to store heterogeneous agents in
// the grid evaluator's worker pool (spec §9 "Trait-objects").
type Agent interface {
	// Identifier returns a stable, process-independent id for this agent
	// instance (used as AgentUID in leaderboard rows).
	Identifier() string
	// Act is called once per tick with the latest market view and the
	// agent's own trade snapshot; it returns the commands to submit this
	// step.
	Act(view marketview.MarketView, own Snapshot) ([]Command, error)
	// Reset clears any internal state carried between episodes.
	Reset()
	// Parameterization returns a JSON-serializable description of this
	// agent's configuration, used verbatim as the leaderboard's
	// agent_parameterization column.
	Parameterization() string
}

// NoOpAgent never submits any commands. Useful as a baseline in tests and as
// the default "no_op" behavior spec §7 mandates when an Agent error occurs
// mid-step.
type NoOpAgent struct {
	ID string
}

func (a NoOpAgent) Identifier() string { return a.ID }
func (a NoOpAgent) Reset()             {}
func (a NoOpAgent) Parameterization() string { return "{}" }
func (a NoOpAgent) Act(marketview.MarketView, Snapshot) ([]Command, error) {
	return nil, nil
}

var _ Agent = NoOpAgent{}

// RecoverableError reports whether err should be treated as a recoverable
// Agent-layer failure (step continues with a no-op) rather than a fatal one.
func RecoverableError(err error) bool {
	if err == nil {
		return true
	}
	var agentErr *cerrors.AgentError
	return errors.As(err, &agentErr)
}
