package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/agent"
	"github.com/aristath/chapaty/cursor"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/ledger"
	"github.com/aristath/chapaty/schema"
	"github.com/aristath/chapaty/simdata"
)

func testMarketID(symbol string) domain.MarketID {
	return domain.NewOhlcvID("sim", domain.NewSpotSymbol(domain.SpotPair{Base: symbol, Quote: "USD"}), "", domain.Period{Unit: domain.PeriodMinute, Length: 1}, nil)
}

func ts(offsetSeconds int) domain.Timestamp {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Timestamp(base.Add(time.Duration(offsetSeconds) * time.Second))
}

func buildTestData(t *testing.T, marketID domain.MarketID, events []schema.MarketEvent) *simdata.SimulationData {
	t.Helper()
	streams := map[domain.MarketID]*simdata.MarketStream{marketID: {MarketID: marketID, Events: events}}
	data, err := simdata.Build(streams, nil, simdata.FilterConfig{}, 1)
	require.NoError(t, err)
	return data
}

func TestEnvironment_CrossoverSmoke(t *testing.T) {
	marketID := testMarketID("BTC")
	events := []schema.MarketEvent{
		{Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(60), Open: 100, High: 105, Low: 100, Close: 104},
		{Timestamp: ts(120), Open: 104, High: 106, Low: 103, Close: 105},
	}
	data := buildTestData(t, marketID, events)

	e := New(Config{EpisodeLength: cursor.InfiniteEpisode(), DefaultDecimalPlaces: 2}, data)
	obs, err := e.Reset()
	require.NoError(t, err)
	assert.False(t, obs.Outcome.Done)

	qty := domain.Quantity(1)
	openCmd := agent.Command{Open: &ledger.OpenCmd{
		MarketID:   marketID,
		Direction:  domain.DirectionLong,
		Quantity:   qty,
		EntryPrice: 100,
	}}
	obs, err = e.Step(map[string][]agent.Command{"agent-1": {openCmd}})
	require.NoError(t, err)
	assert.False(t, obs.Outcome.Done)
	assert.Len(t, e.Snapshot("agent-1").OwnTrades, 1)
	assert.Equal(t, ledger.StateActive, e.Snapshot("agent-1").OwnTrades[0].State)

	obs, err = e.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Reward(0), obs.Rewards["agent-1"])

	obs, err = e.Step(nil)
	require.NoError(t, err)
	assert.True(t, obs.Outcome.Done)
}

func TestEnvironment_StopLossFires(t *testing.T) {
	marketID := testMarketID("BTC")
	events := []schema.MarketEvent{
		{Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(60), Open: 100, High: 100, Low: 90, Close: 95},
	}
	data := buildTestData(t, marketID, events)
	e := New(Config{EpisodeLength: cursor.InfiniteEpisode(), DefaultDecimalPlaces: 2}, data)
	_, err := e.Reset()
	require.NoError(t, err)

	sl := domain.Price(95)
	_, err = e.Step(map[string][]agent.Command{"agent-1": {{Open: &ledger.OpenCmd{
		MarketID: marketID, Direction: domain.DirectionLong, Quantity: 1, EntryPrice: 100, StopLoss: &sl,
	}}}})
	require.NoError(t, err)

	obs, err := e.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Reward(-5), obs.Rewards["agent-1"])
	trades := e.Snapshot("agent-1").OwnTrades
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.StateClosed, trades[0].State)
	assert.Equal(t, ledger.TerminationStopLoss, trades[0].TerminationReason)
}

func TestEnvironment_InvalidActionPenalized(t *testing.T) {
	marketID := testMarketID("BTC")
	events := []schema.MarketEvent{
		{Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(60), Open: 100, High: 101, Low: 99, Close: 100},
	}
	data := buildTestData(t, marketID, events)
	e := New(Config{EpisodeLength: cursor.InfiniteEpisode(), InvalidActionPenalty: -10}, data)
	_, err := e.Reset()
	require.NoError(t, err)

	obs, err := e.Step(map[string][]agent.Command{"agent-1": {{Open: &ledger.OpenCmd{
		MarketID: marketID, Direction: domain.DirectionLong, Quantity: 0, EntryPrice: 100,
	}}}})
	require.NoError(t, err)
	assert.Equal(t, domain.Reward(-10), obs.Rewards["agent-1"])
}

// TestEnvironment_ModifyAppliesBeforeMarketCloseRegardlessOfSubmissionOrder
// covers spec §4.6 step 2's category ordering: an agent submitting
// [MarketClose(tradeX), Modify(tradeX)] in that order must still have the
// modify take effect, because Step applies modifications before closes
// regardless of caller-supplied order across categories.
func TestEnvironment_ModifyAppliesBeforeMarketCloseRegardlessOfSubmissionOrder(t *testing.T) {
	marketID := testMarketID("BTC")
	events := []schema.MarketEvent{
		{Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(60), Open: 100, High: 101, Low: 99, Close: 100},
	}
	data := buildTestData(t, marketID, events)
	e := New(Config{EpisodeLength: cursor.InfiniteEpisode(), DefaultDecimalPlaces: 2}, data)
	_, err := e.Reset()
	require.NoError(t, err)

	_, err = e.Step(map[string][]agent.Command{"agent-1": {{Open: &ledger.OpenCmd{
		MarketID: marketID, Direction: domain.DirectionLong, Quantity: 1, EntryPrice: 100,
	}}}})
	require.NoError(t, err)

	tradeID := e.Snapshot("agent-1").OwnTrades[0].TradeID
	newQty := domain.Quantity(2)

	obs, err := e.Step(map[string][]agent.Command{"agent-1": {
		{MarketClose: &ledger.MarketCloseCmd{TradeID: tradeID}},
		{Modify: &ledger.ModifyCmd{TradeID: tradeID, Quantity: &newQty}},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.Reward(0), obs.Rewards["agent-1"], "modify must have applied cleanly, not been rejected as invalid")

	trades := e.Snapshot("agent-1").OwnTrades
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.StateClosed, trades[0].State, "the close, applied after the modify, must still take effect")
}

// TestEnvironment_FiniteEpisodeTruncatesMidStream covers spec §8 scenario
// 4: a finite episode ends mid-stream (more data exists past the episode
// boundary), so Step must report EpisodeDone without Done, and a following
// Reset must advance to the next episode rather than restarting the first.
func TestEnvironment_FiniteEpisodeTruncatesMidStream(t *testing.T) {
	marketID := testMarketID("BTC")
	events := []schema.MarketEvent{
		{Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(60), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(120), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: ts(180), Open: 100, High: 101, Low: 99, Close: 100},
	}
	data := buildTestData(t, marketID, events)

	e := New(Config{EpisodeLength: cursor.FiniteEpisode(90 * time.Second), DefaultDecimalPlaces: 2}, data)
	obs, err := e.Reset()
	require.NoError(t, err)
	assert.False(t, obs.Outcome.Done)

	obs, err = e.Step(nil) // -> ts(0), inside [0, 90)
	require.NoError(t, err)
	assert.False(t, obs.Outcome.EpisodeDone)
	assert.False(t, obs.Outcome.Done)

	obs, err = e.Step(nil) // -> ts(60), still inside [0, 90)
	require.NoError(t, err)
	assert.False(t, obs.Outcome.EpisodeDone)
	assert.False(t, obs.Outcome.Done)

	obs, err = e.Step(nil) // -> ts(120), outside [0, 90): episode truncates here
	require.NoError(t, err)
	assert.True(t, obs.Outcome.EpisodeDone, "episode must end once the tick falls outside its finite window")
	assert.False(t, obs.Outcome.Done, "more ticks remain past the episode boundary, for the next episode")

	obs, err = e.Reset()
	require.NoError(t, err)
	assert.False(t, obs.Outcome.Done)

	obs, err = e.Step(nil) // the second episode's cursor must resume at ts(120), the first unconsumed event
	require.NoError(t, err)
	assert.Equal(t, ts(120), obs.View.Timestamp)
}

func TestEnvironment_StepBeforeResetIsEnvError(t *testing.T) {
	marketID := testMarketID("BTC")
	data := buildTestData(t, marketID, []schema.MarketEvent{{Timestamp: ts(0), Open: 1, High: 1, Low: 1, Close: 1}})
	e := New(Config{}, data)
	_, err := e.Step(nil)
	assert.Error(t, err)
}
