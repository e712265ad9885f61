package cursor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/domain"
)

// fakeStream is a minimal in-memory Stream over a fixed, pre-sorted event
// list, for exercising Group's merge/tie-break logic in isolation.
type fakeStream struct {
	id     domain.StreamID
	events []fakeEvent
	pos    int
}

type fakeEvent struct {
	ts      domain.Timestamp
	payload any
}

func (s *fakeStream) StreamID() domain.StreamID { return s.id }

func (s *fakeStream) PeekTime() (domain.Timestamp, bool) {
	if s.pos >= len(s.events) {
		return domain.Timestamp{}, false
	}
	return s.events[s.pos].ts, true
}

func (s *fakeStream) Pop() any {
	e := s.events[s.pos]
	s.pos++
	return e.payload
}

func (s *fakeStream) SeekTo(ts domain.Timestamp) {
	for s.pos < len(s.events) && s.events[s.pos].ts.Before(ts) {
		s.pos++
	}
}

func ts(offsetSeconds int) domain.Timestamp {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Timestamp(base.Add(time.Duration(offsetSeconds) * time.Second))
}

func calendarStreamID(name string) domain.StreamID {
	return domain.NewEconomicCalendarID("test", name, nil, nil)
}

func marketStreamID(name string) domain.StreamID {
	return domain.NewOhlcvID("sim", domain.NewSpotSymbol(domain.SpotPair{Base: name, Quote: "USD"}), "", domain.Period{Unit: domain.PeriodMinute, Length: 1}, nil)
}

// TestGroup_AdvanceTick_TieBreaksCalendarBeforeMarket covers spec §8
// scenario 5: at equal timestamps, a calendar stream's event must appear
// before a market stream's event in the same Tick, per domain.PriorityOf.
func TestGroup_AdvanceTick_TieBreaksCalendarBeforeMarket(t *testing.T) {
	market := &fakeStream{id: marketStreamID("BTC"), events: []fakeEvent{{ts: ts(0), payload: "market-event"}}}
	calendar := &fakeStream{id: calendarStreamID("US"), events: []fakeEvent{{ts: ts(0), payload: "calendar-event"}}}

	// Deliberately register the market stream first, so a tie-break bug that
	// just preserved registration order would put the market event first.
	g := NewGroup([]Stream{market, calendar})

	tick, ok := g.AdvanceTick()
	require.True(t, ok)
	require.Len(t, tick.Events, 2)
	assert.Equal(t, "calendar-event", tick.Events[0].Payload)
	assert.Equal(t, "market-event", tick.Events[1].Payload)
	assert.True(t, g.Exhausted())
}

func TestGroup_AdvanceTick_MergesDistinctTimestampsInOrder(t *testing.T) {
	a := &fakeStream{id: marketStreamID("BTC"), events: []fakeEvent{{ts: ts(0), payload: "a0"}, {ts: ts(20), payload: "a20"}}}
	b := &fakeStream{id: marketStreamID("ETH"), events: []fakeEvent{{ts: ts(10), payload: "b10"}}}

	g := NewGroup([]Stream{a, b})

	tick, ok := g.AdvanceTick()
	require.True(t, ok)
	assert.Equal(t, ts(0), tick.Timestamp)
	assert.Equal(t, "a0", tick.Events[0].Payload)

	tick, ok = g.AdvanceTick()
	require.True(t, ok)
	assert.Equal(t, ts(10), tick.Timestamp)
	assert.Equal(t, "b10", tick.Events[0].Payload)

	tick, ok = g.AdvanceTick()
	require.True(t, ok)
	assert.Equal(t, ts(20), tick.Timestamp)
	assert.Equal(t, "a20", tick.Events[0].Payload)

	_, ok = g.AdvanceTick()
	assert.False(t, ok)
	assert.True(t, g.Exhausted())
}

func TestGroup_ResetTo_ReseeksEveryStream(t *testing.T) {
	a := &fakeStream{id: marketStreamID("BTC"), events: []fakeEvent{{ts: ts(0), payload: "a0"}, {ts: ts(10), payload: "a10"}}}
	g := NewGroup([]Stream{a})

	g.ResetTo(ts(10))
	peek, ok := g.PeekTime()
	require.True(t, ok)
	assert.Equal(t, ts(10), peek)

	tick, ok := g.AdvanceTick()
	require.True(t, ok)
	assert.Equal(t, "a10", tick.Events[0].Payload)
	assert.True(t, g.Exhausted())
}
