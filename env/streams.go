package env

import (
	"sort"

	"github.com/aristath/chapaty/cursor"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
	"github.com/aristath/chapaty/simdata"
)

// marketCursorStream adapts a simdata.MarketStream's dense event vector into
// the cursor package's pull-based Stream interface.
type marketCursorStream struct {
	id     domain.MarketID
	events []schema.MarketEvent
	pos    int
}

func newMarketCursorStream(id domain.MarketID, events []schema.MarketEvent) *marketCursorStream {
	return &marketCursorStream{id: id, events: events}
}

func (s *marketCursorStream) StreamID() domain.StreamID { return s.id }

func (s *marketCursorStream) PeekTime() (domain.Timestamp, bool) {
	if s.pos >= len(s.events) {
		return domain.Timestamp{}, false
	}
	return s.events[s.pos].Timestamp, true
}

func (s *marketCursorStream) Pop() any {
	e := s.events[s.pos]
	s.pos++
	return e
}

func (s *marketCursorStream) SeekTo(ts domain.Timestamp) {
	for s.pos < len(s.events) && s.events[s.pos].Timestamp.Before(ts) {
		s.pos++
	}
}

// calendarCursorStream adapts a simdata.CalendarStream the same way.
type calendarCursorStream struct {
	id     domain.EconomicCalendarID
	events []schema.CalendarEvent
	pos    int
}

func newCalendarCursorStream(id domain.EconomicCalendarID, events []schema.CalendarEvent) *calendarCursorStream {
	return &calendarCursorStream{id: id, events: events}
}

func (s *calendarCursorStream) StreamID() domain.StreamID { return s.id }

func (s *calendarCursorStream) PeekTime() (domain.Timestamp, bool) {
	if s.pos >= len(s.events) {
		return domain.Timestamp{}, false
	}
	return s.events[s.pos].Time, true
}

func (s *calendarCursorStream) Pop() any {
	e := s.events[s.pos]
	s.pos++
	return e
}

func (s *calendarCursorStream) SeekTo(ts domain.Timestamp) {
	for s.pos < len(s.events) && s.events[s.pos].Time.Before(ts) {
		s.pos++
	}
}

// buildStreams flattens a SimulationData's per-market and per-calendar event
// vectors into the cursor package's generic Stream slice, in a stable order
// (markets by MarketID string, then calendars by id string) so two runs over
// identical data build byte-identical cursor groups.
func buildStreams(data *simdata.SimulationData) []cursor.Stream {
	streams := make([]cursor.Stream, 0, len(data.MarketStreams)+len(data.CalendarStreams))
	marketIDs := append([]domain.MarketID(nil), data.MarketIDs...)
	sort.Slice(marketIDs, func(i, j int) bool { return marketIDs[i].String() < marketIDs[j].String() })
	for _, id := range marketIDs {
		ms := data.MarketStreams[id]
		streams = append(streams, newMarketCursorStream(id, ms.Events))
	}
	calendarIDs := make([]domain.EconomicCalendarID, 0, len(data.CalendarStreams))
	for id := range data.CalendarStreams {
		calendarIDs = append(calendarIDs, id)
	}
	sort.Slice(calendarIDs, func(i, j int) bool { return calendarIDs[i].String() < calendarIDs[j].String() })
	for _, id := range calendarIDs {
		streams = append(streams, newCalendarCursorStream(id, data.CalendarStreams[id].Events))
	}
	return streams
}
