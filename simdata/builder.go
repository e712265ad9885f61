package simdata

import (
	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// IndicatorFrame names a single precomputed indicator column ({timestamp,
// price}) to be joined onto its parent OHLCV stream.
type IndicatorFrame struct {
	Name  string // e.g. "sma(20)"
	Frame *schema.Frame
}

// BuildMarketStream joins an OHLCV frame against zero or more precomputed
// indicator frames (by equal timestamp) and an optional per-timestamp
// profile-levels lookup, producing the dense, time-ordered MarketStream
// consumed by the cursor (spec §4.1, §4 component F).
func BuildMarketStream(marketID domain.MarketID, ohlcv *schema.Frame, indicators []IndicatorFrame, profiles map[int64]*schema.ProfileLevels) (*MarketStream, error) {
	if err := ohlcv.SortByTimestamp(); err != nil {
		return nil, err
	}

	indicatorLookups := make(map[string]map[int64]float64, len(indicators))
	for _, ind := range indicators {
		lookup := make(map[int64]float64, ind.Frame.Len())
		tsCol := ind.Frame.Column(schema.ColTimestamp)
		priceCol := ind.Frame.Column(schema.ColPrice)
		for i := 0; i < ind.Frame.Len(); i++ {
			ts, err := schema.UnwrapInt64(tsCol[i])
			if err != nil {
				return nil, err
			}
			price, err := schema.UnwrapFloat64(priceCol[i])
			if err != nil {
				return nil, err
			}
			lookup[ts] = price
		}
		indicatorLookups[ind.Name] = lookup
	}

	n := ohlcv.Len()
	events := make([]schema.MarketEvent, 0, n)
	tsCol := ohlcv.Column(schema.ColTimestamp)
	openCol := ohlcv.Column(schema.ColOpen)
	highCol := ohlcv.Column(schema.ColHigh)
	lowCol := ohlcv.Column(schema.ColLow)
	closeCol := ohlcv.Column(schema.ColClose)
	var volCol []schema.Cell
	if ohlcv.Has(schema.ColVolume) {
		volCol = ohlcv.Column(schema.ColVolume)
	}

	for i := 0; i < n; i++ {
		ts, err := schema.UnwrapInt64(tsCol[i])
		if err != nil {
			return nil, err
		}
		open, err := schema.UnwrapFloat64(openCol[i])
		if err != nil {
			return nil, err
		}
		high, err := schema.UnwrapFloat64(highCol[i])
		if err != nil {
			return nil, err
		}
		low, err := schema.UnwrapFloat64(lowCol[i])
		if err != nil {
			return nil, err
		}
		closeV, err := schema.UnwrapFloat64(closeCol[i])
		if err != nil {
			return nil, err
		}

		event := schema.MarketEvent{
			Timestamp:  domain.TimestampFromUnixMilli(ts),
			Open:       domain.Price(open),
			High:       domain.Price(high),
			Low:        domain.Price(low),
			Close:      domain.Price(closeV),
			Indicators: make(map[string]float64, len(indicatorLookups)),
		}
		if volCol != nil && !volCol[i].IsNull() {
			v, err := schema.UnwrapFloat64(volCol[i])
			if err != nil {
				return nil, err
			}
			vol := domain.Volume(v)
			event.Volume = &vol
		}
		for name, lookup := range indicatorLookups {
			if v, ok := lookup[ts]; ok {
				event.Indicators[name] = v
			}
		}
		if profiles != nil {
			if p, ok := profiles[ts]; ok {
				event.Profile = p
			}
		}
		events = append(events, event)
	}

	return &MarketStream{MarketID: marketID, Events: events}, nil
}

// Build assembles the final SimulationData from per-market streams and
// per-calendar streams, applying FilterConfig, computing GlobalOpenStart,
// and checking the causality invariant: no market event may precede
// GlobalOpenStart.
func Build(marketStreams map[domain.MarketID]*MarketStream, calendarStreams map[domain.EconomicCalendarID]*CalendarStream, cfg FilterConfig, configHash uint64) (*SimulationData, error) {
	globalOpenStart := ComputeGlobalOpenStart(marketStreams)

	var flatCalendar []schema.CalendarEvent
	for _, cs := range calendarStreams {
		flatCalendar = append(flatCalendar, cs.Events...)
	}

	marketIDs := make([]domain.MarketID, 0, len(marketStreams))
	filtered := make(map[domain.MarketID]*MarketStream, len(marketStreams))
	for id, stream := range marketStreams {
		sortMarketEvents(stream.Events)
		for _, e := range stream.Events {
			if e.Timestamp.Before(globalOpenStart) {
				return nil, cerrors.NewDataError(cerrors.DataCausalityViolation,
					"market event precedes global_open_start")
			}
		}
		filteredEvents := ApplyFilters(stream.Events, flatCalendar, cfg)
		filtered[id] = &MarketStream{MarketID: id, Events: filteredEvents}
		marketIDs = append(marketIDs, id)
	}

	return &SimulationData{
		MarketIDs:       marketIDs,
		MarketStreams:   filtered,
		CalendarStreams: calendarStreams,
		GlobalOpenStart: globalOpenStart,
		ConfigHash:      configHash,
	}, nil
}
