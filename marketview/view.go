// Package marketview defines the per-step snapshot exposed to agents (spec
// §4, component H).
package marketview

import (
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// MarketView is the read-only, per-tick snapshot of every market and
// calendar stream, as observed by an agent at a single timestamp.
type MarketView struct {
	Timestamp domain.Timestamp
	// Markets holds the latest event per MarketID observed at or before
	// Timestamp (a market not present in this tick's event bag keeps its
	// previous value).
	Markets map[domain.MarketID]schema.MarketEvent
	// Calendar holds every calendar event observed exactly at Timestamp.
	Calendar []schema.CalendarEvent
}

// NewMarketView builds an empty view seeded at ts.
func NewMarketView(ts domain.Timestamp) MarketView {
	return MarketView{Timestamp: ts, Markets: make(map[domain.MarketID]schema.MarketEvent)}
}

// WithMarket returns a copy of v with market overwritten for id.
func (v MarketView) WithMarket(id domain.MarketID, event schema.MarketEvent) MarketView {
	next := make(map[domain.MarketID]schema.MarketEvent, len(v.Markets))
	for k, val := range v.Markets {
		next[k] = val
	}
	next[id] = event
	v.Markets = next
	return v
}

// Market returns the latest known event for a market, and whether one has
// been observed yet.
func (v MarketView) Market(id domain.MarketID) (schema.MarketEvent, bool) {
	e, ok := v.Markets[id]
	return e, ok
}
