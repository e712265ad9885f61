package schema

import "github.com/aristath/chapaty/domain"

// MarketEvent is a single row from a source OHLCV-ish stream, enriched with
// every registered indicator column joined at the same timestamp (spec §3).
type MarketEvent struct {
	Timestamp domain.Timestamp
	Open      domain.Price
	High      domain.Price
	Low       domain.Price
	Close     domain.Price
	Volume    *domain.Volume // optional: absent for some futures feeds
	// Indicators holds one value per registered TechnicalIndicator, keyed by
	// its string form (e.g. "sma(20)").
	Indicators map[string]float64
	// Profile carries the TPO/volume-profile derived levels of this event's
	// session, computed from the market's own candles when simdata.Load is
	// given a ProfileConfig and SessionKey for it; nil otherwise.
	Profile *ProfileLevels
}

// ProfileLevels are the TPO/volume-profile derived levels for one session,
// per the glossary's POC/VAH/VAL definitions (supplemented feature, see
// SPEC_FULL.md §6.1). Computed by BuildSessionProfiles in profile.go.
type ProfileLevels struct {
	POC              domain.Price // point of control
	ValueAreaHigh    domain.Price
	ValueAreaLow     domain.Price
	InitialBalanceHi domain.Price
	InitialBalanceLo domain.Price
}

// CalendarImpact is the market-moving significance of an economic event.
type CalendarImpact int

const (
	ImpactLow CalendarImpact = iota
	ImpactMedium
	ImpactHigh
)

// CalendarEvent is a single economic-calendar release.
type CalendarEvent struct {
	Time     domain.Timestamp
	Country  string
	Category string
	Impact   CalendarImpact
	Actual   *float64
	Forecast *float64
	Previous *float64
}
