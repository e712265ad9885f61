package schema

import (
	"math"
	"sort"

	"github.com/aristath/chapaty/domain"
)

// ProfileConfig tunes TPO/volume-profile construction (spec §6.1),
// ported from original_source's market-profile trio: tick-stepping through
// each candle's [low, high] range builds the histogram
// (src/price_histogram/tpo.rs), POC-outward expansion builds the value
// area (src/math/volume_area.rs), and the leading-candle high/low builds
// the initial balance (src/trading_indicator/initial_balance.rs). Unlike
// the original's by-two-levels expansion, value area here grows one price
// level at a time (whichever side carries more volume) — a simpler,
// still-standard variant of the same VTAD definition.
type ProfileConfig struct {
	TickSize              float64
	ValueAreaPct          float64 // e.g. 0.7 for the conventional 70% value area
	InitialBalanceCandles int     // leading candles of the session, e.g. 1 for hourly bars
}

func (c ProfileConfig) withDefaults() ProfileConfig {
	if c.TickSize <= 0 {
		c.TickSize = 0.01
	}
	if c.ValueAreaPct <= 0 {
		c.ValueAreaPct = 0.7
	}
	if c.InitialBalanceCandles <= 0 {
		c.InitialBalanceCandles = 1
	}
	return c
}

// BuildSessionProfiles partitions events into sessions by sessionKey
// (events sharing a key belong to the same session) and computes one
// ProfileLevels per session, returned keyed by every member event's own
// millisecond timestamp so a MarketEvent can look up its session's levels
// by its own Timestamp.
func BuildSessionProfiles(events []MarketEvent, cfg ProfileConfig, sessionKey func(domain.Timestamp) int64) map[int64]*ProfileLevels {
	cfg = cfg.withDefaults()

	order := make([]int64, 0)
	sessions := make(map[int64][]MarketEvent)
	for _, e := range events {
		k := sessionKey(e.Timestamp)
		if _, ok := sessions[k]; !ok {
			order = append(order, k)
		}
		sessions[k] = append(sessions[k], e)
	}

	out := make(map[int64]*ProfileLevels, len(events))
	for _, k := range order {
		session := sessions[k]
		sort.Slice(session, func(i, j int) bool { return session[i].Timestamp.Before(session[j].Timestamp) })
		levels := buildProfile(session, cfg)
		for _, e := range session {
			out[e.Timestamp.UnixMilli()] = levels
		}
	}
	return out
}

func quantizeToTick(price, tick float64) int64 {
	return int64(math.Round(price / tick))
}

// buildProfile computes one session's POC/value-area/initial-balance
// levels from its candles' [low, high] ranges.
func buildProfile(session []MarketEvent, cfg ProfileConfig) *ProfileLevels {
	counts := make(map[int64]float64)
	for _, e := range session {
		low, high := float64(e.Low), float64(e.High)
		for x := low; x <= high+cfg.TickSize/2; x += cfg.TickSize {
			counts[quantizeToTick(x, cfg.TickSize)]++
		}
	}
	if len(counts) == 0 {
		return &ProfileLevels{}
	}

	keys := make([]int64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	total := 0.0
	for _, k := range keys {
		total += counts[k]
	}

	// POC: the price level with the most time-price-opportunities. keys is
	// ascending, so the first max found is the lowest price among ties.
	pocIdx := 0
	for i, k := range keys {
		if counts[k] > counts[keys[pocIdx]] {
			pocIdx = i
		}
	}

	lo, hi := pocIdx, pocIdx
	included := counts[keys[pocIdx]]
	target := total * cfg.ValueAreaPct
	for included < target && (lo > 0 || hi < len(keys)-1) {
		var belowVol, aboveVol float64 = -1, -1
		if lo > 0 {
			belowVol = counts[keys[lo-1]]
		}
		if hi < len(keys)-1 {
			aboveVol = counts[keys[hi+1]]
		}
		if aboveVol >= belowVol {
			hi++
			included += counts[keys[hi]]
		} else {
			lo--
			included += counts[keys[lo]]
		}
	}

	ibCandles := cfg.InitialBalanceCandles
	if ibCandles > len(session) {
		ibCandles = len(session)
	}
	ibHigh, ibLow := float64(session[0].High), float64(session[0].Low)
	for i := 1; i < ibCandles; i++ {
		if float64(session[i].High) > ibHigh {
			ibHigh = float64(session[i].High)
		}
		if float64(session[i].Low) < ibLow {
			ibLow = float64(session[i].Low)
		}
	}

	return &ProfileLevels{
		POC:              domain.Price(float64(keys[pocIdx]) * cfg.TickSize),
		ValueAreaHigh:    domain.Price(float64(keys[hi]) * cfg.TickSize),
		ValueAreaLow:     domain.Price(float64(keys[lo]) * cfg.TickSize),
		InitialBalanceHi: domain.Price(ibHigh),
		InitialBalanceLo: domain.Price(ibLow),
	}
}
