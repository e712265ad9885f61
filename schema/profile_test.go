package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/domain"
)

func priceRow(ms int64, high, low float64) MarketEvent {
	return MarketEvent{
		Timestamp: domain.TimestampFromUnixMilli(ms),
		Open:      domain.Price(low),
		High:      domain.Price(high),
		Low:       domain.Price(low),
		Close:     domain.Price(high),
	}
}

// TestBuildSessionProfiles_PocAndValueArea mirrors original_source's
// volume_area.rs fixture: a single-candle session spanning [0,10] gives every
// price level the same tick-by-tick time count, so POC falls on the lowest
// level (0) and the value area widens outward from there.
func TestBuildSessionProfiles_PocAndValueArea(t *testing.T) {
	events := []MarketEvent{priceRow(1000, 10, 0)}
	cfg := ProfileConfig{TickSize: 1, ValueAreaPct: 0.7, InitialBalanceCandles: 1}

	byTimestamp := BuildSessionProfiles(events, cfg, func(domain.Timestamp) int64 { return 0 })
	require.Len(t, byTimestamp, 1)

	levels := byTimestamp[1000]
	require.NotNil(t, levels)
	assert.Equal(t, domain.Price(0), levels.POC, "tied time-at-price: POC breaks to the lowest price")
	assert.Equal(t, domain.Price(10), levels.InitialBalanceHi)
	assert.Equal(t, domain.Price(0), levels.InitialBalanceLo)
	assert.True(t, levels.ValueAreaHigh >= levels.ValueAreaLow)
}

// TestBuildSessionProfiles_GroupsBySessionKey confirms two sessions produce
// two independent, non-interfering ProfileLevels.
func TestBuildSessionProfiles_GroupsBySessionKey(t *testing.T) {
	events := []MarketEvent{
		priceRow(1000, 10, 8),
		priceRow(2000, 20, 18),
	}
	cfg := ProfileConfig{TickSize: 1, ValueAreaPct: 0.7, InitialBalanceCandles: 1}

	byTimestamp := BuildSessionProfiles(events, cfg, func(ts domain.Timestamp) int64 {
		return ts.UnixMilli()
	})
	require.Len(t, byTimestamp, 2)
	assert.NotSame(t, byTimestamp[1000], byTimestamp[2000])
	assert.Equal(t, domain.Price(8), byTimestamp[1000].InitialBalanceLo)
	assert.Equal(t, domain.Price(18), byTimestamp[2000].InitialBalanceLo)
}

func TestBuildSessionProfiles_InitialBalanceUsesLeadingCandlesOnly(t *testing.T) {
	events := []MarketEvent{
		priceRow(1000, 10, 9),
		priceRow(2000, 50, 49), // outside the initial-balance window
	}
	cfg := ProfileConfig{TickSize: 1, ValueAreaPct: 0.7, InitialBalanceCandles: 1}

	byTimestamp := BuildSessionProfiles(events, cfg, func(domain.Timestamp) int64 { return 0 })
	levels := byTimestamp[1000]
	require.NotNil(t, levels)
	assert.Equal(t, domain.Price(10), levels.InitialBalanceHi)
	assert.Equal(t, domain.Price(9), levels.InitialBalanceLo)
}

func TestBuildSessionProfiles_EmptyInputReturnsEmptyMap(t *testing.T) {
	byTimestamp := BuildSessionProfiles(nil, ProfileConfig{}, func(domain.Timestamp) int64 { return 0 })
	assert.Empty(t, byTimestamp)
}
