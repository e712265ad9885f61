package simdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

func testMarketID(t *testing.T) domain.MarketID {
	t.Helper()
	return domain.NewOhlcvID("test-broker", domain.NewSpotSymbol(domain.SpotPair{Base: "BTC", Quote: "USDT"}),
		"", domain.Period{Unit: domain.PeriodHour, Length: 1}, nil)
}

func ohlcvFrame(rows ...[5]float64) *schema.Frame {
	f := schema.NewFrame(schema.ColTimestamp, schema.ColOpen, schema.ColHigh, schema.ColLow, schema.ColClose)
	for _, r := range rows {
		f.AppendRow(map[schema.CanonicalColumn]schema.Cell{
			schema.ColTimestamp: schema.IntCell(int64(r[0])),
			schema.ColOpen:      schema.FloatCell(r[1]),
			schema.ColHigh:      schema.FloatCell(r[2]),
			schema.ColLow:       schema.FloatCell(r[3]),
			schema.ColClose:     schema.FloatCell(r[4]),
		})
	}
	return f
}

// TestBuildMarketStream_AttachesSuppliedProfiles proves the profiles
// parameter is actually exercised: a caller-supplied lookup keyed by
// Unix-millis timestamp must land on the matching event's Profile field.
func TestBuildMarketStream_AttachesSuppliedProfiles(t *testing.T) {
	marketID := testMarketID(t)
	ohlcv := ohlcvFrame(
		[5]float64{1000, 10, 11, 9, 10.5},
		[5]float64{2000, 10.5, 12, 10, 11.5},
	)
	profiles := map[int64]*schema.ProfileLevels{
		1000: {POC: 10, ValueAreaHigh: 11, ValueAreaLow: 9},
	}

	stream, err := BuildMarketStream(marketID, ohlcv, nil, profiles)
	require.NoError(t, err)
	require.Len(t, stream.Events, 2)

	require.NotNil(t, stream.Events[0].Profile)
	assert.Equal(t, domain.Price(10), stream.Events[0].Profile.POC)
	assert.Nil(t, stream.Events[1].Profile, "no lookup entry for this timestamp")
}

func TestBuildMarketStream_JoinsIndicatorColumns(t *testing.T) {
	marketID := testMarketID(t)
	ohlcv := ohlcvFrame([5]float64{1000, 10, 11, 9, 10.5})

	smaFrame := schema.NewFrame(schema.ColTimestamp, schema.ColPrice)
	smaFrame.AppendRow(map[schema.CanonicalColumn]schema.Cell{
		schema.ColTimestamp: schema.IntCell(1000),
		schema.ColPrice:     schema.FloatCell(10.2),
	})

	stream, err := BuildMarketStream(marketID, ohlcv, []IndicatorFrame{{Name: "sma(20)", Frame: smaFrame}}, nil)
	require.NoError(t, err)
	require.Len(t, stream.Events, 1)
	assert.Equal(t, 10.2, stream.Events[0].Indicators["sma(20)"])
}

// TestLoad_EndToEnd exercises Load from raw frames to SimulationData:
// Load must call BuildMarketStream per source, attach session
// profiles when configured, and hand the result to Build.
func TestLoad_EndToEnd(t *testing.T) {
	marketID := testMarketID(t)
	ohlcv := ohlcvFrame(
		[5]float64{1000, 10, 11, 9, 10.5},
		[5]float64{2000, 10.5, 12, 10, 11.5},
	)

	sources := []MarketSource{
		{
			MarketID:      marketID,
			Ohlcv:         ohlcv,
			ProfileConfig: &schema.ProfileConfig{TickSize: 1, ValueAreaPct: 0.7, InitialBalanceCandles: 1},
			SessionKey:    func(domain.Timestamp) int64 { return 0 }, // one session for the whole stream
		},
	}

	data, err := Load(sources, nil, FilterConfig{}, 42)
	require.NoError(t, err)
	require.Contains(t, data.MarketStreams, marketID)

	stream := data.MarketStreams[marketID]
	require.Len(t, stream.Events, 2)
	for _, e := range stream.Events {
		require.NotNil(t, e.Profile, "session profile must be attached by Load")
	}
	assert.Equal(t, domain.Price(9), stream.Events[0].Profile.InitialBalanceLo)
	assert.Equal(t, uint64(42), data.ConfigHash)
}

func TestLoad_NoProfileConfigSkipsAttachment(t *testing.T) {
	marketID := testMarketID(t)
	ohlcv := ohlcvFrame([5]float64{1000, 10, 11, 9, 10.5})

	data, err := Load([]MarketSource{{MarketID: marketID, Ohlcv: ohlcv}}, nil, FilterConfig{}, 1)
	require.NoError(t, err)
	assert.Nil(t, data.MarketStreams[marketID].Events[0].Profile)
}
