package simdata

import (
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// MarketSource bundles one market's raw OHLCV frame with the indicator
// frames to join onto it and the optional session-profile configuration to
// derive TPO/volume-profile levels from — the full input BuildMarketStream
// needs for one stream.
type MarketSource struct {
	MarketID   domain.MarketID
	Ohlcv      *schema.Frame
	Indicators []IndicatorFrame

	// ProfileConfig and SessionKey are both required to enable profile
	// joining for this market; leaving either nil skips it.
	ProfileConfig *schema.ProfileConfig
	SessionKey    func(domain.Timestamp) int64
}

// Load is component F's end-to-end entry point: join every market's OHLCV
// frame against its indicators and session profile, then assemble the
// result into one causality-checked SimulationData. This is the production
// caller of BuildMarketStream — the transport/indicator layers hand it raw
// fetched frames and precomputed indicator frames. Session profiles are
// attached after BuildMarketStream returns, not passed into it.
func Load(sources []MarketSource, calendarStreams map[domain.EconomicCalendarID]*CalendarStream, cfg FilterConfig, configHash uint64) (*SimulationData, error) {
	marketStreams := make(map[domain.MarketID]*MarketStream, len(sources))
	for _, src := range sources {
		stream, err := BuildMarketStream(src.MarketID, src.Ohlcv, src.Indicators, nil)
		if err != nil {
			return nil, err
		}
		if src.ProfileConfig != nil && src.SessionKey != nil {
			attachProfiles(stream, *src.ProfileConfig, src.SessionKey)
		}
		marketStreams[src.MarketID] = stream
	}

	return Build(marketStreams, calendarStreams, cfg, configHash)
}

// attachProfiles computes one session profile per group of stream's events
// (grouped by sessionKey) and sets each event's Profile field in place.
func attachProfiles(stream *MarketStream, cfg schema.ProfileConfig, sessionKey func(domain.Timestamp) int64) {
	byTimestamp := schema.BuildSessionProfiles(stream.Events, cfg, sessionKey)
	for i := range stream.Events {
		if p, ok := byTimestamp[stream.Events[i].Timestamp.UnixMilli()]; ok {
			stream.Events[i].Profile = p
		}
	}
}
