// Package simdata builds and holds the persistable, immutable bundle the
// engine replays: per-stream ordered event vectors joined from OHLCV,
// indicator, and calendar frames, filtered by trading window and economic
// calendar policy (spec §3 "Simulation data", §4 component F).
package simdata

import (
	"hash/fnv"
	"sort"

	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// MarketStream is the dense, time-ordered event vector for one MarketID.
type MarketStream struct {
	MarketID domain.MarketID
	Events   []schema.MarketEvent
}

// CalendarStream is the dense, time-ordered event vector for one calendar id.
type CalendarStream struct {
	ID     domain.EconomicCalendarID
	Events []schema.CalendarEvent
}

// SimulationData is the persistable, immutable bundle produced by Build and
// consumed by the environment. Invariant: for every market stream, every
// timestamp is >= GlobalOpenStart; at equal timestamps, calendar events are
// ordered before market events (spec §3).
type SimulationData struct {
	MarketIDs       []domain.MarketID
	MarketStreams   map[domain.MarketID]*MarketStream
	CalendarStreams map[domain.EconomicCalendarID]*CalendarStream
	GlobalOpenStart domain.Timestamp
	ConfigHash      uint64
}

// ConfigFingerprint is anything hashable that can be folded into a
// deterministic config hash — every EnvConfig field that affects which data
// gets fetched/joined/filtered contributes one fingerprint component.
type ConfigFingerprint interface {
	Fingerprint() string
}

// HashConfig derives the spec's "config_hash: 64-bit digest — deterministic
// identity of the contents" from an ordered list of fingerprint components.
// Component order matters for reproducibility, so callers must always
// fingerprint fields in the same declared order.
func HashConfig(components ...ConfigFingerprint) uint64 {
	h := fnv.New64a()
	for _, c := range components {
		_, _ = h.Write([]byte(c.Fingerprint()))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// ComputeGlobalOpenStart returns the smallest timestamp at which every
// tradable (market) stream already has data — the earliest instant with no
// causality violation.
func ComputeGlobalOpenStart(streams map[domain.MarketID]*MarketStream) domain.Timestamp {
	var max domain.Timestamp
	first := true
	for _, s := range streams {
		if len(s.Events) == 0 {
			continue
		}
		start := s.Events[0].Timestamp
		if first || max.Before(start) {
			max = start
			first = false
		}
	}
	return max
}

// sortMarketEvents sorts events ascending by timestamp, stable on ties.
func sortMarketEvents(events []schema.MarketEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
