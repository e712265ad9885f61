package domain

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// StreamID is a hashable, structurally-derived identifier for a single data
// stream. Two IDs built from identical fields always compare equal and hash
// to the same Digest — there is never a back-pointer or database-assigned
// surrogate key involved, so stream identity survives a cold process restart.
type StreamID interface {
	fmt.Stringer
	// Digest is a 64-bit structural hash of the identifier's fields, stable
	// across process restarts (it never incorporates time, randomness, or
	// pointer addresses).
	Digest() uint64
}

func digestString(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func sortedIndicators(indicators []TechnicalIndicator) []TechnicalIndicator {
	out := make([]TechnicalIndicator, len(indicators))
	copy(out, indicators)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// TechnicalIndicatorKind tags which streaming/batch indicator a
// TechnicalIndicator value describes.
type TechnicalIndicatorKind int

const (
	IndicatorSMA TechnicalIndicatorKind = iota
	IndicatorEMA
	IndicatorRSI
)

// TechnicalIndicator is a single registered indicator column request,
// e.g. Sma(20) or Rsi(14).
type TechnicalIndicator struct {
	Kind   TechnicalIndicatorKind
	Window uint16
}

func (t TechnicalIndicator) String() string {
	var name string
	switch t.Kind {
	case IndicatorSMA:
		name = "sma"
	case IndicatorEMA:
		name = "ema"
	case IndicatorRSI:
		name = "rsi"
	default:
		name = "unknown"
	}
	return fmt.Sprintf("%s(%d)", name, t.Window)
}

// OhlcvID identifies a single OHLCV stream: a broker's feed for one symbol,
// on one exchange (futures only), at one period, joined with a fixed set of
// registered indicators. Every field is itself comparable so OhlcvID (and
// therefore MarketID) can be used directly as a Go map key — IndicatorsKey
// is a canonical, order-independent string encoding of the indicator set
// rather than a []TechnicalIndicator, since a slice field would make the
// struct incomparable.
type OhlcvID struct {
	Broker        string
	Symbol        Symbol
	Exchange      string // empty for spot symbols
	Period        Period
	IndicatorsKey string
}

// NewOhlcvID builds an OhlcvID, sorting indicators so that two requests
// naming the same indicators in a different order hash identically.
func NewOhlcvID(broker string, symbol Symbol, exchange string, period Period, indicators []TechnicalIndicator) OhlcvID {
	sorted := sortedIndicators(indicators)
	parts := make([]string, len(sorted))
	for i, ind := range sorted {
		parts[i] = ind.String()
	}
	return OhlcvID{
		Broker:        broker,
		Symbol:        symbol,
		Exchange:      exchange,
		Period:        period,
		IndicatorsKey: strings.Join(parts, ","),
	}
}

func (id OhlcvID) String() string {
	return fmt.Sprintf("ohlcv:%s:%s:%s:%s:[%s]", id.Broker, id.Symbol, id.Exchange, id.Period, id.IndicatorsKey)
}

func (id OhlcvID) Digest() uint64 {
	return digestString(id.String())
}

// IsMarketID reports that every OhlcvID is tradable, i.e. admits MarketID.
func (id OhlcvID) IsMarketID() bool { return true }

// SmaID identifies a derived simple-moving-average stream over a parent
// OHLCV stream.
type SmaID struct {
	Parent OhlcvID
	Length SmaWindow
}

func (id SmaID) String() string { return fmt.Sprintf("sma:%s:%d", id.Parent, id.Length) }
func (id SmaID) Digest() uint64 { return digestString(id.String()) }

// EmaID identifies a derived exponential-moving-average stream.
type EmaID struct {
	Parent OhlcvID
	Length EmaWindow
}

func (id EmaID) String() string { return fmt.Sprintf("ema:%s:%d", id.Parent, id.Length) }
func (id EmaID) Digest() uint64 { return digestString(id.String()) }

// RsiID identifies a derived relative-strength-index stream.
type RsiID struct {
	Parent OhlcvID
	Length RsiWindow
}

func (id RsiID) String() string { return fmt.Sprintf("rsi:%s:%d", id.Parent, id.Length) }
func (id RsiID) Digest() uint64 { return digestString(id.String()) }

// EconomicCalendarID identifies an economic-calendar stream, filtered by
// source, country, and the event categories/impacts that are allowed to
// enable trading. CategoriesKey/ImpactsKey are canonical (sorted, joined)
// string encodings rather than []string, so EconomicCalendarID stays
// comparable and usable as a Go map key (see OhlcvID's IndicatorsKey for the
// same reasoning).
type EconomicCalendarID struct {
	Source       string
	Country      string
	CategoriesKey string
	ImpactsKey    string
}

// NewEconomicCalendarID sorts categories/impacts so ordering never affects
// identity.
func NewEconomicCalendarID(source, country string, categories, impacts []string) EconomicCalendarID {
	cats := append([]string(nil), categories...)
	sort.Strings(cats)
	imps := append([]string(nil), impacts...)
	sort.Strings(imps)
	return EconomicCalendarID{
		Source:        source,
		Country:       country,
		CategoriesKey: strings.Join(cats, ","),
		ImpactsKey:    strings.Join(imps, ","),
	}
}

func (id EconomicCalendarID) String() string {
	return fmt.Sprintf("calendar:%s:%s:[%s]:[%s]", id.Source, id.Country, id.CategoriesKey, id.ImpactsKey)
}
func (id EconomicCalendarID) Digest() uint64 { return digestString(id.String()) }

// ProfileAggregation selects the source series a TPO or volume profile is
// built from (1-minute candles, aggregated trades, or raw ticks).
type ProfileAggregation int

const (
	AggregationOhlc1m ProfileAggregation = iota
	AggregationAggTrades
	AggregationTick
)

// TpoID identifies a time-price-opportunity profile stream for one symbol
// over one session boundary.
type TpoID struct {
	Parent      OhlcvID
	Aggregation ProfileAggregation
}

func (id TpoID) String() string { return fmt.Sprintf("tpo:%s:%d", id.Parent, id.Aggregation) }
func (id TpoID) Digest() uint64 { return digestString(id.String()) }

// IsMarketID reports that a TPO stream's own price domain is not directly
// tradable; trades are tagged against the parent OHLCV MarketID instead.
func (id TpoID) IsMarketID() bool { return false }

// VolumeProfileID identifies a volume-at-price histogram stream.
type VolumeProfileID struct {
	Parent      OhlcvID
	Aggregation ProfileAggregation
}

func (id VolumeProfileID) String() string {
	return fmt.Sprintf("volprofile:%s:%d", id.Parent, id.Aggregation)
}
func (id VolumeProfileID) Digest() uint64 { return digestString(id.String()) }

// TradesID identifies a raw/aggregated trades stream.
type TradesID struct {
	Parent      OhlcvID
	Aggregation ProfileAggregation
}

func (id TradesID) String() string { return fmt.Sprintf("trades:%s:%d", id.Parent, id.Aggregation) }
func (id TradesID) Digest() uint64 { return digestString(id.String()) }

// MarketID is the StreamID of any stream whose price domain admits trading.
// Only OhlcvID satisfies it today; every open trade is tagged with the
// MarketID it was opened against.
type MarketID = OhlcvID

// StreamPriority orders streams of different kinds within a single engine
// tick: calendar events are always observed before indicator streams, which
// in turn precede raw market (OHLCV) streams, so that a trading decision
// made on a given tick has already seen the day's calendar context.
type StreamPriority int

const (
	PriorityCalendar StreamPriority = iota
	PriorityIndicator
	PriorityMarket
)

// PriorityOf reports this stream kind's StreamPriority for cursor tie-breaking.
func PriorityOf(id StreamID) StreamPriority {
	switch id.(type) {
	case EconomicCalendarID:
		return PriorityCalendar
	case SmaID, EmaID, RsiID:
		return PriorityIndicator
	default:
		return PriorityMarket
	}
}
