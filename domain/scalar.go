// Package domain provides the core value types shared by every layer of the
// backtesting engine: newtype scalars, symbol/period/side enums, and the
// structurally-hashable stream identifiers that key every data stream.
package domain

import "time"

// Price is a traded price, always in the instrument's quote currency.
type Price float64

// Quantity is a trade size. Must be > 0 for any live trade.
type Quantity float64

// Volume is a traded size aggregated over a period.
type Volume float64

// Timestamp is a UTC instant at millisecond resolution. Sub-millisecond
// precision is never observed by this engine.
type Timestamp time.Time

// UnixMilli returns the timestamp as milliseconds since the Unix epoch.
func (t Timestamp) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

// Before reports whether t is strictly before other.
func (t Timestamp) Before(other Timestamp) bool {
	return time.Time(t).Before(time.Time(other))
}

// Equal reports whether t and other represent the same instant.
func (t Timestamp) Equal(other Timestamp) bool {
	return time.Time(t).Equal(time.Time(other))
}

// Add returns t shifted by d.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp(time.Time(t).Add(d))
}

// Sub returns the duration between t and other (t - other).
func (t Timestamp) Sub(other Timestamp) time.Duration {
	return time.Time(t).Sub(time.Time(other))
}

// TimestampFromUnixMilli builds a Timestamp from Unix milliseconds.
func TimestampFromUnixMilli(ms int64) Timestamp {
	return Timestamp(time.UnixMilli(ms).UTC())
}

// Reward is expressed in whole-dollar units rather than floating point so
// that equality and ordering of accumulated rewards are exact — this avoids
// the classic 0.1+0.2 != 0.3 surprise in step-reward accounting.
type Reward int64

// InvalidActionPenalty is a distinct type from Reward so a caller cannot
// accidentally pass a raw step reward where a penalty configuration value is
// expected. Its zero value (no penalty) is the spec-mandated default.
type InvalidActionPenalty Reward

// Year is a calendar year used to key yearly transport batches.
type Year uint16

// SmaWindow is the lookback length, in samples, of a simple moving average.
type SmaWindow uint16

// EmaWindow is the lookback length, in samples, of an exponential moving
// average (used to derive the smoothing factor alpha = 2/(w+1)).
type EmaWindow uint16

// RsiWindow is the lookback length, in samples, of a relative-strength index
// (used to derive Wilder's smoothing factor alpha = 1/w).
type RsiWindow uint16
