// Package cache implements the fetched-page cache: a codec-agnostic,
// backend-agnostic store keyed by (stream, time range) so a backtest never
// re-fetches a page of market or calendar data it already paid for once.
//
// The layout mirrors the transport pipeline's own separation of concerns:
// a Codec serializes a schema.Frame, a Store persists the serialized bytes
// under a key, and a sqlite manifest (grounded on the teacher's
// internal/database package) tracks which keys exist without needing to
// list the backend.
package cache

import (
	"fmt"

	"github.com/aristath/chapaty/domain"
)

// Key identifies one cached page: a stream plus the half-open time range
// the page covers.
type Key struct {
	Stream domain.StreamID
	From   domain.Timestamp
	To     domain.Timestamp
}

// ManifestKey is Key's canonical flattened form, stable enough to use as a
// sqlite primary key and a local-filesystem file name.
func (k Key) ManifestKey() string {
	return fmt.Sprintf("%016x_%d_%d", k.Stream.Digest(), k.From.UnixMilli(), k.To.UnixMilli())
}
