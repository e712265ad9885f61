package cursor

import (
	"time"

	"github.com/aristath/chapaty/domain"
)

// EpisodeLength is either a fixed duration or unbounded (spec §3 "Episode").
type EpisodeLength struct {
	Finite   bool
	Duration time.Duration
}

// InfiniteEpisode is the zero-value-friendly constructor for an unbounded
// episode length.
func InfiniteEpisode() EpisodeLength { return EpisodeLength{Finite: false} }

// FiniteEpisode builds a finite episode length of the given duration.
func FiniteEpisode(d time.Duration) EpisodeLength { return EpisodeLength{Finite: true, Duration: d} }

// Episode is one contiguous simulation window.
type Episode struct {
	Index   int
	Start   domain.Timestamp
	Length  EpisodeLength
}

// End returns the episode's exclusive end timestamp, only meaningful when
// Length.Finite.
func (e Episode) End() domain.Timestamp {
	return e.Start.Add(e.Length.Duration)
}

// Contains reports whether ts falls within [Start, End) for a finite episode;
// always true for an infinite one.
func (e Episode) Contains(ts domain.Timestamp) bool {
	if !e.Length.Finite {
		return !ts.Before(e.Start)
	}
	return !ts.Before(e.Start) && ts.Before(e.End())
}

// Next returns the episode that immediately follows e (Start advanced by
// Length; index incremented). Only meaningful for finite episodes.
func (e Episode) Next() Episode {
	return Episode{Index: e.Index + 1, Start: e.End(), Length: e.Length}
}
