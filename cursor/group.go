// Package cursor implements the multi-stream time-ordered iterator (spec
// §4.5): a priority queue of per-stream cursors keyed by next-event
// timestamp, draining every event at the minimum timestamp together as one
// tick, with stable tie-breaking by stream priority.
package cursor

import (
	"container/heap"

	"github.com/aristath/chapaty/domain"
)

// Stream is anything the cursor can pull timestamped events from.
type Stream interface {
	// StreamID identifies this stream for tie-breaking and event tagging.
	StreamID() domain.StreamID
	// PeekTime returns the timestamp of the next unconsumed event, and false
	// if the stream is exhausted.
	PeekTime() (domain.Timestamp, bool)
	// Pop returns and consumes the next event (opaque to the cursor; the
	// caller downcasts by StreamID kind).
	Pop() any
	// SeekTo discards every buffered event strictly before ts.
	SeekTo(ts domain.Timestamp)
}

// Tick is the set of events observed at a single timestamp, in stream
// priority order (calendar, then indicators, then market).
type Tick struct {
	Timestamp domain.Timestamp
	Events    []TickEvent
}

// TickEvent tags a single event with the stream it came from.
type TickEvent struct {
	StreamID domain.StreamID
	Payload  any
}

type heapEntry struct {
	stream domain.StreamID
	prio   domain.StreamPriority
	ts     domain.Timestamp
	index  int // index into streams
}

type entryHeap []*heapEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if !h[i].ts.Equal(h[j].ts) {
		return h[i].ts.Before(h[j].ts)
	}
	if h[i].prio != h[j].prio {
		return h[i].prio < h[j].prio
	}
	return h[i].stream.String() < h[j].stream.String()
}
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(*heapEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Group is the N-way merge across every configured stream.
type Group struct {
	streams []Stream
	heap    entryHeap
}

// NewGroup builds a cursor group over the given streams, seeding the heap
// from each stream's first available event.
func NewGroup(streams []Stream) *Group {
	g := &Group{streams: streams}
	for i := range streams {
		g.pushIfAvailable(i)
	}
	heap.Init(&g.heap)
	return g
}

func (g *Group) pushIfAvailable(streamIndex int) {
	s := g.streams[streamIndex]
	ts, ok := s.PeekTime()
	if !ok {
		return
	}
	heap.Push(&g.heap, &heapEntry{
		stream: s.StreamID(),
		prio:   domain.PriorityOf(s.StreamID()),
		ts:     ts,
		index:  streamIndex,
	})
}

// PeekTime returns the timestamp of the next tick, or false if every stream
// is exhausted.
func (g *Group) PeekTime() (domain.Timestamp, bool) {
	if g.heap.Len() == 0 {
		return domain.Timestamp{}, false
	}
	return g.heap[0].ts, true
}

// AdvanceTick drains every event at the minimum timestamp, across every
// stream, and returns them as one Tick. Returns false when every stream is
// exhausted (no more ticks).
func (g *Group) AdvanceTick() (Tick, bool) {
	if g.heap.Len() == 0 {
		return Tick{}, false
	}
	minTs, _ := g.PeekTime()
	tick := Tick{Timestamp: minTs}

	for g.heap.Len() > 0 && g.heap[0].ts.Equal(minTs) {
		entry := heap.Pop(&g.heap).(*heapEntry)
		stream := g.streams[entry.index]
		payload := stream.Pop()
		tick.Events = append(tick.Events, TickEvent{StreamID: entry.stream, Payload: payload})
		g.pushIfAvailable(entry.index)
	}
	return tick, true
}

// ResetTo reseeks every stream to ts and rebuilds the heap. Used at episode
// boundaries (spec §4.5).
func (g *Group) ResetTo(ts domain.Timestamp) {
	g.heap = g.heap[:0]
	for i, s := range g.streams {
		s.SeekTo(ts)
		g.pushIfAvailable(i)
	}
	heap.Init(&g.heap)
}

// Exhausted reports whether every stream has been fully consumed.
func (g *Group) Exhausted() bool {
	return g.heap.Len() == 0
}
