// Package grid implements the parallel grid evaluator: run many agents
// against the same SimulationData concurrently and keep a bounded top-K
// leaderboard per scoring metric (spec §4.8, component L).
package grid

import "container/heap"

// AgentResult is one agent's full evaluation outcome: every metric computed
// for it, keyed by name (e.g. "sharpe", "total_pnl", "hit_ratio").
type AgentResult struct {
	AgentID           string
	Parameterization  string
	Metrics           map[string]float64
}

type leaderboardEntry struct {
	result AgentResult
	value  float64
}

// metricHeap is a min-heap so the smallest-scoring kept entry is always at
// the root, letting Offer evict it in O(log K) when a better one arrives.
type metricHeap []leaderboardEntry

func (h metricHeap) Len() int            { return len(h) }
func (h metricHeap) Less(i, j int) bool  { return h[i].value < h[j].value }
func (h metricHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *metricHeap) Push(x any)         { *h = append(*h, x.(leaderboardEntry)) }
func (h *metricHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Leaderboard keeps, per metric name, the top K agent results by that
// metric's value (higher is better).
type Leaderboard struct {
	k        int
	byMetric map[string]*metricHeap
}

// NewLeaderboard builds a leaderboard tracking the top k results for each of
// metrics.
func NewLeaderboard(k int, metrics []string) *Leaderboard {
	lb := &Leaderboard{k: k, byMetric: make(map[string]*metricHeap, len(metrics))}
	for _, m := range metrics {
		h := &metricHeap{}
		heap.Init(h)
		lb.byMetric[m] = h
	}
	return lb
}

// Offer considers result for every tracked metric present in its Metrics
// map, keeping only the top K per metric.
func (lb *Leaderboard) Offer(result AgentResult) {
	for metric, h := range lb.byMetric {
		value, ok := result.Metrics[metric]
		if !ok {
			continue
		}
		entry := leaderboardEntry{result: result, value: value}
		switch {
		case h.Len() < lb.k:
			heap.Push(h, entry)
		case value > (*h)[0].value:
			heap.Pop(h)
			heap.Push(h, entry)
		}
	}
}

// Top returns metric's kept entries, ordered best (highest value) first.
func (lb *Leaderboard) Top(metric string) []AgentResult {
	h, ok := lb.byMetric[metric]
	if !ok {
		return nil
	}
	sorted := append(metricHeap(nil), (*h)...)
	// sorted is a copy of the heap's backing slice; sort it descending by
	// value without disturbing the live heap.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].value > sorted[j-1].value; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := make([]AgentResult, len(sorted))
	for i, e := range sorted {
		out[i] = e.result
	}
	return out
}

// Metrics returns the tracked metric names.
func (lb *Leaderboard) Metrics() []string {
	out := make([]string, 0, len(lb.byMetric))
	for m := range lb.byMetric {
		out = append(out, m)
	}
	return out
}
