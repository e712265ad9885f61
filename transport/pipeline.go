package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/schema"
)

// PipelineConfig tunes the four-stage pipeline's worker counts and channel
// depths (spec §5 "Concurrency & Resource Model").
type PipelineConfig struct {
	FetchWorkers   int
	ProcessWorkers int
	// Policy resolves duplicate-request ambiguity in the generator stage;
	// nil defaults to ChooseFirstPolicy.
	Policy DecisionPolicy
}

// DefaultPipelineConfig sizes both worker pools off the machine's logical
// core count, the way the teacher's system_handlers endpoint reports it
// (spec §5: "worker counts default to gopsutil's reported core count").
func DefaultPipelineConfig() PipelineConfig {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = 4
	}
	return PipelineConfig{FetchWorkers: n, ProcessWorkers: n}
}

type fetchResult struct {
	req  Request
	page Page
	err  error
}

type processResult struct {
	req   Request
	frame *schema.Frame
	err   error
}

// Run drives the full pipeline: a generator stage feeds requests into a
// bounded channel, a fetcher pool calls client.Fetch concurrently, a
// processor pool decodes each page, and a collector gathers one decoded
// Frame per Request into the result map; frames of the same stream from
// different requests are not concatenated. Channel depth is 2*numWorkers per stage so a slow downstream
// stage back-pressures the one above it instead of buffering unboundedly
// (spec §5). The first error from any stage trips a shared cancellation
// flag; every goroutine observes it (via ctx or the flag) and the pipeline
// drains and returns that error — later, already-in-flight results for other
// requests are discarded rather than raced against a closed result map.
func Run(ctx context.Context, requests []Request, client Client, decoder Decoder, cfg PipelineConfig) (map[Request]*schema.Frame, error) {
	if cfg.FetchWorkers <= 0 || cfg.ProcessWorkers <= 0 {
		cfg = DefaultPipelineConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tripped atomic.Bool
	var firstErr error
	var errOnce sync.Once
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			tripped.Store(true)
			cancel()
		})
	}

	reqCh := make(chan Request, 2*cfg.FetchWorkers)
	fetchedCh := make(chan fetchResult, 2*cfg.FetchWorkers)
	processedCh := make(chan processResult, 2*cfg.ProcessWorkers)

	dispatched := dedupeRequests(requests, cfg.Policy)

	// Generator: feeds the bounded request channel, stopping early if the
	// pipeline has already tripped. Duplicate requests were already
	// resolved to one winner per job by dedupeRequests above.
	go func() {
		defer close(reqCh)
		for _, req := range dispatched {
			if tripped.Load() {
				return
			}
			select {
			case reqCh <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fetcher pool.
	var fetchWG sync.WaitGroup
	fetchWG.Add(cfg.FetchWorkers)
	for i := 0; i < cfg.FetchWorkers; i++ {
		go func() {
			defer fetchWG.Done()
			for req := range reqCh {
				page, err := client.Fetch(ctx, req)
				if err != nil {
					fail(err)
				}
				select {
				case fetchedCh <- fetchResult{req: req, page: page, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		fetchWG.Wait()
		close(fetchedCh)
	}()

	// Processor pool.
	var processWG sync.WaitGroup
	processWG.Add(cfg.ProcessWorkers)
	for i := 0; i < cfg.ProcessWorkers; i++ {
		go func() {
			defer processWG.Done()
			for fr := range fetchedCh {
				if fr.err != nil {
					select {
					case processedCh <- processResult{req: fr.req, err: fr.err}:
					case <-ctx.Done():
						return
					}
					continue
				}
				frame, err := decoder.Decode(fr.page)
				if err != nil {
					err = cerrors.WrapIoError(cerrors.IoJSON, "decode page", err)
					fail(err)
				}
				select {
				case processedCh <- processResult{req: fr.req, frame: frame, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		processWG.Wait()
		close(processedCh)
	}()

	// Collector: runs on the calling goroutine.
	results := make(map[Request]*schema.Frame, len(requests))
	for pr := range processedCh {
		if pr.err != nil {
			fail(pr.err)
			continue
		}
		results[pr.req] = pr.frame
	}

	// Shutdown order mirrors spec §5's LIFO drain: collector has already
	// drained processedCh to close, which only happens after the processor
	// pool (which depends on the fetcher pool, which depends on the
	// generator) has fully wound down — i.e. the reverse of startup order.
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
