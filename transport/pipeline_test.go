package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

func testStreamID(name string) domain.StreamID {
	return domain.NewEconomicCalendarID("test", name, nil, nil)
}

func TestRun_HappyPath(t *testing.T) {
	requests := []Request{
		{Stream: testStreamID("a")},
		{Stream: testStreamID("b")},
		{Stream: testStreamID("c")},
	}
	client := ClientFunc(func(ctx context.Context, req Request) (Page, error) {
		return Page{Request: req, Body: []byte(req.Stream.String())}, nil
	})
	decoder := DecoderFunc(func(page Page) (*schema.Frame, error) {
		f := schema.NewFrame(schema.ColTimestamp)
		f.AppendRow(map[schema.CanonicalColumn]schema.Cell{
			schema.ColTimestamp: schema.IntCell(0),
		})
		return f, nil
	})

	results, err := Run(context.Background(), requests, client, decoder, PipelineConfig{FetchWorkers: 2, ProcessWorkers: 2})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, req := range requests {
		assert.NotNil(t, results[req])
	}
}

func TestRun_DedupesDuplicateRequests(t *testing.T) {
	dup := Request{Stream: testStreamID("a")}
	requests := []Request{dup, dup, {Stream: testStreamID("b")}}

	var fetchCount int32
	client := ClientFunc(func(ctx context.Context, req Request) (Page, error) {
		atomic.AddInt32(&fetchCount, 1)
		return Page{Request: req, Body: []byte(req.Stream.String())}, nil
	})
	decoder := DecoderFunc(func(page Page) (*schema.Frame, error) {
		return schema.NewFrame(schema.ColTimestamp), nil
	})

	results, err := Run(context.Background(), requests, client, decoder, PipelineConfig{FetchWorkers: 2, ProcessWorkers: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.EqualValues(t, 2, atomic.LoadInt32(&fetchCount), "duplicate request must only be fetched once")
}

func TestDedupeRequests_ChooseFirstPolicyPreservesFirstSeenOrder(t *testing.T) {
	a := Request{Stream: testStreamID("a")}
	b := Request{Stream: testStreamID("b")}
	out := dedupeRequests([]Request{a, b, a}, ChooseFirstPolicy{})
	assert.Equal(t, []Request{a, b}, out)
}

func TestRun_FetchErrorTripsPipeline(t *testing.T) {
	requests := []Request{{Stream: testStreamID("a")}, {Stream: testStreamID("b")}}
	boom := errors.New("boom")
	client := ClientFunc(func(ctx context.Context, req Request) (Page, error) {
		if req.Stream.String() == "calendar:test:a:[]:[]" {
			return Page{}, boom
		}
		<-ctx.Done()
		return Page{}, ctx.Err()
	})
	decoder := DecoderFunc(func(page Page) (*schema.Frame, error) { return schema.NewFrame(schema.ColTimestamp), nil })

	done := make(chan struct{})
	var err error
	go func() {
		_, err = Run(context.Background(), requests, client, decoder, PipelineConfig{FetchWorkers: 2, ProcessWorkers: 2})
		close(done)
	}()

	select {
	case <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not terminate after a fetch error")
	}
}
