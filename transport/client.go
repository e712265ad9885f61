// Package transport implements the back-pressured fetch pipeline that turns
// a list of stream requests into joined schema.Frame data: a generator feeds
// a bounded request channel, a fetcher pool pulls raw pages over a Client, a
// processor pool decodes/validates each page, and a collector gathers one
// Frame per request (spec §4.3, component E).
package transport

import (
	"context"

	"github.com/aristath/chapaty/cerrors"
	"github.com/aristath/chapaty/domain"
	"github.com/aristath/chapaty/schema"
)

// Request names one page of data to fetch: a stream plus the half-open time
// range [From, To) it covers.
type Request struct {
	Stream domain.StreamID
	From   domain.Timestamp
	To     domain.Timestamp
}

// Page is one fetched, not-yet-decoded response.
type Page struct {
	Request Request
	Body    []byte
}

// Client fetches raw pages for a single request. Implementations wrap a
// concrete transport (REST poll, WebSocket subscription replay, local
// fixture) behind this one blocking call so the pipeline stages never know
// which.
type Client interface {
	Fetch(ctx context.Context, req Request) (Page, error)
}

// Decoder turns one fetched Page into a schema.Frame of raw (pre-join) rows.
type Decoder interface {
	Decode(page Page) (*schema.Frame, error)
}

// ClientFunc adapts a plain function to Client.
type ClientFunc func(ctx context.Context, req Request) (Page, error)

func (f ClientFunc) Fetch(ctx context.Context, req Request) (Page, error) { return f(ctx, req) }

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc func(page Page) (*schema.Frame, error)

func (f DecoderFunc) Decode(page Page) (*schema.Frame, error) { return f(page) }

// wrapFetchErr classifies a raw client error as a TransportError so callers
// can branch on Kind without caring which Client implementation produced it.
func wrapFetchErr(err error) error {
	if err == nil {
		return nil
	}
	return cerrors.WrapTransportError(cerrors.TransportConnection, "fetch failed", err)
}
