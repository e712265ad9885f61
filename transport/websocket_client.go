package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	"nhooyr.io/websocket"

	"github.com/aristath/chapaty/cerrors"
)

// WebSocketClient fetches a single page by dialing a streaming endpoint,
// sending the request as a JSON text frame, and reading back exactly one
// response frame before closing — grounded on the teacher's
// MarketStatusWebSocket dial/read/close shape, but collapsed into the single
// blocking Fetch call the pipeline's Client interface expects (no background
// read loop or reconnect state machine: the fetcher pool already supplies
// the concurrency). A failed Fetch is not retried; the pipeline treats it
// as its first error and trips.
type WebSocketClient struct {
	URL         string
	DialTimeout time.Duration
	Encode      func(Request) ([]byte, error)
}

// NewWebSocketClient builds a client against url with sane defaults.
func NewWebSocketClient(url string, encode func(Request) ([]byte, error)) *WebSocketClient {
	return &WebSocketClient{URL: url, DialTimeout: 30 * time.Second, Encode: encode}
}

func (c *WebSocketClient) Fetch(ctx context.Context, req Request) (Page, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.DialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.URL, nil)
	if err != nil {
		return Page{}, wrapFetchErr(fmt.Errorf("dial %s: %w", c.URL, err))
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	payload, err := c.Encode(req)
	if err != nil {
		return Page{}, cerrors.WrapTransportError(cerrors.TransportStream, "encode request", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return Page{}, wrapFetchErr(err)
	}

	_, body, err := conn.Read(ctx)
	if err != nil {
		if err == io.EOF {
			return Page{}, cerrors.NewTransportError(cerrors.TransportStream, "stream closed before any page arrived")
		}
		return Page{}, wrapFetchErr(err)
	}
	return Page{Request: req, Body: body}, nil
}
