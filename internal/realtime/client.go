// Package realtime receives push events from the dashboard backend over a
// websocket: new front-desk messages, refill requests, and session-expiry
// notices detected server-side during active use.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/medidesk/dashboard/internal/api"
	"github.com/medidesk/dashboard/pkg/logging"
)

// Event types pushed by the backend.
const (
	EventSessionExpired   = "session_expired"
	EventFrontDeskMessage = "front_desk_message"
	EventRefillRequest    = "refill_request"
)

// Event is one push notification.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client maintains the event stream connection, reconnecting with a rate
// limit after drops. A Client with an empty URL is disabled and Run returns
// immediately — push simply does not happen, same as the broadcast bus's
// degraded mode.
type Client struct {
	url     string
	tokens  api.TokenSource
	handler func(Event)
	logger  *logging.Logger
	dialer  *websocket.Dialer
	limiter *rate.Limiter
}

func New(url string, tokens api.TokenSource, handler func(Event), logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		url:     url,
		tokens:  tokens,
		handler: handler,
		logger:  logger.Component("realtime"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		// One reconnect attempt every 5s, small initial burst.
		limiter: rate.NewLimiter(rate.Every(5*time.Second), 2),
	}
}

// Run connects and dispatches events until ctx is done. Connection drops
// trigger rate-limited reconnects; an unauthenticated client (no token)
// waits for the next attempt rather than dialing.
func (c *Client) Run(ctx context.Context) error {
	if c.url == "" {
		c.logger.Warn("no event stream configured; realtime updates disabled")
		return nil
	}
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		token := c.tokens.Token()
		if token == "" {
			continue
		}
		if err := c.runOnce(ctx, token); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Warn("event stream dropped; reconnecting", "error", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Client) runOnce(ctx context.Context, token string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Close the connection when ctx ends so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			return err
		}
		if c.handler != nil {
			c.handler(ev)
		}
	}
}
