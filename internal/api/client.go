// Package api is the typed REST client for the clinic dashboard backend.
// The backend is an opaque external service; nothing here computes beyond
// request shaping and response decoding.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/medidesk/dashboard/pkg/logging"
)

var tracer trace.Tracer = otel.Tracer("medidesk.internal.api.client")

const defaultTimeout = 10 * time.Second

// TokenSource supplies the current bearer token, or "" when none is held.
type TokenSource interface {
	Token() string
}

// Client talks to the dashboard backend. The cookie jar carries the
// HTTP-only refresh cookie between Refresh calls, so callers never handle
// the cookie themselves.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	logger         *logging.Logger
	onUnauthorized func()
	observeLatency func(endpoint string, seconds float64)
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		tokens: tokens,
		logger: logger,
	}
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// SetUnauthorizedHook registers fn to run whenever a bearer-authenticated
// call comes back 401 while a token is held — the "session expired during
// active use" case. The hook must not block.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// SetLatencyObserver registers a per-request latency callback, keyed by the
// request path template.
func (c *Client) SetLatencyObserver(fn func(endpoint string, seconds float64)) {
	c.observeLatency = fn
}

// do issues one request. authed requests carry the current bearer token.
// Non-2xx responses decode into *APIError so every call site can branch on
// a single error envelope shape.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("api %s %s", method, path))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := ""
	if authed {
		token = c.tokens.Token()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.observeLatency != nil {
		c.observeLatency(path, time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		span.RecordError(apiErr)
		if authed && token != "" && resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, true)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, true)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out, true)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, true)
}
