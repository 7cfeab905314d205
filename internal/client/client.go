// ABOUTME: HTTP client for the Blog Panel backend API
// ABOUTME: Single point of contact with the backend, fire-once calls with typed errors

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every request; the backend gives no timeout of its own
	DefaultTimeout = 30 * time.Second

	// DefaultMaxUploadBytes matches the backend's MAX_FILE_SIZE default (10 MiB)
	DefaultMaxUploadBytes int64 = 10 << 20

	// maxErrorBody caps how much of an error response is read
	maxErrorBody = 64 << 10
)

// Client is the API client for the Blog Panel backend
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	logger         *slog.Logger
	maxUploadBytes int64
}

type options struct {
	timeout        time.Duration
	httpClient     *http.Client
	tokens         TokenSource
	limiter        *rate.Limiter
	logger         *slog.Logger
	maxUploadBytes int64
}

// Option configures a Client
type Option func(*options)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient uses hc as the base client. Its transport is wrapped, not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithTokenSource attaches a bearer token to every request when ts has one
func WithTokenSource(ts TokenSource) Option {
	return func(o *options) {
		o.tokens = ts
	}
}

// WithRateLimit throttles outbound requests. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxUploadBytes overrides DefaultMaxUploadBytes
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	o := options{
		timeout:        DefaultTimeout,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var hc http.Client
	if o.httpClient != nil {
		hc = *o.httpClient
	}
	if hc.Timeout == 0 {
		hc.Timeout = o.timeout
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &transport{base: base, tokens: o.tokens, logger: o.logger}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &hc,
		limiter:        o.limiter,
		logger:         o.logger,
		maxUploadBytes: o.maxUploadBytes,
	}
}

// BaseURL returns the backend address this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON issues a GET and decodes the response into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

// sendJSON marshals in as the request body and decodes the response into out
func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(body), "application/json", out)
}

// do performs one request. There is no retry: failures go straight to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait fails early when the deadline would pass before a token frees up
			if ctx.Err() == nil {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return c.handleRequestError(ctx, method, path, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    "invalid response body",
			Err:        err,
		}
	}
	return nil
}

// handleRequestError converts transport failures into a NetworkError
func (c *Client) handleRequestError(ctx context.Context, method, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	return &NetworkError{Method: method, Path: path, BaseURL: c.baseURL, Err: err}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := parseErrorMessage(data)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthenticationError{StatusCode: resp.StatusCode, Detail: message}
	}
	return &RequestError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

func validateID(field string, id int) error {
	if id <= 0 {
		return &ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return nil
}
