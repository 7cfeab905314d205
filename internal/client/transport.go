// ABOUTME: Outbound request interceptor for the API client
// ABOUTME: Attaches the bearer token and a request ID, logs each round trip

package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries a per-request ULID for correlating client and backend logs
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the current bearer token, or "" when there is none
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func() string

// Token implements TokenSource
func (f TokenSourceFunc) Token() string {
	return f()
}

// StaticToken is a fixed token, mostly useful in tests and scripts
type StaticToken string

// Token implements TokenSource
func (s StaticToken) Token() string {
	return string(s)
}

// transport wraps a base RoundTripper and decorates every request
type transport struct {
	base   http.RoundTripper
	tokens TokenSource
	logger *slog.Logger
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	authenticated := false
	if t.tokens != nil {
		if token := t.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = ulid.Make().String()
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		t.logger.Debug("API request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", requestID,
			"authenticated", authenticated,
			"duration", elapsed,
			"error", err)
		return nil, err
	}

	t.logger.Debug("API request",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", requestID,
		"authenticated", authenticated,
		"status", resp.StatusCode,
		"duration", elapsed)
	return resp, nil
}
