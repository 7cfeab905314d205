// ABOUTME: Error taxonomy for Blog Panel API calls
// ABOUTME: Authentication, request, network and local validation failures

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// InvalidCredentialsMessage is what users see for any authentication failure
const InvalidCredentialsMessage = "Invalid credentials"

// Kind classifies an error returned by the client
type Kind int

const (
	KindNone Kind = iota
	KindAuthentication
	KindRequest
	KindNetwork
	KindValidation
	KindUnknown
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthentication:
		return "authentication"
	case KindRequest:
		return "request"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// AuthenticationError means the backend rejected the credentials or the token
type AuthenticationError struct {
	StatusCode int
	Detail     string
}

func (e *AuthenticationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("authentication failed (status %d)", e.StatusCode)
}

// RequestError is any other non-2xx response, or an undecodable 2xx body
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: %s (status %d)", e.Message, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NetworkError is a transport failure: refused connection, timeout or cancellation
type NetworkError struct {
	Method  string
	Path    string
	BaseURL string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Canceled():
		return "request canceled"
	case e.Timeout():
		return "request timed out"
	default:
		return fmt.Sprintf("cannot connect to backend at %s: %v", e.BaseURL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request hit a deadline
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Canceled reports whether the caller canceled the request
func (e *NetworkError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// ValidationError rejects input locally; nothing was sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// KindOf classifies err
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var authErr *AuthenticationError
	var reqErr *RequestError
	var netErr *NetworkError
	var valErr *ValidationError
	switch {
	case errors.As(err, &authErr):
		return KindAuthentication
	case errors.As(err, &valErr):
		return KindValidation
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &reqErr):
		return KindRequest
	default:
		return KindUnknown
	}
}

// IsAuthError reports whether err is an AuthenticationError
func IsAuthError(err error) bool {
	return KindOf(err) == KindAuthentication
}

// errorBody covers FastAPI's {"detail": ...} and the plain {"error": ...} shape
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// parseErrorMessage extracts a human message from an error response body
func parseErrorMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
		// Validation errors arrive as a list of {loc, msg, type}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if len(item.Loc) > 0 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
				} else {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return body.Error
}
