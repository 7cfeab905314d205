// ABOUTME: Authentication endpoints of the Blog Panel API
// ABOUTME: Credential exchange at POST /token and current user lookup

package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Login exchanges credentials for a bearer token via the OAuth2 password form.
// A rejected credential pair is always an *AuthenticationError.
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	if strings.TrimSpace(creds.Username) == "" {
		return nil, &ValidationError{Field: "username", Message: "is required"}
	}
	if creds.Password == "" {
		return nil, &ValidationError{Field: "password", Message: "is required"}
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {strings.TrimSpace(creds.Username)},
		"password":   {creds.Password},
	}

	var tok TokenResponse
	err := c.do(ctx, http.MethodPost, "/token", nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &tok)
	if err != nil {
		// Token endpoints commonly answer bad credentials with 400
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusBadRequest {
			return nil, &AuthenticationError{StatusCode: reqErr.StatusCode, Detail: reqErr.Message}
		}
		return nil, err
	}

	if tok.AccessToken == "" {
		return nil, &RequestError{
			Method:     http.MethodPost,
			Path:       "/token",
			StatusCode: http.StatusOK,
			Message:    "response has no access_token",
		}
	}
	if tok.TokenType != "" && !strings.EqualFold(tok.TokenType, "bearer") {
		return nil, &RequestError{
			Method:     http.MethodPost,
			Path:       "/token",
			StatusCode: http.StatusOK,
			Message:    "unsupported token type " + tok.TokenType,
		}
	}
	return &tok, nil
}

// CurrentUser calls GET /users/me. It succeeds only with a valid token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
