// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies environment variable and flag configuration, and error mapping

package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/config"
)

func TestJSONOutput(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	dir := isolate(t, "api.example.com")
	logLevel = "debug"
	defer func() { logLevel = "" }()

	cfg, gotDir, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("expected scheme added to flag URL, got %s", cfg.APIURL)
	}
	if gotDir != dir {
		t.Errorf("expected config dir %s, got %s", dir, gotDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level override, got %s", cfg.LogLevel)
	}
}

func TestLoadConfig_APIURLPrecedence(t *testing.T) {
	isolate(t, "")

	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected default URL %s, got %s", config.DefaultAPIURL, cfg.APIURL)
	}

	t.Setenv("BLOGPANEL_API_URL", "http://backend.example.com")
	cfg, _, err = loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://backend.example.com" {
		t.Errorf("expected env URL, got %s", cfg.APIURL)
	}

	apiURL = "http://flag-override.example.com"
	cfg, _, err = loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://flag-override.example.com" {
		t.Errorf("expected flag to override env, got %s", cfg.APIURL)
	}
}

func TestLoadConfig_InvalidFlagURL(t *testing.T) {
	isolate(t, "ftp://example.com")

	if _, _, err := loadConfig(); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rejected credentials", &client.AuthenticationError{StatusCode: 400}, "Invalid credentials"},
		{"forbidden", &client.AuthenticationError{StatusCode: 403}, "not authorized"},
		{"not found", &client.RequestError{StatusCode: 404, Message: "Client not found"}, "not found"},
		{"server error", &client.RequestError{StatusCode: 500, Message: "db down"}, "backend error: db down (status 500)"},
		{"validation", &client.ValidationError{Field: "slug", Message: "is required"}, "invalid slug: is required"},
		{"timeout", &client.NetworkError{Err: context.DeadlineExceeded}, "the backend took too long to respond"},
		{"canceled", &client.NetworkError{Err: context.Canceled}, "canceled"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeError(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	if exitCodeFor(nil) != exitOK {
		t.Error("expected 0 for nil")
	}
	if exitCodeFor(&client.AuthenticationError{StatusCode: 401}) != exitAuth {
		t.Error("expected 1 for auth error")
	}
	if exitCodeFor(&client.NetworkError{Err: errors.New("refused")}) != exitError {
		t.Error("expected 2 for network error")
	}
}
