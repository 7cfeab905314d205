// ABOUTME: Shared wiring for commands: config, API client and session store
// ABOUTME: Also maps client errors to messages and exit codes

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/config"
	"github.com/markalston/blogpanel/internal/logger"
	"github.com/markalston/blogpanel/internal/session"
	"github.com/markalston/blogpanel/internal/tokenstore"
)

// Exit codes
const (
	exitOK    = 0
	exitAuth  = 1 // not logged in, or the backend rejected the credentials or token
	exitError = 2
)

// env is everything a command needs to talk to the backend
type env struct {
	cfg    *config.Config
	dir    string
	api    *client.Client
	tokens session.TokenStore
	store  *session.Store
	logger *slog.Logger
}

// loadConfig reads configuration and applies global flag overrides. It also
// resolves the config directory the session and debug log live in.
func loadConfig() (*config.Config, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	if apiURL != "" {
		cfg.APIURL = config.EnsureScheme(apiURL)
		if err := config.ValidateAPIURL(cfg.APIURL); err != nil {
			return nil, "", fmt.Errorf("--api-url: %w", err)
		}
	}
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	dir := cfg.ConfigDir
	if dir == "" {
		dir = tokenstore.DefaultConfigDir()
	}
	if dir == "" {
		return nil, "", errors.New("cannot determine config directory; set BLOGPANEL_CONFIG_DIR")
	}
	return cfg, dir, nil
}

// newEnv builds the client and session store. Logs go to logOut.
func newEnv(cfg *config.Config, dir string, logOut io.Writer) *env {
	log := logger.Init(logOut, cfg.LogLevel, cfg.LogFormat)
	var tokens session.TokenStore = tokenstore.New(dir)
	if noPersist {
		tokens = tokenstore.NewMemory()
	}

	// The client reads the bearer token from the store it feeds
	var store *session.Store
	api := client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		client.WithMaxUploadBytes(cfg.MaxUploadBytes),
		client.WithLogger(log),
		client.WithTokenSource(client.TokenSourceFunc(func() string { return store.Token() })),
	)
	store = session.New(api, tokens, session.WithLogger(log))

	return &env{cfg: cfg, dir: dir, api: api, tokens: tokens, store: store, logger: log}
}

// setup builds the env for a command, reporting failures to w
func setup(w io.Writer) (*env, int) {
	cfg, dir, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, exitError
	}
	return newEnv(cfg, dir, logOutput), exitOK
}

// requireSession restores the persisted session and fails unless it is valid
func requireSession(ctx context.Context, w io.Writer, e *env) int {
	if err := e.store.Init(ctx); err != nil {
		fmt.Fprintf(w, "Error: %s\n", describeError(err))
		return exitCodeFor(err)
	}
	if session.Route(e.store.State(), session.ViewDashboard) != session.ViewDashboard {
		if snap := e.store.Snapshot(); snap.Err != nil {
			fmt.Fprintln(w, "Session expired. Run 'blogpanel login' to sign in again.")
		} else {
			fmt.Fprintln(w, "Not logged in. Run 'blogpanel login' first.")
		}
		return exitAuth
	}
	return exitOK
}

// fail reports an API error. A rejected token also ends the persisted session.
func fail(w io.Writer, e *env, err error) int {
	if client.IsAuthError(err) {
		e.store.Invalidate(err)
		fmt.Fprintln(w, "Session expired. Run 'blogpanel login' to sign in again.")
		return exitAuth
	}
	fmt.Fprintf(w, "Error: %s\n", describeError(err))
	return exitCodeFor(err)
}

// describeError turns a client error into a one-line message
func describeError(err error) string {
	var authErr *client.AuthenticationError
	var reqErr *client.RequestError
	var netErr *client.NetworkError
	var valErr *client.ValidationError
	switch {
	case errors.As(err, &authErr):
		if authErr.StatusCode == 403 {
			return "not authorized"
		}
		return client.InvalidCredentialsMessage
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "the backend took too long to respond"
		}
		if netErr.Canceled() {
			return "canceled"
		}
		return netErr.Error()
	case errors.As(err, &reqErr):
		if reqErr.StatusCode == 404 {
			return "not found"
		}
		return reqErr.Error()
	default:
		return err.Error()
	}
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case client.IsAuthError(err):
		return exitAuth
	default:
		return exitError
	}
}

// writeJSON pretty-prints v
func writeJSON(w io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(w, string(data))
	return exitOK
}
