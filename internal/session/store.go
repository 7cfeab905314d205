// ABOUTME: Process-wide session store holding the bearer token and current user
// ABOUTME: Drives startup validation, login, logout and mid-session invalidation

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/blogpanel/internal/client"
)

// Authenticator is the slice of the API client the store needs
type Authenticator interface {
	Login(ctx context.Context, creds client.Credentials) (*client.TokenResponse, error)
	CurrentUser(ctx context.Context) (*client.User, error)
}

// TokenStore is durable storage for the bearer token
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Snapshot is a consistent view of the store at one moment
type Snapshot struct {
	State   State
	User    *client.User
	Pending bool
	// Err is why the session last ended or failed to start, if it did
	Err error
}

// Store is safe for concurrent use. Network calls run without the lock held.
type Store struct {
	api    Authenticator
	tokens TokenStore
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	state        State
	initializing bool
	loggingIn    bool
	token        string
	user         *client.User
	lastErr      error
	listeners    map[int]func(Snapshot)
	nextListener int
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store's logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store in the Loading state
func New(api Authenticator, tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		api:       api,
		tokens:    tokens,
		logger:    slog.Default(),
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init resolves the Loading state from the persisted token.
// A rejected or expired token is purged. A token that could not be checked
// because the backend was unreachable is kept and the error returned.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Loading || s.initializing {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initializing = true
	s.mu.Unlock()

	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("could not read persisted session", "error", err)
		token = ""
	}

	if token == "" {
		s.finishInit(nil, nil)
		return nil
	}

	if tokenExpired(token, s.now()) {
		s.logger.Info("persisted token expired, discarding")
		s.clearStorage()
		s.finishInit(nil, errors.New("session expired"))
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx)
	switch {
	case err == nil:
		s.logger.Info("session restored", "user", user.Username)
		s.finishInit(user, nil)
		return nil
	case client.IsAuthError(err):
		s.logger.Info("persisted token rejected, discarding", "error", err)
		s.clearStorage()
		s.finishInit(nil, err)
		return nil
	default:
		s.logger.Warn("could not validate persisted token", "error", err)
		s.finishInit(nil, err)
		return err
	}
}

func (s *Store) finishInit(user *client.User, reason error) {
	s.mu.Lock()
	s.initializing = false
	if user != nil {
		s.user = user
		s.state = Authenticated
	} else {
		s.token = ""
		s.user = nil
		s.state = Unauthenticated
	}
	s.lastErr = reason
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
}

// Login exchanges credentials for a token, persists it and loads the user.
// On any failure nothing is held or stored and the state stays Unauthenticated.
func (s *Store) Login(ctx context.Context, creds client.Credentials) (*client.User, error) {
	s.mu.Lock()
	switch {
	case s.loggingIn:
		s.mu.Unlock()
		return nil, ErrLoginInProgress
	case s.state == Loading:
		s.mu.Unlock()
		return nil, ErrNotInitialized
	case s.state == Authenticated:
		s.mu.Unlock()
		return nil, ErrAlreadyAuthenticated
	}
	s.loggingIn = true
	s.lastErr = nil
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)

	tok, err := s.api.Login(ctx, creds)
	if err != nil {
		s.failLogin(err)
		return nil, err
	}

	s.mu.Lock()
	s.token = tok.AccessToken
	s.mu.Unlock()

	if err := s.tokens.Save(tok.AccessToken); err != nil {
		err = fmt.Errorf("persist session: %w", err)
		s.failLogin(err)
		return nil, err
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.failLogin(err)
		return nil, err
	}

	s.mu.Lock()
	s.loggingIn = false
	s.user = user
	s.state = Authenticated
	snap, listeners = s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)

	s.logger.Info("logged in", "user", user.Username, "role", user.Role)
	return copyUser(user), nil
}

func (s *Store) failLogin(err error) {
	s.mu.Lock()
	s.loggingIn = false
	s.token = ""
	s.lastErr = err
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	s.clearStorage()
	s.logger.Info("login failed", "kind", client.KindOf(err))
	notify(listeners, snap)
}

// Logout ends the session and clears storage. It is a no-op on an
// already logged-out store, except that storage is still cleared.
func (s *Store) Logout() error {
	s.mu.Lock()
	switch s.state {
	case Loading:
		s.mu.Unlock()
		return ErrInvalidTransition
	case Unauthenticated:
		pending := s.loggingIn
		s.mu.Unlock()
		if pending {
			return nil
		}
		return s.tokens.Clear()
	}
	s.end(nil)
	s.logger.Info("logged out")
	return s.tokens.Clear()
}

// Invalidate ends an active session because the backend rejected the token
func (s *Store) Invalidate(reason error) {
	s.mu.Lock()
	if s.state != Authenticated {
		s.mu.Unlock()
		return
	}
	s.end(reason)
	s.logger.Info("session invalidated", "error", reason)
	s.clearStorage()
}

// end moves Authenticated -> Unauthenticated. Called with s.mu held; unlocks it.
func (s *Store) end(reason error) {
	if err := s.setStateLocked(Unauthenticated); err != nil {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.user = nil
	s.lastErr = reason
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)
}

func (s *Store) setStateLocked(to State) error {
	if !canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Store) clearStorage() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("could not clear persisted session", "error", err)
	}
}

// State returns the current lifecycle state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the current user, or nil unless Authenticated
func (s *Store) User() *client.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return nil
	}
	return copyUser(s.user)
}

// Token returns the bearer token held in memory. It implements client.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether State is Authenticated
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Snapshot returns state, user, pending flag and last error together
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every change. The returned func unregisters it.
// fn runs on the goroutine that made the change, after the lock is released.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Pending: s.loggingIn || s.initializing, Err: s.lastErr}
	if s.state == Authenticated {
		snap.User = copyUser(s.user)
	}
	return snap
}

func (s *Store) listenersLocked() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func copyUser(u *client.User) *client.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// tokenExpired reads exp from a JWT without verifying it. Opaque tokens are
// never considered expired here; the backend decides.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}
