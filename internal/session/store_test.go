// ABOUTME: Tests for the session store lifecycle
// ABOUTME: Uses a fake authenticator and a real client against httptest backends

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tokenstore"
)

type fakeAPI struct {
	mu         sync.Mutex
	validToken string
	password   string
	loginErr   error
	userErr    error
	loginGate  chan struct{}
	userCalls  int
	loginCalls int
}

func (f *fakeAPI) Login(ctx context.Context, creds client.Credentials) (*client.TokenResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	gate := f.loginGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if creds.Password != f.password {
		return nil, &client.AuthenticationError{StatusCode: http.StatusUnauthorized, Detail: "Incorrect username or password"}
	}
	return &client.TokenResponse{AccessToken: f.validToken, TokenType: "bearer"}, nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*client.User, error) {
	f.mu.Lock()
	f.userCalls++
	f.mu.Unlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &client.User{ID: 1, Username: "admin", Role: "admin", IsActive: true}, nil
}

func newStore(t *testing.T, api Authenticator, tokens TokenStore, opts ...Option) *Store {
	t.Helper()
	s := New(api, tokens, opts...)
	require.Equal(t, Loading, s.State())
	return s
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestInit_NoToken(t *testing.T) {
	api := &fakeAPI{}
	s := newStore(t, api, tokenstore.NewMemory())

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, Unauthenticated, s.State())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
	assert.Zero(t, api.userCalls, "no token means no validation call")
}

func TestInit_ValidToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save("T1"))
	s := newStore(t, &fakeAPI{}, tokens)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, Authenticated, s.State())
	require.NotNil(t, s.User())
	assert.Equal(t, "admin", s.User().Username)
	assert.Equal(t, "T1", s.Token())
}

func TestInit_RejectedTokenIsPurged(t *testing.T) {
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save("stale"))
	api := &fakeAPI{userErr: &client.AuthenticationError{StatusCode: http.StatusUnauthorized}}
	s := newStore(t, api, tokens)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, Unauthenticated, s.State())
	assert.Empty(t, s.Token())
	stored, _ := tokens.Load()
	assert.Empty(t, stored, "rejected token must be purged")
	assert.True(t, client.IsAuthError(s.Snapshot().Err))
}

func TestInit_ExpiredJWTPurgedWithoutNetwork(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save(signedToken(t, now.Add(-time.Minute))))
	api := &fakeAPI{}
	s := newStore(t, api, tokens, WithClock(func() time.Time { return now }))

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, Unauthenticated, s.State())
	assert.Zero(t, api.userCalls)
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestInit_UnexpiredJWTIsValidated(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save(signedToken(t, now.Add(time.Hour))))
	api := &fakeAPI{}
	s := newStore(t, api, tokens, WithClock(func() time.Time { return now }))

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 1, api.userCalls)
}

func TestInit_NetworkFailureKeepsToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save("T1"))
	netErr := &client.NetworkError{BaseURL: "http://127.0.0.1:1", Err: errors.New("connection refused")}
	s := newStore(t, &fakeAPI{userErr: netErr}, tokens)

	err := s.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, client.KindNetwork, client.KindOf(err))
	assert.Equal(t, Unauthenticated, s.State())
	assert.Empty(t, s.Token())
	stored, _ := tokens.Load()
	assert.Equal(t, "T1", stored, "unverified token is kept for the next run")
}

func TestInit_Twice(t *testing.T) {
	s := newStore(t, &fakeAPI{}, tokenstore.NewMemory())
	require.NoError(t, s.Init(context.Background()))
	assert.ErrorIs(t, s.Init(context.Background()), ErrAlreadyInitialized)
}

func TestLogin_Success(t *testing.T) {
	tokens := tokenstore.NewMemory()
	s := newStore(t, &fakeAPI{validToken: "T1", password: "admin123"}, tokens)
	require.NoError(t, s.Init(context.Background()))

	user, err := s.Login(context.Background(), client.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "T1", s.Token())
	stored, _ := tokens.Load()
	assert.Equal(t, "T1", stored)
}

func TestLogin_RejectedCredentials(t *testing.T) {
	tokens := tokenstore.NewMemory()
	s := newStore(t, &fakeAPI{validToken: "T1", password: "admin123"}, tokens)
	require.NoError(t, s.Init(context.Background()))

	_, err := s.Login(context.Background(), client.Credentials{Username: "admin", Password: "nope"})
	var authErr *client.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, Unauthenticated, s.State())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestLogin_UserLookupFailureDiscardsToken(t *testing.T) {
	tokens := tokenstore.NewMemory()
	api := &fakeAPI{validToken: "T1", password: "pw", userErr: &client.RequestError{StatusCode: 500}}
	s := newStore(t, api, tokens)
	require.NoError(t, s.Init(context.Background()))

	_, err := s.Login(context.Background(), client.Credentials{Username: "admin", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, Unauthenticated, s.State())
	assert.Empty(t, s.Token())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestLogin_Guards(t *testing.T) {
	api := &fakeAPI{validToken: "T1", password: "pw"}
	s := newStore(t, api, tokenstore.NewMemory())

	_, err := s.Login(context.Background(), client.Credentials{Username: "admin", Password: "pw"})
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, s.Init(context.Background()))
	_, err = s.Login(context.Background(), client.Credentials{Username: "admin", Password: "pw"})
	require.NoError(t, err)

	_, err = s.Login(context.Background(), client.Credentials{Username: "admin", Password: "pw"})
	assert.ErrorIs(t, err, ErrAlreadyAuthenticated)
}

func TestLogin_ConcurrentAttemptRejected(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{validToken: "T1", password: "pw", loginGate: gate}
	s := newStore(t, api, tokenstore.NewMemory())
	require.NoError(t, s.Init(context.Background()))

	pending := make(chan struct{})
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		if snap.Pending {
			close(pending)
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), client.Credentials{Username: "admin", Password: "pw"})
		done <- err
	}()
	<-pending
	unsubscribe()

	_, err := s.Login(context.Background(), client.Credentials{Username: "admin", Password: "pw"})
	assert.ErrorIs(t, err, ErrLoginInProgress)
	assert.NoError(t, s.Logout(), "logout during a pending login is a no-op")

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 1, api.loginCalls)
}

func TestLogout_Idempotent(t *testing.T) {
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save("T1"))
	s := newStore(t, &fakeAPI{}, tokens)

	assert.ErrorIs(t, s.Logout(), ErrInvalidTransition, "logout while loading")

	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, Authenticated, s.State())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Logout())
		assert.Equal(t, Unauthenticated, s.State())
		assert.Nil(t, s.User())
		assert.Empty(t, s.Token())
	}
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestInvalidate(t *testing.T) {
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save("T1"))
	s := newStore(t, &fakeAPI{}, tokens)

	reason := &client.AuthenticationError{StatusCode: http.StatusUnauthorized}
	s.Invalidate(reason)
	assert.Equal(t, Loading, s.State(), "invalidate before init is ignored")

	require.NoError(t, s.Init(context.Background()))

	var seen []Snapshot
	s.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })

	s.Invalidate(reason)
	assert.Equal(t, Unauthenticated, s.State())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)

	require.Len(t, seen, 1)
	assert.Equal(t, Unauthenticated, seen[0].State)
	assert.Same(t, reason, seen[0].Err)

	s.Invalidate(reason)
	assert.Len(t, seen, 1, "second invalidate changes nothing")
}

func TestUserIsCopy(t *testing.T) {
	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.Save("T1"))
	s := newStore(t, &fakeAPI{}, tokens)
	require.NoError(t, s.Init(context.Background()))

	u := s.User()
	u.Username = "mallory"
	assert.Equal(t, "admin", s.User().Username)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Loading, Authenticated, true},
		{Loading, Unauthenticated, true},
		{Unauthenticated, Authenticated, true},
		{Authenticated, Unauthenticated, true},
		{Unauthenticated, Loading, false},
		{Authenticated, Loading, false},
		{Authenticated, Authenticated, false},
		{Unauthenticated, Unauthenticated, false},
		{Loading, Loading, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRoundTrip_WithBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			r.ParseForm()
			if r.PostForm.Get("password") != "admin123" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Incorrect username or password"}`))
				return
			}
			w.Write([]byte(`{"access_token":"T1","token_type":"bearer"}`))
		case "/users/me":
			if r.Header.Get("Authorization") != "Bearer T1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				return
			}
			w.Write([]byte(`{"id":1,"username":"admin","email":"admin@example.com","role":"admin","is_active":true,"created_at":"2024-01-01T00:00:00"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	build := func() *Store {
		var s *Store
		api := client.New(server.URL, client.WithTokenSource(client.TokenSourceFunc(func() string { return s.Token() })))
		s = New(api, tokenstore.New(dir))
		return s
	}

	first := build()
	require.NoError(t, first.Init(context.Background()))
	_, err := first.Login(context.Background(), client.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	second := build()
	require.NoError(t, second.Init(context.Background()))
	assert.Equal(t, Authenticated, second.State())
	assert.Equal(t, first.User(), second.User())

	// A token the backend no longer accepts is dropped on the next start
	require.NoError(t, tokenstore.New(dir).Save("revoked"))
	third := build()
	require.NoError(t, third.Init(context.Background()))
	assert.Equal(t, Unauthenticated, third.State())
	stored, _ := tokenstore.New(dir).Load()
	assert.Empty(t, stored)
}
