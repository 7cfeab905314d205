// ABOUTME: Fake blog backend and isolation helpers for command tests
// ABOUTME: Serves the REST routes the commands call from in-memory data

package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/markalston/blogpanel/internal/client"
	"github.com/markalston/blogpanel/internal/tokenstore"
)

const (
	testToken    = "valid-token"
	testPassword = "secret"
)

type fakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	clients   []client.Tenant
	posts     []client.BlogPost
	lastQuery url.Values
	lastBody  map[string]any
	uploads   []string
}

var created = client.Timestamp{Time: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}

func newBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		clients: []client.Tenant{
			{ID: 1, Name: "Acme", Domain: "acme.com", CreatedAt: created},
			{ID: 2, Name: "Globex", Domain: "globex.io", CreatedAt: created},
		},
		posts: []client.BlogPost{
			{ID: 10, ClientID: 1, Title: "Hello world", Slug: "hello-world", Content: "First post", Status: client.StatusPublished, CreatedAt: created},
			{ID: 11, ClientID: 2, Title: "Roadmap", Slug: "roadmap", Content: "Plans", Status: client.StatusDraft, CreatedAt: created},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", b.handleToken)
	mux.HandleFunc("GET /users/me", b.authed(func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, client.User{ID: 1, Username: "admin", Email: "admin@example.com", Role: "admin", IsActive: true, CreatedAt: created})
	}))
	mux.HandleFunc("GET /clients/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.recordQuery(r)
		writeBody(w, http.StatusOK, b.clients)
	}))
	mux.HandleFunc("GET /clients/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		for _, c := range b.clients {
			if c.ID == id {
				writeBody(w, http.StatusOK, c)
				return
			}
		}
		writeBody(w, http.StatusNotFound, map[string]string{"detail": "Client not found"})
	}))
	mux.HandleFunc("POST /clients/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var in client.TenantInput
		json.NewDecoder(r.Body).Decode(&in)
		writeBody(w, http.StatusOK, client.Tenant{ID: 3, Name: in.Name, Domain: in.Domain, CreatedAt: created})
	}))
	mux.HandleFunc("GET /blogs/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.recordQuery(r)
		status := r.URL.Query().Get("status")
		out := []client.BlogPost{}
		for _, p := range b.posts {
			if status == "" || p.Status == status {
				out = append(out, p)
			}
		}
		writeBody(w, http.StatusOK, out)
	}))
	mux.HandleFunc("GET /blogs/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		if p := b.post(r); p != nil {
			writeBody(w, http.StatusOK, p)
			return
		}
		writeBody(w, http.StatusNotFound, map[string]string{"detail": "Blog post not found"})
	}))
	mux.HandleFunc("POST /blogs/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		body := b.recordBody(r)
		p := client.BlogPost{ID: 12, Status: client.StatusDraft, CreatedAt: created}
		p.Title, _ = body["title"].(string)
		if s, ok := body["status"].(string); ok {
			p.Status = s
		}
		writeBody(w, http.StatusOK, p)
	}))
	mux.HandleFunc("PUT /blogs/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		body := b.recordBody(r)
		p := b.post(r)
		if p == nil {
			writeBody(w, http.StatusNotFound, map[string]string{"detail": "Blog post not found"})
			return
		}
		updated := *p
		if title, ok := body["title"].(string); ok {
			updated.Title = title
		}
		if status, ok := body["status"].(string); ok {
			updated.Status = status
		}
		writeBody(w, http.StatusOK, updated)
	}))
	mux.HandleFunc("DELETE /blogs/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		if b.post(r) == nil {
			writeBody(w, http.StatusNotFound, map[string]string{"detail": "Blog post not found"})
			return
		}
		writeBody(w, http.StatusOK, map[string]string{"message": "Blog post deleted successfully"})
	}))
	mux.HandleFunc("POST /upload/", b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			writeBody(w, http.StatusBadRequest, map[string]string{"detail": "No file"})
			return
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, header.Filename)
		b.mu.Unlock()
		writeBody(w, http.StatusOK, client.UploadResult{
			Filename: "abc123_" + header.Filename,
			URL:      "/uploads/abc123_" + header.Filename,
			Message:  "File uploaded successfully",
		})
	}))

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil ||
		r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != testPassword {
		writeBody(w, http.StatusBadRequest, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	writeBody(w, http.StatusOK, client.TokenResponse{AccessToken: testToken, TokenType: "bearer"})
}

func (b *fakeBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeBody(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) post(r *http.Request) *client.BlogPost {
	id, _ := strconv.Atoi(r.PathValue("id"))
	for i := range b.posts {
		if b.posts[i].ID == id {
			return &b.posts[i]
		}
	}
	return nil
}

func (b *fakeBackend) recordQuery(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastQuery = r.URL.Query()
}

func (b *fakeBackend) recordBody(r *http.Request) map[string]any {
	data, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	json.Unmarshal(data, &body)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastBody = body
	return body
}

func writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// isolate points the commands at backendURL with a private config dir and
// returns that dir. Global flags are restored afterwards.
func isolate(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BLOGPANEL_ENV_FILE", dir+"/missing.env")
	t.Setenv("BLOGPANEL_API_URL", "")
	t.Setenv("BLOGPANEL_USERNAME", "")
	t.Setenv("BLOGPANEL_CONFIG_DIR", "")

	prevLog := logOutput
	logOutput = io.Discard
	apiURL, configDir, jsonOutput = backendURL, dir, false
	t.Cleanup(func() {
		logOutput = prevLog
		apiURL, configDir, jsonOutput = "", "", false
		noPersist = false
	})
	return dir
}

// loggedIn persists a token in dir as a previous login would have
func loggedIn(t *testing.T, dir, token string) {
	t.Helper()
	if err := tokenstore.New(dir).Save(token); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
}

func savedToken(t *testing.T, dir string) string {
	t.Helper()
	tok, err := tokenstore.New(dir).Load()
	if err != nil {
		t.Fatalf("failed to load token: %v", err)
	}
	return tok
}
