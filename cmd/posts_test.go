// ABOUTME: Tests for the posts commands
// ABOUTME: Verifies filters, partial updates and deletion against a fake backend

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/markalston/blogpanel/internal/client"
)

func TestPostsList_Filters(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	exitCode := runPostsList(context.Background(), &buf, &client.ListPostsParams{Status: client.StatusDraft, Limit: 10})

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if got := backend.lastQuery.Encode(); got != "limit=10&status=draft" {
		t.Errorf("unexpected query %q", got)
	}
	if !strings.Contains(buf.String(), "Roadmap") || strings.Contains(buf.String(), "Hello world") {
		t.Errorf("expected only draft posts: %s", buf.String())
	}
}

func TestPostsGet(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	if exitCode := runPostsGet(context.Background(), &buf, "10"); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	for _, want := range []string{"Title:    Hello world", "Slug:     hello-world", "First post"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf.String())
		}
	}
}

func TestPostsCreate(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	exitCode := runPostsCreate(context.Background(), &buf, client.BlogPostInput{
		ClientID: 1,
		Title:    "Launch",
		Content:  "We launched",
		Slug:     "launch",
	})

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "Created post 12: Launch [draft]") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if _, sent := backend.lastBody["status"]; sent {
		t.Error("expected status left to the backend default")
	}
}

func TestPostsCreate_MissingContent(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	exitCode := runPostsCreate(context.Background(), &buf, client.BlogPostInput{ClientID: 1, Title: "T", Slug: "t"})

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "invalid content") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if backend.lastBody != nil {
		t.Error("expected nothing sent")
	}
}

// newUpdateCmd returns a fresh command carrying the post field flags
func newUpdateCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "update"}
	addPostFlags(c)
	if err := c.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	t.Cleanup(func() {
		postTitle, postSlug, postContent, postContentFile = "", "", "", ""
		postTags, postCategory, postFeaturedImage, postMetaDescription, postStatus = "", "", "", "", ""
	})
	return c
}

func TestUpdateFromFlags_OnlyChanged(t *testing.T) {
	c := newUpdateCmd(t, "--title", "New title", "--tags", "")

	u, err := updateFromFlags(c, strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Title == nil || *u.Title != "New title" {
		t.Errorf("expected title set, got %v", u.Title)
	}
	if u.Tags == nil || *u.Tags != "" {
		t.Error("expected explicitly emptied tags to be sent")
	}
	if u.Content != nil || u.Status != nil || u.Slug != nil {
		t.Error("expected untouched fields to stay nil")
	}
}

func TestUpdateFromFlags_ContentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.md")
	if err := os.WriteFile(path, []byte("# Body\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := newUpdateCmd(t, "--content-file", path)

	u, err := updateFromFlags(c, strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Content == nil || *u.Content != "# Body\n" {
		t.Errorf("expected content from file, got %v", u.Content)
	}
}

func TestReadContent(t *testing.T) {
	if got, _ := readContent("inline", "", nil); got != "inline" {
		t.Errorf("expected inline content, got %q", got)
	}
	if got, _ := readContent("", "-", strings.NewReader("from stdin")); got != "from stdin" {
		t.Errorf("expected stdin content, got %q", got)
	}
	if _, err := readContent("", filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPostsUpdate(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	exitCode := runPostsUpdate(context.Background(), &buf, "11", client.BlogPostUpdate{Status: client.String(client.StatusPublished)})

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "Updated post 11: Roadmap [published]") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if len(backend.lastBody) != 1 || backend.lastBody["status"] != "published" {
		t.Errorf("expected only status sent, got %v", backend.lastBody)
	}
}

func TestPostsUpdate_NothingToChange(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	if exitCode := runPostsUpdate(context.Background(), &buf, "11", client.BlogPostUpdate{}); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "no fields to change") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestPostsDelete(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	var buf bytes.Buffer
	if exitCode := runPostsDelete(context.Background(), &buf, "10"); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "deleted successfully") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	if exitCode := runPostsDelete(context.Background(), &buf, "404"); exitCode != 2 {
		t.Errorf("expected exit code 2 for a missing post, got %d", exitCode)
	}
}

func TestPostsDelete_SessionExpired(t *testing.T) {
	backend := newBackend(t)
	dir := isolate(t, backend.URL)
	loggedIn(t, dir, testToken)

	// The token is accepted at startup, then revoked before the delete
	var buf bytes.Buffer
	e, _ := setup(&buf)
	if code := requireSession(context.Background(), &buf, e); code != 0 {
		t.Fatalf("expected valid session, got %d", code)
	}
	exitCode := fail(&buf, e, &client.AuthenticationError{StatusCode: 401})

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if savedToken(t, dir) != "" {
		t.Error("expected session cleared after rejection")
	}
	if e.store.IsAuthenticated() {
		t.Error("expected store to leave Authenticated")
	}
}
