// ABOUTME: Wire types for the Blog Panel REST API
// ABOUTME: Users, tenants (clients), blog posts, uploads and auth payloads

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Known blog post status values. The backend owns the full set.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Timestamp decodes the backend's datetimes, which may or may not carry a zone.
// Values without a zone are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// User is the identity record returned by GET /users/me
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

// Credentials are exchanged once for a bearer token and never stored
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// TokenResponse is the body of POST /token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Tenant is a blog-hosting client (the backend calls these "clients")
type Tenant struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt Timestamp `json:"created_at"`
}

// TenantInput is the payload for POST /clients/
type TenantInput struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// ListClientsParams filters GET /clients/
type ListClientsParams struct {
	Skip  int
	Limit int
}

func (p *ListClientsParams) values() url.Values {
	v := url.Values{}
	if p == nil {
		return v
	}
	if p.Skip > 0 {
		v.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

// BlogPost is a post as returned by the backend
type BlogPost struct {
	ID              int        `json:"id"`
	ClientID        int        `json:"client_id"`
	AuthorID        int        `json:"author_id"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Tags            string     `json:"tags,omitempty"`
	Category        string     `json:"category,omitempty"`
	FeaturedImage   string     `json:"featured_image,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	Slug            string     `json:"slug"`
	Status          string     `json:"status"`
	CreatedAt       Timestamp  `json:"created_at"`
	UpdatedAt       *Timestamp `json:"updated_at,omitempty"`
	Client          *Tenant    `json:"client,omitempty"`
	Author          *User      `json:"author,omitempty"`
}

// BlogPostInput is the payload for POST /blogs/.
// An empty Status lets the backend apply its default (draft).
type BlogPostInput struct {
	ClientID        int    `json:"client_id"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	Slug            string `json:"slug"`
	Tags            string `json:"tags,omitempty"`
	Category        string `json:"category,omitempty"`
	FeaturedImage   string `json:"featured_image,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	Status          string `json:"status,omitempty"`
}

// BlogPostUpdate is a partial update for PUT /blogs/{id}. Nil fields are not sent.
type BlogPostUpdate struct {
	Title           *string `json:"title,omitempty"`
	Content         *string `json:"content,omitempty"`
	Tags            *string `json:"tags,omitempty"`
	Category        *string `json:"category,omitempty"`
	FeaturedImage   *string `json:"featured_image,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
	Slug            *string `json:"slug,omitempty"`
	Status          *string `json:"status,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u BlogPostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.Tags == nil && u.Category == nil &&
		u.FeaturedImage == nil && u.MetaDescription == nil && u.Slug == nil && u.Status == nil
}

// ListPostsParams filters GET /blogs/. Zero values are left out of the query.
type ListPostsParams struct {
	Skip     int
	Limit    int
	ClientID int
	Status   string
	Search   string
}

func (p *ListPostsParams) values() url.Values {
	v := url.Values{}
	if p == nil {
		return v
	}
	if p.Skip > 0 {
		v.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.ClientID > 0 {
		v.Set("client_id", strconv.Itoa(p.ClientID))
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	return v
}

// UploadResult is the body of POST /upload/
type UploadResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Message  string `json:"message,omitempty"`
}

// MessageResponse is a bare acknowledgement such as the DELETE /blogs/{id} body
type MessageResponse struct {
	Message string `json:"message"`
}

// String is a convenience for building BlogPostUpdate values
func String(s string) *string {
	return &s
}
