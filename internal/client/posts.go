// ABOUTME: Blog post endpoints of the Blog Panel API
// ABOUTME: Filtered listing plus get, create, partial update and delete

package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// ListPosts calls GET /blogs/ with the given filters. Backend order is preserved.
func (c *Client) ListPosts(ctx context.Context, params *ListPostsParams) ([]BlogPost, error) {
	var posts []BlogPost
	if err := c.getJSON(ctx, "/blogs/", params.values(), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost calls GET /blogs/{id}
func (c *Client) GetPost(ctx context.Context, id int) (*BlogPost, error) {
	if err := validateID("post id", id); err != nil {
		return nil, err
	}
	var post BlogPost
	if err := c.getJSON(ctx, postPath(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost calls POST /blogs/
func (c *Client) CreatePost(ctx context.Context, input BlogPostInput) (*BlogPost, error) {
	if err := validateID("client id", input.ClientID); err != nil {
		return nil, err
	}
	for _, f := range []struct{ name, value string }{
		{"title", input.Title},
		{"content", input.Content},
		{"slug", input.Slug},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, &ValidationError{Field: f.name, Message: "is required"}
		}
	}

	var post BlogPost
	if err := c.sendJSON(ctx, http.MethodPost, "/blogs/", input, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost calls PUT /blogs/{id} with only the fields set in update
func (c *Client) UpdatePost(ctx context.Context, id int, update BlogPostUpdate) (*BlogPost, error) {
	if err := validateID("post id", id); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, &ValidationError{Field: "update", Message: "no fields to change"}
	}

	var post BlogPost
	if err := c.sendJSON(ctx, http.MethodPut, postPath(id), update, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost calls DELETE /blogs/{id}
func (c *Client) DeletePost(ctx context.Context, id int) (*MessageResponse, error) {
	if err := validateID("post id", id); err != nil {
		return nil, err
	}
	var msg MessageResponse
	if err := c.do(ctx, http.MethodDelete, postPath(id), nil, nil, "", &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func postPath(id int) string {
	return "/blogs/" + strconv.Itoa(id)
}
