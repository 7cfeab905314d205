// ABOUTME: Tenant (client) endpoints of the Blog Panel API
// ABOUTME: List, get and create; tenants are never updated from this side

package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// ListClients calls GET /clients/
func (c *Client) ListClients(ctx context.Context, params *ListClientsParams) ([]Tenant, error) {
	var tenants []Tenant
	if err := c.getJSON(ctx, "/clients/", params.values(), &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// GetClient calls GET /clients/{id}
func (c *Client) GetClient(ctx context.Context, id int) (*Tenant, error) {
	if err := validateID("client id", id); err != nil {
		return nil, err
	}
	var tenant Tenant
	if err := c.getJSON(ctx, "/clients/"+strconv.Itoa(id), nil, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// CreateClient calls POST /clients/. The backend assigns id and created_at.
func (c *Client) CreateClient(ctx context.Context, input TenantInput) (*Tenant, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Domain = strings.TrimSpace(input.Domain)
	if input.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if input.Domain == "" {
		return nil, &ValidationError{Field: "domain", Message: "is required"}
	}

	var tenant Tenant
	if err := c.sendJSON(ctx, http.MethodPost, "/clients/", input, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}
