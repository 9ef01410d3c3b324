package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// IdentityClient resolves users and roles from the identity service over
// HTTP. It implements service.IdentityClientInterface.
type IdentityClient struct {
	baseURL string
	http    *http.Client
}

// NewIdentityClient creates a client for the identity service.
func NewIdentityClient(baseURL string) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type userRolesResponse struct {
	Roles []string `json:"roles"`
}

type usersWithRoleResponse struct {
	UserIDs []string `json:"user_ids"`
}

// GetUserRoles returns the role tags a user holds.
func (c *IdentityClient) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	var resp userRolesResponse
	path := fmt.Sprintf("/api/v1/users/roles?user_id=%s", url.QueryEscape(userID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	return resp.Roles, nil
}

// GetUsersWithRole returns the user IDs holding a role. Used to resolve
// notification recipients when a claim arrives at a step.
func (c *IdentityClient) GetUsersWithRole(ctx context.Context, role string) ([]string, error) {
	var resp usersWithRoleResponse
	path := fmt.Sprintf("/api/v1/users/by-role?role=%s", url.QueryEscape(role))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get users with role: %w", err)
	}
	return resp.UserIDs, nil
}

func (c *IdentityClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("identity service returned status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
