// Package workspaces manages the logical workspaces queries run against:
// the REST operations plus the interactive pickers the commands use.
package workspaces

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fathomhq/fathom-cli/internal/api"
)

// Workspace is one logical workspace within an organization.
type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OrgID       string `json:"org_id"`
	Description string `json:"description,omitempty"`
}

type listResponse struct {
	Objects []Workspace `json:"objects"`
}

// List returns all workspaces in the client's organization.
func List(ctx context.Context, c *api.Client) ([]Workspace, error) {
	path := "/v1/workspace?org_name=" + url.QueryEscape(c.OrgName())
	var list listResponse
	if err := c.Get(ctx, path, &list); err != nil {
		return nil, err
	}
	return list.Objects, nil
}

// Create makes a new workspace in the client's organization.
func Create(ctx context.Context, c *api.Client, name string) (*Workspace, error) {
	body := map[string]string{"name": name, "org_name": c.OrgName()}
	var ws Workspace
	if err := c.Post(ctx, "/v1/workspace", body, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetByName looks a workspace up by name; absent is (nil, nil).
func GetByName(ctx context.Context, c *api.Client, name string) (*Workspace, error) {
	path := fmt.Sprintf("/v1/workspace?org_name=%s&name=%s",
		url.QueryEscape(c.OrgName()), url.QueryEscape(name))
	var list listResponse
	if err := c.Get(ctx, path, &list); err != nil {
		return nil, err
	}
	if len(list.Objects) == 0 {
		return nil, nil
	}
	return &list.Objects[0], nil
}

// Delete removes a workspace by ID.
func Delete(ctx context.Context, c *api.Client, id string) error {
	return c.Delete(ctx, "/v1/workspace/"+url.PathEscape(id))
}
