package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/existflow/ironboard/internal/model"
)

func pathf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// ListProjects returns the projects the caller is a member of
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var result struct {
		Projects []model.Project `json:"projects"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects", out: &result}); err != nil {
		return nil, err
	}
	return result.Projects, nil
}

// GetProject fetches one project
func (c *Client) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var result struct {
		Project model.Project `json:"project"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/projects/%d", id), out: &result}); err != nil {
		return nil, err
	}
	return &result.Project, nil
}

// CreateProject creates a project administered by the caller
func (c *Client) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	var result struct {
		Project model.Project `json:"project"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/projects",
		body:   map[string]string{"name": name, "description": description},
		out:    &result,
	})
	if err != nil {
		return nil, err
	}
	return &result.Project, nil
}

// Progress is a project's per-status item count
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Todo       int `json:"todo"`
}

// ProjectProgress returns item counts for a project
func (c *Client) ProjectProgress(ctx context.Context, id int64) (*Progress, error) {
	var p Progress
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/projects/%d/progress", id), out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectReport returns the member list and item stats of a project
func (c *Client) ProjectReport(ctx context.Context, id int64) (*model.Report, error) {
	var result struct {
		Report model.Report `json:"report"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/reports/project/%d", id), out: &result}); err != nil {
		return nil, err
	}
	return &result.Report, nil
}

// ListMembers returns the project's roster
func (c *Client) ListMembers(ctx context.Context, projectID int64) ([]model.Member, error) {
	var result struct {
		Members []model.Member `json:"members"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/projects/%d/members", projectID), out: &result}); err != nil {
		return nil, err
	}
	return result.Members, nil
}

// AddMember invites the user with the given email
func (c *Client) AddMember(ctx context.Context, projectID int64, email string, role model.Role) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/projects/%d/members", projectID),
		body:   map[string]string{"email": email, "role": string(role)},
	})
}

// RemoveMember removes a user from the project
func (c *Client) RemoveMember(ctx context.Context, projectID, userID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/projects/%d/members/%d", projectID, userID)})
}

// UpdateMemberRole changes a member's role
func (c *Client) UpdateMemberRole(ctx context.Context, projectID, userID int64, role model.Role) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   pathf("/projects/%d/members/%d", projectID, userID),
		body:   map[string]string{"role": string(role)},
	})
}

// ListColumns returns the project's board columns ordered by index
func (c *Client) ListColumns(ctx context.Context, projectID int64) ([]model.Column, error) {
	var result struct {
		Columns []model.Column `json:"columns"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/projects/%d/columns", projectID), out: &result}); err != nil {
		return nil, err
	}
	return result.Columns, nil
}

// CreateColumn adds a board column
func (c *Client) CreateColumn(ctx context.Context, projectID int64, col model.Column) (*model.Column, error) {
	var result struct {
		Column model.Column `json:"column"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/projects/%d/columns", projectID),
		body:   col,
		out:    &result,
	})
	if err != nil {
		return nil, err
	}
	created := result.Column
	if created.Status == "" {
		created.Status = col.Status
	}
	if created.Order == 0 {
		created.Order = col.Order
	}
	return &created, nil
}
