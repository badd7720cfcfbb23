package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/existflow/ironboard/internal/model"
)

// ListTeams returns every team on the server
func (c *Client) ListTeams(ctx context.Context) ([]model.Team, error) {
	var result struct {
		Teams []model.Team `json:"teams"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/teams", out: &result}); err != nil {
		return nil, err
	}
	return result.Teams, nil
}

// MyTeams returns the teams the caller belongs to
func (c *Client) MyTeams(ctx context.Context) ([]model.Team, error) {
	var result struct {
		Teams []model.Team `json:"teams"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/teams/my-teams", out: &result}); err != nil {
		return nil, err
	}
	return result.Teams, nil
}

// GetTeam fetches a team with its members and linked projects
func (c *Client) GetTeam(ctx context.Context, id int64) (*model.TeamDetail, error) {
	var team model.TeamDetail
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/teams/%d", id), out: &team}); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam creates a team administered by the caller
func (c *Client) CreateTeam(ctx context.Context, name, description string) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}
	var result struct {
		Team model.Team `json:"team"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/teams",
		body:   map[string]string{"name": name, "description": description},
		out:    &result,
	})
	if err != nil {
		return nil, err
	}
	return &result.Team, nil
}

// AddTeamMember adds the user with the given email to a team. The user
// also joins every project linked to the team.
func (c *Client) AddTeamMember(ctx context.Context, teamID int64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/teams/%d/members", teamID),
		body:   map[string]string{"email": email},
	})
}

// RemoveTeamMember takes a user off a team
func (c *Client) RemoveTeamMember(ctx context.Context, teamID, userID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/teams/%d/members/%d", teamID, userID)})
}

// LinkTeamProject gives every team member access to a project
func (c *Client) LinkTeamProject(ctx context.Context, teamID, projectID int64) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/teams/%d/projects", teamID),
		body:   map[string]int64{"project_id": projectID},
	})
}

// UnlinkTeamProject removes a project from a team
func (c *Client) UnlinkTeamProject(ctx context.Context, teamID, projectID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/teams/%d/projects/%d", teamID, projectID)})
}
