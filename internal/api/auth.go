package api

import (
	"context"
	"net/http"

	"github.com/existflow/ironboard/internal/model"
)

// AuthResult is returned by a successful login
type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/login",
		body:   map[string]string{"email": email, "password": password},
		out:    &result,
		public: true,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/register",
		body: map[string]string{
			"username": username,
			"email":    email,
			"password": password,
		},
		public: true,
	})
}

// Me returns the user the current token belongs to
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/me", out: &user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Notifications lists the caller's notifications, newest first
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var result []model.Notification
	if err := c.do(ctx, request{method: http.MethodGet, path: "/notifications", out: &result}); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkNotificationRead marks one notification as read
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodPost, path: pathf("/notifications/%d/read", id)})
}

// DashboardStats returns the caller's project/task/team counts
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard/stats", out: &stats}); err != nil {
		return nil, err
	}
	return &stats, nil
}
