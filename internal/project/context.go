// Package project tracks the selected project and the caller's role in it.
//
// Roles gate what the client offers, nothing more. The server decides
// every request on its own.
package project

import (
	"context"
	"fmt"
	"sync"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
)

// MemberLister fetches a project's roster
type MemberLister interface {
	ListMembers(ctx context.Context, projectID int64) ([]model.Member, error)
}

// Context is the process-wide project selection
type Context struct {
	members MemberLister
	log     *logger.Logger

	mu         sync.RWMutex
	user       *model.User
	project    *model.Project
	roster     []model.Member
	role       model.Role
	loading    bool
	err        error
	generation uint64
	onChange   func()
}

// New creates an empty context
func New(members MemberLister) *Context {
	return &Context{members: members, log: logger.Default()}
}

// SetLogger replaces the context's logger
func (c *Context) SetLogger(l *logger.Logger) {
	c.log = l
}

// SetOnChange registers a callback fired after every state change
func (c *Context) SetOnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetUser switches the signed-in user. The roster and role are dropped
// until the next Resolve.
func (c *Context) SetUser(u *model.User) {
	c.mu.Lock()
	if u != nil {
		cp := *u
		u = &cp
	}
	c.user = u
	c.resetLocked()
	c.mu.Unlock()
	c.changed()
}

// Select switches the selected project. The roster and role are dropped
// until the next Resolve.
func (c *Context) Select(p *model.Project) {
	c.mu.Lock()
	if p != nil {
		cp := *p
		p = &cp
	}
	c.project = p
	c.resetLocked()
	c.mu.Unlock()
	c.changed()
}

func (c *Context) resetLocked() {
	c.roster = nil
	c.role = ""
	c.err = nil
	c.loading = false
	c.generation++
}

// Resolve fetches the roster for the current user and project. A result
// that arrives after another SetUser or Select is discarded.
func (c *Context) Resolve(ctx context.Context) error {
	c.mu.Lock()
	if c.user == nil || c.project == nil {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	userID := c.user.ID
	projectID := c.project.ID
	c.loading = true
	c.mu.Unlock()
	c.changed()

	roster, err := c.members.ListMembers(ctx, projectID)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Debug("Discarding stale roster", logger.F("project", projectID))
		return nil
	}
	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		c.changed()
		return fmt.Errorf("failed to load members of project %d: %w", projectID, err)
	}
	c.roster = roster
	c.role = ""
	for _, m := range roster {
		if m.UserID == userID {
			c.role = m.Role
			break
		}
	}
	role := c.role
	c.mu.Unlock()

	c.log.Debug("Resolved project role",
		logger.F("project", projectID),
		logger.F("user", userID),
		logger.F("role", role))
	c.changed()
	return nil
}

func (c *Context) changed() {
	c.mu.RLock()
	fn := c.onChange
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// HasPermission reports whether the resolved role grants capability. It is
// false while no role is resolved.
func (c *Context) HasPermission(capability model.Capability) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role != "" && c.role.Can(capability)
}

// Role returns the resolved role, or "" if none
func (c *Context) Role() model.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// Project returns a copy of the selected project, or nil
func (c *Context) Project() *model.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.project == nil {
		return nil
	}
	p := *c.project
	return &p
}

// User returns a copy of the current user, or nil
func (c *Context) User() *model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Members returns a copy of the resolved roster
func (c *Context) Members() []model.Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Member(nil), c.roster...)
}

// Loading reports whether a roster fetch is in flight
func (c *Context) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last roster fetch error
func (c *Context) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// CanMove reports whether the caller may drag it to another lane: any
// non-visitor role, the assignee, the reporter or the project admin.
func (c *Context) CanMove(it *model.Item) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil || it == nil {
		return false
	}
	if c.role.CanMoveItems() {
		return true
	}
	uid := c.user.ID
	if it.IsAssignee(uid) || it.ReporterID == uid {
		return true
	}
	return c.project != nil && c.project.AdminID == uid
}
