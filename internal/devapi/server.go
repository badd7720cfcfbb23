// Package devapi is an in-memory implementation of the project
// management REST API. It backs local development and the tests of the
// client packages.
package devapi

import (
	"context"
	"crypto/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type account struct {
	model.User
	passwordHash []byte
}

type failure struct {
	method string
	prefix string
	status int // 0 drops the connection
}

// RecordedRequest is a request the server has seen
type RecordedRequest struct {
	Method string
	Path   string
	Body   string
}

// Server is the in-memory API
type Server struct {
	echo   *echo.Echo
	secret []byte
	ttl    time.Duration
	log    *logger.Logger

	mu            sync.Mutex
	nextID        int64
	users         map[int64]*account
	projects      map[int64]*model.Project
	members       map[int64]map[int64]model.Role
	columns       map[int64][]model.Column
	items         map[int64]*model.Item
	notifications map[int64][]model.Notification
	teams         map[int64]*model.Team
	teamMembers   map[int64]map[int64]bool
	teamProjects  map[int64]map[int64]bool
	failures      []failure
	requests      []RecordedRequest
}

// Option configures a Server
type Option func(*Server)

// WithSecret sets the HMAC key used to sign tokens
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets how long issued tokens stay valid
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// WithLogger sets the request logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a server with no data
func New(opts ...Option) *Server {
	s := &Server{
		ttl:           24 * time.Hour,
		log:           logger.Default(),
		users:         make(map[int64]*account),
		projects:      make(map[int64]*model.Project),
		members:       make(map[int64]map[int64]model.Role),
		columns:       make(map[int64][]model.Column),
		items:         make(map[int64]*model.Item),
		notifications: make(map[int64][]model.Notification),
		teams:         make(map[int64]*model.Team),
		teamMembers:   make(map[int64]map[int64]bool),
		teamProjects:  make(map[int64]map[int64]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.secret == nil {
		s.secret = make([]byte, 32)
		_, _ = rand.Read(s.secret)
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(s.requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(s.recordRequests)
	e.Use(s.injectFailures)

	e.GET("/health", s.handleHealth)

	// Public
	e.POST("/register", s.handleRegister)
	e.POST("/login", s.handleLogin)
	e.GET("/teams", s.handleListTeams)

	// Protected
	api := e.Group("")
	api.Use(s.authMiddleware)
	api.GET("/me", s.handleMe)
	api.GET("/dashboard/stats", s.handleDashboardStats)
	api.GET("/notifications", s.handleNotifications)
	api.POST("/notifications/:id/read", s.handleNotificationRead)

	api.GET("/projects", s.handleListProjects)
	api.POST("/projects", s.handleCreateProject)
	api.GET("/projects/:id", s.handleGetProject)
	api.GET("/projects/:id/progress", s.handleProjectProgress)
	api.GET("/reports/project/:id", s.handleProjectReport)

	api.GET("/projects/:id/members", s.handleListMembers)
	api.POST("/projects/:id/members", s.handleAddMember)
	api.PATCH("/projects/:id/members/:userId", s.handleUpdateMemberRole)
	api.DELETE("/projects/:id/members/:userId", s.handleRemoveMember)

	api.GET("/projects/:id/columns", s.handleListColumns)
	api.POST("/projects/:id/columns", s.handleCreateColumn)

	api.GET("/items/projects/:id/items", s.handleListItems)
	api.POST("/items/projects/:id/items", s.handleCreateItem)
	api.GET("/items/:id", s.handleGetItem)
	api.PATCH("/items/:id", s.handleUpdateItem)
	api.DELETE("/items/:id", s.handleDeleteItem)
	api.POST("/items/:id/comments", s.handleAddComment)

	api.GET("/teams/my-teams", s.handleMyTeams)
	api.POST("/teams", s.handleCreateTeam)
	api.GET("/teams/:id", s.handleGetTeam)
	api.POST("/teams/:id/members", s.handleAddTeamMember)
	api.DELETE("/teams/:id/members/:userId", s.handleRemoveTeamMember)
	api.POST("/teams/:id/projects", s.handleLinkTeamProject)
	api.DELETE("/teams/:id/projects/:projectId", s.handleUnlinkTeamProject)

	s.echo = e
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// FailNext makes the next request matching method and path prefix
// fail with status. A status of 0 drops the connection instead.
func (s *Server) FailNext(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, prefix: pathPrefix, status: status})
}

// Requests returns every request seen so far
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// CountRequests counts recorded requests matching method and path prefix
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// ResetRequests forgets recorded requests
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// SeedUser creates an account directly
func (s *Server) SeedUser(username, email, password string) (model.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := &account{User: model.User{ID: s.newID(), Username: username, Email: email, Role: "member"}, passwordHash: hash}
	s.users[acct.ID] = acct
	return acct.User, nil
}

// SeedProject creates a project with default columns and adminID as admin
func (s *Server) SeedProject(name string, adminID int64) model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createProjectLocked(name, "", adminID)
}

// SeedItem stores an item in a project, filling in id and column
func (s *Server) SeedItem(projectID int64, it model.Item) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.newID()
	it.ProjectID = projectID
	if it.Type == "" {
		it.Type = model.TypeTask
	}
	if it.Status == "" {
		it.Status = model.StatusTodo
	}
	if it.ColumnID == 0 {
		it.ColumnID = s.columnForLocked(projectID, it.Status)
	}
	stored := it.Clone()
	s.items[it.ID] = &stored
	return it
}

// AddMember adds or updates a membership directly
func (s *Server) AddMember(projectID, userID int64, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[projectID] == nil {
		s.members[projectID] = make(map[int64]model.Role)
	}
	s.members[projectID][userID] = role
}

// SetColumns replaces a project's columns
func (s *Server) SetColumns(projectID int64, cols []model.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Column, len(cols))
	for i, col := range cols {
		if col.ID == 0 {
			col.ID = s.newID()
		}
		out[i] = col
	}
	s.columns[projectID] = out
}

// Item returns a stored item
func (s *Server) Item(id int64) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return model.Item{}, false
	}
	return it.Clone(), true
}

// Columns returns a project's columns in order
func (s *Server) Columns(projectID int64) []model.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedColumnsLocked(projectID)
}

func (s *Server) createProjectLocked(name, description string, adminID int64) model.Project {
	p := &model.Project{ID: s.newID(), Name: name, Description: description, AdminID: adminID}
	s.projects[p.ID] = p
	cols := model.DefaultColumns()
	for i := range cols {
		cols[i].ID = s.newID()
		// The server stores only name and order
		cols[i].Status = ""
	}
	s.columns[p.ID] = cols
	s.members[p.ID] = map[int64]model.Role{adminID: model.RoleAdmin}
	return *p
}

func (s *Server) sortedColumnsLocked(projectID int64) []model.Column {
	cols := append([]model.Column(nil), s.columns[projectID]...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
	return cols
}

func (s *Server) columnForLocked(projectID int64, status model.Status) int64 {
	for _, col := range s.columns[projectID] {
		if col.Key() == status {
			return col.ID
		}
	}
	return 0
}

func (s *Server) notifyLocked(userID int64, msg string) {
	s.notifications[userID] = append(s.notifications[userID], model.Notification{
		ID:        s.newID(),
		Message:   msg,
		CreatedAt: time.Now().UTC().Format("2006-01-02T15:04:05"),
	})
}
