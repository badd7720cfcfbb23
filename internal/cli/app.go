package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/existflow/ironboard/internal/api"
	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/config"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
	"github.com/existflow/ironboard/internal/project"
	"github.com/existflow/ironboard/internal/session"
	"github.com/existflow/ironboard/internal/store"
)

// App is the process-wide state shared by every command
type App struct {
	Config  *config.Config
	Store   *store.DB
	Client  *api.Client
	Session *session.Session
	Project *project.Context
	Notices *notify.Center
}

// app is built by the root command before any subcommand runs
var app *App

// NewApp opens local state and wires the session and project context to
// one API client
func NewApp(cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}

	log := logger.Default()
	client := api.New(cfg.ServerURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log.WithFields(logger.F("component", "api"))))

	sess := session.New(st, client)
	sess.SetLogger(log.WithFields(logger.F("component", "session")))

	pc := project.New(client)
	pc.SetLogger(log.WithFields(logger.F("component", "project")))
	sess.OnChange(pc.SetUser)

	return &App{
		Config:  cfg,
		Store:   st,
		Client:  client,
		Session: sess,
		Project: pc,
		Notices: notify.NewCenter(notify.DefaultTTL),
	}, nil
}

// Close releases local state
func (a *App) Close() error {
	a.Notices.Stop()
	return a.Store.Close()
}

// requireLogin restores the session and fails when nobody is signed in
func (a *App) requireLogin(ctx context.Context) (*model.User, error) {
	if err := a.Session.Initialize(ctx); err != nil {
		return nil, err
	}
	u := a.Session.User()
	if u == nil {
		return nil, session.ErrNotLoggedIn
	}
	return u, nil
}

// projectID returns the explicit id, or the selected project
func (a *App) projectID(explicit int64) (int64, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if a.Config.DefaultProject != 0 {
		return a.Config.DefaultProject, nil
	}
	return 0, fmt.Errorf("no project selected, run 'ironboard context set <project-id>' or pass --project")
}

// openProject signs in, selects the project and resolves the caller's role
func (a *App) openProject(ctx context.Context, explicit int64) (*model.Project, error) {
	u, err := a.requireLogin(ctx)
	if err != nil {
		return nil, err
	}
	id, err := a.projectID(explicit)
	if err != nil {
		return nil, err
	}
	p, err := a.Client.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %d: %w", id, err)
	}
	a.Project.SetUser(u)
	a.Project.Select(p)
	if err := a.Project.Resolve(ctx); err != nil {
		// The role only gates what we offer; the server still decides
		logger.Warn("Could not resolve project role", logger.F("project", id), logger.F("error", err))
	}
	return p, nil
}

// boardOptions wires a board to the app's gate, notices and settings
func (a *App) boardOptions() []board.Option {
	return []board.Option{
		board.WithGate(a.Project),
		board.WithNotifier(a.Notices),
		board.WithRevertDelay(a.Config.RevertDelay),
		board.WithLogger(logger.Default().WithFields(logger.F("component", "board"))),
	}
}

// newBoard builds a board for the project
func (a *App) newBoard(projectID int64) *board.Board {
	return board.New(projectID, a.Client, a.boardOptions()...)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}
