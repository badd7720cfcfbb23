// Package tui renders one project's kanban board and drives card moves
// through the board state machine.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
	"github.com/existflow/ironboard/internal/project"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeDragging
	ModeAddTask
	ModeConfirmDelete
	ModeHelp
)

// Client is the part of the API the board screen calls
type Client interface {
	board.ItemService
	CreateItem(ctx context.Context, projectID int64, draft model.ItemDraft) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// Config wires the board screen to the session-wide services
type Config struct {
	Project      *model.Project
	Context      *project.Context
	Client       Client
	Notices      *notify.Center
	BoardOptions []board.Option
}

// Model is the main TUI model
type Model struct {
	project *model.Project
	access  *project.Context
	client  Client
	notices *notify.Center
	board   *board.Board

	// Signalled by the board, the project context and the notice center
	refreshChan chan struct{}

	// UI state
	width   int
	height  int
	mode    Mode
	col     int // focused lane
	row     int // focused card within the lane
	loading bool

	input   textinput.Model
	spinner spinner.Model

	message string
}

// NewModel creates the board screen for cfg.Project
func NewModel(cfg Config) Model {
	logger.Info("Initializing board TUI", logger.F("project", cfg.Project.ID))

	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = model.MaxTitleLength
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HelpStyle

	m := Model{
		project:     cfg.Project,
		access:      cfg.Context,
		client:      cfg.Client,
		notices:     cfg.Notices,
		refreshChan: make(chan struct{}, 1), // Buffered to avoid blocking
		mode:        ModeNormal,
		loading:     true,
		input:       ti,
		spinner:     sp,
	}

	signal := m.signal
	opts := append(append([]board.Option(nil), cfg.BoardOptions...), board.WithOnChange(signal))
	m.board = board.New(cfg.Project.ID, cfg.Client, opts...)
	if m.notices != nil {
		m.notices.SetOnChange(signal)
	}
	if m.access != nil {
		m.access.SetOnChange(signal)
	}
	return m
}

// signal asks the program to redraw; extra signals collapse into one
func (m Model) signal() {
	select {
	case m.refreshChan <- struct{}{}:
	default:
	}
}

// Board exposes the board state machine
func (m Model) Board() *board.Board {
	return m.board
}

// Close stops the board's timers
func (m Model) Close() {
	m.board.Close()
}

func (m Model) lanes() []board.Lane {
	return m.board.Display()
}

// focused returns the card under the cursor
func (m Model) focused() (model.Item, bool) {
	lanes := m.lanes()
	if m.col >= len(lanes) {
		return model.Item{}, false
	}
	items := lanes[m.col].Items
	if m.row >= len(items) {
		return model.Item{}, false
	}
	return items[m.row], true
}

// clampCursor keeps the cursor on an existing card after the board changes
func (m *Model) clampCursor() {
	lanes := m.lanes()
	m.col = clamp(m.col, len(lanes))
	if len(lanes) > 0 {
		m.row = clamp(m.row, len(lanes[m.col].Items))
	}
}

// followItem moves the cursor onto item id if it is displayed
func (m *Model) followItem(id int64) {
	for c, lane := range m.lanes() {
		for r, it := range lane.Items {
			if it.ID == id {
				m.col, m.row = c, r
				return
			}
		}
	}
	m.clampCursor()
}

func (m Model) canMove(it model.Item) bool {
	return m.access == nil || m.access.CanMove(&it)
}

func (m Model) can(c model.Capability) bool {
	return m.access == nil || m.access.HasPermission(c)
}
