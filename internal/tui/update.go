package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/ironboard/internal/api"
	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
)

// boardChangedMsg is sent when board, role or notices changed
type boardChangedMsg struct{}

// loadedMsg is sent when the initial load or a refresh finished
type loadedMsg struct {
	err     error
	created int
}

// moveDoneMsg is sent when a committed move settled
type moveDoneMsg struct {
	move *board.Move
	err  error
}

// createdMsg is sent when a task was added
type createdMsg struct {
	item *model.Item
	err  error
}

// deletedMsg is sent when a task was deleted
type deletedMsg struct {
	title string
	err   error
}

// Init starts the initial load and the change listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForBoardChange(), m.loadCmd(), m.spinner.Tick)
}

// waitForBoardChange listens for board refresh signals
func (m Model) waitForBoardChange() tea.Cmd {
	if m.refreshChan == nil {
		return nil
	}
	return func() tea.Msg {
		<-m.refreshChan
		return boardChangedMsg{}
	}
}

// loadCmd fetches columns and items. Missing default columns are created
// when the caller may manage the project.
func (m Model) loadCmd() tea.Cmd {
	b := m.board
	manage := m.can(model.CapManageProject)
	return func() tea.Msg {
		ctx := context.Background()
		if err := b.LoadColumns(ctx); err != nil {
			return loadedMsg{err: err}
		}
		created := 0
		if manage && len(b.MissingColumns()) > 0 {
			n, err := b.EnsureColumns(ctx)
			if err != nil {
				logger.Warn("Failed to create default columns", logger.F("error", err))
			}
			created = n
		}
		return loadedMsg{err: b.Refresh(ctx), created: created}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return loadedMsg{err: b.Refresh(context.Background())}
	}
}

func (m Model) commitCmd(mv *board.Move) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return moveDoneMsg{move: mv, err: b.Commit(context.Background(), mv)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardChangedMsg:
		m.clampCursor()
		return m, m.waitForBoardChange()

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.message = "Failed to load board: " + api.UserMessage(msg.err)
		} else if msg.created > 0 {
			m.message = fmt.Sprintf("Created %d missing columns", msg.created)
		}
		m.clampCursor()
		return m, nil

	case moveDoneMsg:
		// The board reports both outcomes through the notice center
		m.clampCursor()
		return m, nil

	case createdMsg:
		if msg.err != nil {
			m.message = "Failed to add task: " + api.UserMessage(msg.err)
			return m, nil
		}
		m.message = fmt.Sprintf("Added \"%s\"", truncate(msg.item.Title, 30))
		return m, m.refreshCmd()

	case deletedMsg:
		if msg.err != nil {
			m.message = "Failed to delete task: " + api.UserMessage(msg.err)
			return m, nil
		}
		m.message = fmt.Sprintf("Deleted \"%s\"", truncate(msg.title, 30))
		return m, m.refreshCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddTask:
			return m.updateInput(msg)
		case ModeDragging:
			return m.updateDragging(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.board.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}

	case key.Matches(msg, keys.Right):
		if m.col < len(model.Statuses)-1 {
			m.col++
			m.clampCursor()
		}

	case key.Matches(msg, keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, keys.Down):
		m.row++
		m.clampCursor()

	case key.Matches(msg, keys.PickUp):
		return m.startDrag()

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Delete):
		m.startDelete()

	case key.Matches(msg, keys.Refresh):
		m.message = "Refreshing..."
		return m, m.refreshCmd()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m Model) startDrag() (tea.Model, tea.Cmd) {
	it, ok := m.focused()
	if !ok {
		return m, nil
	}
	if !m.canMove(it) {
		m.message = "You don't have permission to move this task"
		return m, nil
	}
	if err := m.board.BeginDrag(it.ID); err != nil {
		m.message = err.Error()
		return m, nil
	}
	m.mode = ModeDragging
	m.message = ""
	return m, nil
}

// updateDragging moves the drop target while a card is picked up
func (m Model) updateDragging(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	drag, ok := m.board.Dragged()
	if !ok {
		m.mode = ModeNormal
		return m, nil
	}
	target := laneIndex(drag.Target)

	switch {
	case key.Matches(msg, keys.Left):
		if target > 0 {
			m.board.SetTarget(model.Statuses[target-1])
		}

	case key.Matches(msg, keys.Right):
		if target < len(model.Statuses)-1 {
			m.board.SetTarget(model.Statuses[target+1])
		}

	case key.Matches(msg, keys.Drop):
		m.mode = ModeNormal
		mv, outcome := m.board.Drop(drag.Target)
		switch outcome {
		case board.Moved:
			m.followItem(mv.ItemID)
			return m, m.commitCmd(mv)
		case board.Denied:
			m.message = "You don't have permission to move this task"
		}
		// NoColumn is reported by the notice center
		m.followItem(drag.Item.ID)

	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Quit):
		m.board.CancelDrag()
		m.mode = ModeNormal
		m.followItem(drag.Item.ID)
	}

	return m, nil
}

func laneIndex(st model.Status) int {
	for i, s := range model.Statuses {
		if s == st {
			return i
		}
	}
	return 0
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	if !m.can(model.CapCreateTask) {
		m.message = "You don't have permission to add tasks"
		return m, nil
	}
	m.mode = ModeAddTask
	m.input.SetValue("")
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Drop):
		m.mode = ModeNormal
		m.input.Blur()
		title := m.input.Value()
		if title == "" {
			return m, nil
		}
		if err := model.ValidateTitle(title); err != nil {
			m.message = err.Error()
			return m, nil
		}
		lane := m.lanes()[m.col]
		if lane.Column.ID == 0 {
			m.message = fmt.Sprintf("No %s column on this board", lane.Status.Label())
			return m, nil
		}
		return m, m.createCmd(model.ItemDraft{
			Title:    title,
			Type:     model.TypeTask,
			Status:   lane.Status,
			ColumnID: lane.Column.ID,
			Priority: model.PriorityMedium,
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) createCmd(draft model.ItemDraft) tea.Cmd {
	client, pid := m.client, m.project.ID
	return func() tea.Msg {
		it, err := client.CreateItem(context.Background(), pid, draft)
		return createdMsg{item: it, err: err}
	}
}

func (m *Model) startDelete() {
	it, ok := m.focused()
	if !ok {
		return
	}
	if !m.mayDelete(it) {
		m.message = "You don't have permission to delete this task"
		return
	}
	m.mode = ModeConfirmDelete
	m.message = fmt.Sprintf("Delete \"%s\"? y/N", truncate(it.Title, 40))
}

func (m Model) mayDelete(it model.Item) bool {
	if m.access == nil || m.access.HasPermission(model.CapDeleteAnyTask) {
		return true
	}
	u := m.access.User()
	if u == nil || !m.access.HasPermission(model.CapDeleteOwnTask) {
		return false
	}
	return it.ReporterID == u.ID || it.IsAssignee(u.ID)
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if !key.Matches(msg, keys.Yes) {
		m.message = "Cancelled"
		return m, nil
	}
	it, ok := m.focused()
	if !ok {
		m.message = ""
		return m, nil
	}
	client := m.client
	m.message = "Deleting..."
	return m, func() tea.Msg {
		return deletedMsg{title: it.Title, err: client.DeleteItem(context.Background(), it.ID)}
	}
}
