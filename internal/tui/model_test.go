package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/ironboard/internal/api"
	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/devapi"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
	"github.com/existflow/ironboard/internal/project"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

type harness struct {
	srv     *devapi.Server
	notices *notify.Center
	m       Model
	items   []model.Item
}

func newHarness(t *testing.T, role model.Role) *harness {
	t.Helper()
	srv := devapi.New(devapi.WithSecret([]byte("test")), devapi.WithLogger(logger.Nop()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	admin, err := srv.SeedUser("ana", "ana@example.com", "password123")
	require.NoError(t, err)
	proj := srv.SeedProject("Website", admin.ID)

	viewer := admin
	if role != model.RoleAdmin {
		viewer, err = srv.SeedUser("vi", "vi@example.com", "password123")
		require.NoError(t, err)
		srv.AddMember(proj.ID, viewer.ID, role)
	}

	items := []model.Item{
		srv.SeedItem(proj.ID, model.Item{Title: "First", ReporterID: admin.ID}),
		srv.SeedItem(proj.ID, model.Item{Title: "Second", ReporterID: admin.ID}),
	}

	token, err := srv.IssueToken(viewer.ID, time.Hour)
	require.NoError(t, err)
	client := api.New(ts.URL, api.WithLogger(logger.Nop()))
	client.SetAuth(staticToken(token), nil)

	pc := project.New(client)
	pc.SetLogger(logger.Nop())
	pc.SetUser(&viewer)
	pc.Select(&proj)
	require.NoError(t, pc.Resolve(context.Background()))

	notices := notify.NewCenter(time.Hour)
	t.Cleanup(notices.Stop)

	m := NewModel(Config{
		Project: &proj,
		Context: pc,
		Client:  client,
		Notices: notices,
		BoardOptions: []board.Option{
			board.WithGate(pc),
			board.WithNotifier(notices),
			board.WithLogger(logger.Nop()),
			board.WithRevertDelay(10 * time.Millisecond),
		},
	})
	t.Cleanup(m.Close)

	h := &harness{srv: srv, notices: notices, m: m, items: items}
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	h.send(t, m.loadCmd()())
	return h
}

// send feeds msg to the model and returns the command it produced
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) press(t *testing.T, k string) tea.Cmd {
	t.Helper()
	switch k {
	case "space":
		return h.send(t, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	case "enter":
		return h.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	default:
		return h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

func TestLoadShowsLanes(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)

	require.False(t, h.m.loading)
	view := h.m.View()
	require.Contains(t, view, "To Do (2)")
	require.Contains(t, view, "In Progress (0)")
	require.Contains(t, view, "First")
	require.Contains(t, view, "admin")
}

func TestDragAndDropMovesCard(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)

	h.press(t, "space")
	require.Equal(t, ModeDragging, h.m.mode)
	drag, ok := h.m.board.Dragged()
	require.True(t, ok)
	require.Equal(t, "First", drag.Item.Title)

	h.press(t, "l")
	h.press(t, "l")
	require.Contains(t, h.m.View(), "To Do → In Review")

	cmd := h.press(t, "enter")
	require.NotNil(t, cmd)
	require.Equal(t, ModeNormal, h.m.mode)

	// The card is shown in its new lane before the server answers
	lanes := h.m.board.Display()
	require.Len(t, lanes[2].Items, 1)
	require.Equal(t, 2, h.m.col)

	h.send(t, cmd())
	stored, _ := h.srv.Item(h.items[0].ID)
	require.Equal(t, model.StatusInReview, stored.Status)
	require.False(t, h.m.board.HasOverlay())
	n, ok := h.notices.Latest()
	require.True(t, ok)
	require.Equal(t, notify.Success, n.Level)
	require.Equal(t, `Moved "First" to In Review`, n.Message)
	require.Contains(t, h.m.View(), "Moved")
}

func TestEscapeCancelsDrag(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.srv.ResetRequests()

	h.press(t, "space")
	h.press(t, "l")
	h.press(t, "esc")

	require.Equal(t, ModeNormal, h.m.mode)
	_, dragging := h.m.board.Dragged()
	require.False(t, dragging)
	require.Zero(t, h.srv.CountRequests(http.MethodPatch, "/items/"))
	require.Len(t, h.m.board.Display()[0].Items, 2)
}

func TestFailedDropShowsNotice(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.srv.FailNext(http.MethodPatch, "/items/", http.StatusInternalServerError)

	h.press(t, "space")
	h.press(t, "l")
	cmd := h.press(t, "enter")
	h.send(t, cmd())

	n, ok := h.notices.Latest()
	require.True(t, ok)
	require.Equal(t, notify.Error, n.Level)
	require.Equal(t, "Failed to move task: injected failure", n.Message)
	require.Contains(t, h.m.View(), "Failed to move task")

	// Rolled back immediately, then the overlay expires
	require.Len(t, h.m.board.Display()[0].Items, 2)
	require.Eventually(t, func() bool { return !h.m.board.HasOverlay() }, time.Second, 5*time.Millisecond)
}

func TestVisitorCannotPickUp(t *testing.T) {
	h := newHarness(t, model.RoleVisitor)

	h.press(t, "space")
	require.Equal(t, ModeNormal, h.m.mode)
	require.Contains(t, h.m.message, "permission")

	h.press(t, "a")
	require.Equal(t, ModeNormal, h.m.mode)
}

func TestAddTaskToFocusedLane(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)

	h.press(t, "l")
	h.press(t, "a")
	require.Equal(t, ModeAddTask, h.m.mode)
	for _, r := range "Ship it" {
		h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	cmd := h.press(t, "enter")
	require.NotNil(t, cmd)

	refresh := h.send(t, cmd())
	require.Contains(t, h.m.message, "Added")
	h.send(t, refresh())

	lanes := h.m.board.Display()
	require.Len(t, lanes[1].Items, 1)
	require.Equal(t, "Ship it", lanes[1].Items[0].Title)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)

	h.press(t, "d")
	require.Equal(t, ModeConfirmDelete, h.m.mode)
	h.press(t, "n")
	require.Equal(t, "Cancelled", h.m.message)
	_, ok := h.srv.Item(h.items[0].ID)
	require.True(t, ok)

	h.press(t, "d")
	cmd := h.press(t, "y")
	require.NotNil(t, cmd)
	refresh := h.send(t, cmd())
	h.send(t, refresh())

	_, ok = h.srv.Item(h.items[0].ID)
	require.False(t, ok)
	require.Len(t, h.m.board.Display()[0].Items, 1)
}

func TestDeletePromptShowsOverNotice(t *testing.T) {
	h := newHarness(t, model.RoleAdmin)
	h.notices.Push(notify.Success, "Moved something")

	h.press(t, "d")
	require.Equal(t, ModeConfirmDelete, h.m.mode)
	require.Contains(t, h.m.View(), `Delete "First"? y/N`)

	h.press(t, "esc")
	require.Contains(t, h.m.View(), "Moved something")
}
