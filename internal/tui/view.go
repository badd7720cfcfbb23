package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	mainContent := m.renderBoard()
	statusBar := m.renderStatusBar()

	if m.mode == ModeAddTask {
		mainContent = lipgloss.Place(
			m.width, m.height-4,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	if m.mode == ModeHelp {
		mainContent = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, mainContent, statusBar)
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("IronBoard · %s", m.project.Name)
	right := ""
	if m.access != nil {
		if role := m.access.Role(); role != "" {
			right = string(role)
		} else if m.access.Loading() {
			right = "resolving role..."
		}
	}
	if m.loading || m.board.Syncing() {
		right = m.spinner.View() + " syncing " + right
	}
	line := HeaderStyle.Render(title)
	if right != "" {
		gap := m.width - lipgloss.Width(line) - lipgloss.Width(right) - 2
		if gap < 1 {
			gap = 1
		}
		line += strings.Repeat(" ", gap) + HelpStyle.Render(right)
	}
	return line
}

func (m Model) renderBoard() string {
	lanes := m.lanes()
	if len(lanes) == 0 {
		return ""
	}

	drag, dragging := m.board.Dragged()
	laneWidth := (m.width / len(lanes)) - 2
	if laneWidth < 12 {
		laneWidth = 12
	}
	height := m.height - 6
	if height < 3 {
		height = 3
	}

	cols := make([]string, 0, len(lanes))
	for i, lane := range lanes {
		style := LaneStyle
		if dragging && lane.Status == drag.Target {
			style = LaneTargetStyle
		}
		cols = append(cols, style.Width(laneWidth).Height(height).Render(m.renderLane(i, lane, laneWidth-2, drag, dragging)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderLane(idx int, lane board.Lane, width int, drag board.Drag, dragging bool) string {
	var s strings.Builder
	s.WriteString(StatusStyle(lane.Status).Render(fmt.Sprintf("%s (%d)", lane.Status.Label(), len(lane.Items))))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", width)))
	s.WriteString("\n")

	if lane.Column.ID == 0 {
		s.WriteString(HelpStyle.Render("no column"))
		s.WriteString("\n")
	}
	if len(lane.Items) == 0 {
		s.WriteString(HelpStyle.Render("empty"))
		return s.String()
	}

	now := time.Now()
	for r, it := range lane.Items {
		style := CardStyle
		cursor := "  "
		switch {
		case dragging && it.ID == drag.Item.ID:
			style = CardGhostStyle
		case !dragging && idx == m.col && r == m.row:
			style = CardSelectedStyle
			cursor = "❯ "
		}
		s.WriteString(style.Render(cursor + truncate(it.Title, width-4)))
		s.WriteString("\n")
		s.WriteString(style.Render("  " + m.cardMeta(it, now)))
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) cardMeta(it model.Item, now time.Time) string {
	parts := []string{fmt.Sprintf("#%d", it.ID)}
	if it.Type != "" && it.Type != model.TypeTask {
		parts = append(parts, string(it.Type))
	}
	if badge := FormatPriority(it.Priority); badge != "" {
		parts = append(parts, strings.TrimSpace(badge))
	}
	if d, ok := it.Due(); ok {
		due := d.Format("Jan 2")
		if it.IsOverdue(now) {
			due = noticeStyle(NoticeError).Render("!" + due)
		}
		parts = append(parts, due)
	}
	if it.AssigneeName != "" {
		parts = append(parts, "@"+it.AssigneeName)
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatusBar() string {
	// The dragged card floats in the status area
	if drag, ok := m.board.Dragged(); ok {
		preview := PreviewStyle.Render(truncate(drag.Item.Title, 40))
		hint := HelpStyle.Render(fmt.Sprintf("  %s → %s   h/l:target  enter:drop  esc:cancel",
			drag.From.Label(), drag.Target.Label()))
		return lipgloss.JoinHorizontal(lipgloss.Center, preview, hint)
	}

	help := "h/l:column  j/k:card  space:pick up  a:add  d:delete  r:refresh  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	if m.notices != nil && m.mode != ModeConfirmDelete {
		if n, ok := m.notices.Latest(); ok {
			help = renderNotice(n)
		}
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func renderNotice(n notify.Notice) string {
	switch n.Level {
	case notify.Error:
		return noticeStyle(NoticeError).Render("✗ " + n.Message)
	case notify.Success:
		return noticeStyle(NoticeSuccess).Render("✓ " + n.Message)
	default:
		return noticeStyle(NoticeInfo).Render(n.Message)
	}
}

func (m Model) renderModal() string {
	title := "Add Task"
	lanes := m.lanes()
	if m.col < len(lanes) {
		title = fmt.Sprintf("Add Task to: %s", lanes[m.col].Status.Label())
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  h/l    Column           │
│  j/k    Card             │
│                          │
│  Moving cards            │
│  ────────────            │
│  space  Pick up card     │
│  h/l    Choose column    │
│  enter  Drop             │
│  esc    Cancel           │
│                          │
│  Actions                 │
│  ───────                 │
│  a      Add task         │
│  d      Delete task      │
│  r      Refresh          │
│                          │
│  Other                   │
│  ─────                   │
│  ?      Toggle help      │
│  q      Quit             │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, help)
}
