package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/tui"
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printLane(w io.Writer, st model.Status, items []model.Item) {
	fmt.Fprintf(w, "\n%s (%d)\n", tui.StatusStyle(st).Render(st.Label()), len(items))
	fmt.Fprintln(w, strings.Repeat("─", 72))
	if len(items) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	now := time.Now()
	for _, it := range items {
		printItemLine(w, it, now)
	}
}

func printItemLine(w io.Writer, it model.Item, now time.Time) {
	due := ""
	if d, ok := it.Due(); ok {
		due = d.Format("Jan 2")
		if it.IsOverdue(now) {
			due = "! " + due
		}
	}
	assignee := it.AssigneeName
	if assignee == "" && it.AssigneeID == nil {
		assignee = "-"
	}
	fmt.Fprintf(w, "  #%-5d %-8s %-40s %-12s %-8s %s\n",
		it.ID, it.Type, truncate(it.Title, 40), truncate(assignee, 12), due, tui.FormatPriority(it.Priority))
}

func printItemDetail(w io.Writer, it *model.Item) {
	fmt.Fprintf(w, "\n#%d %s\n", it.ID, it.Title)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  Type:      %s\n", it.Type)
	fmt.Fprintf(w, "  Status:    %s\n", tui.StatusStyle(it.Status).Render(it.Status.Label()))
	if it.Priority != "" {
		fmt.Fprintf(w, "  Priority:  %s\n", tui.FormatPriority(it.Priority))
	}
	if it.AssigneeName != "" {
		fmt.Fprintf(w, "  Assignee:  %s\n", it.AssigneeName)
	}
	if it.ReporterName != "" {
		fmt.Fprintf(w, "  Reporter:  %s\n", it.ReporterName)
	}
	if it.DueDate != "" {
		due := it.DueDate
		if d, ok := it.Due(); ok {
			due = d.Format(model.DateLayout)
		}
		if it.IsOverdue(time.Now()) {
			due += " (overdue)"
		}
		fmt.Fprintf(w, "  Due:       %s\n", due)
	}
	if it.ParentEpic != nil {
		fmt.Fprintf(w, "  Epic:      #%d %s\n", it.ParentEpic.ID, it.ParentEpic.Title)
	}
	if it.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", strings.ReplaceAll(it.Description, "\n", "\n  "))
	}
	if len(it.Subtasks) > 0 {
		fmt.Fprintf(w, "\n  Subtasks (%d)\n", len(it.Subtasks))
		for _, s := range it.Subtasks {
			fmt.Fprintf(w, "    #%-5d %-12s %s\n", s.ID, s.Status.Label(), s.Title)
		}
	}
	if len(it.Comments) > 0 {
		fmt.Fprintf(w, "\n  Comments (%d)\n", len(it.Comments))
		for _, c := range it.Comments {
			author := c.AuthorName
			if author == "" {
				author = fmt.Sprintf("user %d", c.UserID)
			}
			fmt.Fprintf(w, "    %s: %s\n", author, c.Content)
		}
	}
	fmt.Fprintln(w)
}

func printMembers(w io.Writer, members []model.Member) {
	fmt.Fprintf(w, "  %-6s  %-16s  %-28s  %s\n", "ID", "Username", "Email", "Role")
	fmt.Fprintln(w, strings.Repeat("─", 66))
	for _, m := range members {
		fmt.Fprintf(w, "  %-6d  %-16s  %-28s  %s\n", m.UserID, truncate(m.Username, 16), truncate(m.Email, 28), m.Role)
	}
}
