package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/ironboard/internal/board"
	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a task, bug, feature or epic to the selected project.

Examples:
  ironboard task add "Fix login redirect" --type bug -p High
  ironboard task add "Write release notes" --assignee alice --due 2025-07-01
  ironboard task add "Checkout v2" --type epic --status inprogress`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addType        string
	addStatus      string
	addPriority    string
	addAssignee    string
	addDue         string
	addParent      int64
	addDescription string
)

func init() {
	taskAddCmd.Flags().StringVarP(&addType, "type", "t", string(model.TypeTask), "Type (task, bug, feature, epic)")
	taskAddCmd.Flags().StringVarP(&addStatus, "status", "s", string(model.StatusTodo), "Column to add to")
	taskAddCmd.Flags().StringVarP(&addPriority, "priority", "p", string(model.PriorityMedium), "Priority (Low, Medium, High, Critical)")
	taskAddCmd.Flags().StringVarP(&addAssignee, "assignee", "a", "", "Assignee user id, username or email")
	taskAddCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().Int64Var(&addParent, "parent", 0, "Parent epic id")
	taskAddCmd.Flags().StringVar(&addDescription, "description", "", "Description")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	title := strings.Join(args, " ")

	itemType, err := model.ParseItemType(addType)
	if err != nil {
		return err
	}
	status, err := model.ParseStatus(addStatus)
	if err != nil {
		return err
	}
	priority, err := model.ParsePriority(addPriority)
	if err != nil {
		return err
	}

	p, b, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	if role := app.Project.Role(); role != "" && !app.Project.HasPermission(model.CapCreateTask) {
		return fmt.Errorf("your role (%s) cannot create tasks in %s", role, p.Name)
	}

	columnID, err := columnFor(cmd, b, status)
	if err != nil {
		return err
	}

	draft := model.ItemDraft{
		Title:       title,
		Description: addDescription,
		Type:        itemType,
		Status:      status,
		ColumnID:    columnID,
		Priority:    priority,
		DueDate:     addDue,
	}
	if addAssignee != "" {
		uid, err := resolveMember(addAssignee)
		if err != nil {
			return err
		}
		draft.AssigneeID = &uid
	}
	if addParent != 0 {
		parent := addParent
		draft.ParentID = &parent
	}

	it, err := app.Client.CreateItem(ctx, p.ID, draft)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added to [%s/%s]: \"%s\" (#%d, %s)\n",
		p.Name, status.Label(), it.Title, it.ID, priority)
	return nil
}

// columnFor finds the server column for a status, creating the default
// columns first when the project lacks them and the caller may manage it
func columnFor(cmd *cobra.Command, b *board.Board, status model.Status) (int64, error) {
	lookup := func() int64 {
		for _, lane := range b.Display() {
			if lane.Status == status {
				return lane.Column.ID
			}
		}
		return 0
	}
	if id := lookup(); id != 0 {
		return id, nil
	}
	if !app.Project.HasPermission(model.CapManageProject) {
		return 0, fmt.Errorf("project has no %s column", status.Label())
	}
	n, err := b.EnsureColumns(cmd.Context())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "🧱 Created %d missing board columns\n", n)
	}
	if id := lookup(); id != 0 {
		return id, nil
	}
	return 0, fmt.Errorf("project has no %s column", status.Label())
}

// resolveMember maps a user id, username or email to a member of the
// resolved project
func resolveMember(ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	for _, m := range app.Project.Members() {
		if strings.EqualFold(m.Username, ref) || strings.EqualFold(m.Email, ref) {
			return m.UserID, nil
		}
	}
	return 0, fmt.Errorf("no project member matches %q", ref)
}
