package cli

import (
	"fmt"

	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change a task's fields",
	Long: `Change one or more fields of a task. Only the flags you pass are sent.
Use 'ironboard task move' to change its column.

Examples:
  ironboard task edit 12 --title "Fix login redirect on Safari"
  ironboard task edit 12 -p Critical --due 2025-07-01
  ironboard task edit 12 --assignee bob`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	f := taskEditCmd.Flags()
	f.String("title", "", "New title")
	f.String("description", "", "New description")
	f.StringP("type", "t", "", "New type (task, bug, feature, epic)")
	f.StringP("priority", "p", "", "New priority (Low, Medium, High, Critical)")
	f.StringP("assignee", "a", "", "New assignee user id, username or email")
	f.StringP("due", "d", "", "New due date (YYYY-MM-DD), empty to clear")
}

// openItem fetches an item and resolves the caller's role in its project
func openItem(cmd *cobra.Command, arg string) (*model.Item, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return nil, err
	}
	it, err := app.Client.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %d: %w", id, err)
	}
	if _, err := app.openProject(ctx, it.ProjectID); err != nil {
		return nil, err
	}
	return it, nil
}

// mayChange reports whether the resolved role allows touching it, either
// through anyCap or through ownCap on an item the caller reported or is
// assigned. With no resolved role the server decides.
func mayChange(it *model.Item, anyCap, ownCap model.Capability) bool {
	if app.Project.Role() == "" {
		return true
	}
	if app.Project.HasPermission(anyCap) {
		return true
	}
	u := app.Session.User()
	if u == nil || !app.Project.HasPermission(ownCap) {
		return false
	}
	return it.ReporterID == u.ID || it.IsAssignee(u.ID)
}

func runEdit(cmd *cobra.Command, args []string) error {
	it, err := openItem(cmd, args[0])
	if err != nil {
		return err
	}
	if !mayChange(it, model.CapEditAnyTask, model.CapEditOwnTask) {
		return fmt.Errorf("your role (%s) cannot edit task #%d", app.Project.Role(), it.ID)
	}

	f := cmd.Flags()
	var patch model.ItemPatch
	if f.Changed("title") {
		v, _ := f.GetString("title")
		patch.Title = &v
	}
	if f.Changed("description") {
		v, _ := f.GetString("description")
		patch.Description = &v
	}
	if f.Changed("type") {
		v, _ := f.GetString("type")
		t, err := model.ParseItemType(v)
		if err != nil {
			return err
		}
		patch.Type = &t
	}
	if f.Changed("priority") {
		v, _ := f.GetString("priority")
		p, err := model.ParsePriority(v)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	if f.Changed("assignee") {
		v, _ := f.GetString("assignee")
		uid, err := resolveMember(v)
		if err != nil {
			return err
		}
		patch.AssigneeID = &uid
	}
	if f.Changed("due") {
		v, _ := f.GetString("due")
		patch.DueDate = &v
	}

	if patch.Empty() {
		return fmt.Errorf("nothing to change, pass at least one flag")
	}
	if err := app.Client.UpdateItem(cmd.Context(), it.ID, patch); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated #%d\n", it.ID)
	return nil
}
