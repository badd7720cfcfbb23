package cli

import (
	"fmt"

	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var taskDeleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task by its ID.

Examples:
  ironboard task delete 12
  ironboard task rm 12 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteYes bool

func init() {
	taskDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	it, err := openItem(cmd, args[0])
	if err != nil {
		return err
	}
	if !mayChange(it, model.CapDeleteAnyTask, model.CapDeleteOwnTask) {
		return fmt.Errorf("your role (%s) cannot delete task #%d", app.Project.Role(), it.ID)
	}

	if app.Config.ConfirmDelete && !deleteYes {
		fmt.Fprintf(out, "About to delete: \"%s\" (ID: %d)\n", it.Title, it.ID)
		if !newPrompter(cmd).confirm("Are you sure?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := app.Client.DeleteItem(cmd.Context(), it.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	fmt.Fprintf(out, "🗑️  Deleted: \"%s\"\n", it.Title)
	return nil
}
