package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var taskCommentCmd = &cobra.Command{
	Use:   "comment [task-id] [text]",
	Short: "Comment on a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runComment,
}

func runComment(cmd *cobra.Command, args []string) error {
	it, err := openItem(cmd, args[0])
	if err != nil {
		return err
	}
	if app.Project.Role() != "" && !app.Project.HasPermission(model.CapAddComment) {
		return fmt.Errorf("your role (%s) cannot comment", app.Project.Role())
	}

	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if _, err := app.Client.AddComment(cmd.Context(), it.ID, text); err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "💬 Commented on #%d \"%s\"\n", it.ID, it.Title)
	return nil
}
