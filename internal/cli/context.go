package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the selected project",
	Long: `Set or view the selected project.

Board, task and member commands act on the selected project unless
--project is given.

Examples:
  ironboard context              # Show the selected project and your role
  ironboard context ls           # List your projects
  ironboard context set 3        # Select project 3
  ironboard context clear        # Clear the selection`,
	RunE: runContextShow,
}

var contextLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all projects",
	RunE:    runContextList,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [project-id]",
	Short: "Select a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the selected project",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextLsCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func runContextShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if app.Config.DefaultProject == 0 {
		fmt.Fprintln(out, "📥 No project selected")
		return nil
	}

	p, err := app.openProject(cmd.Context(), 0)
	if err != nil {
		return err
	}

	role := app.Project.Role()
	if role == "" {
		fmt.Fprintf(out, "⚠️  %s: you are not a member of this project\n", p.Name)
		return nil
	}
	fmt.Fprintf(out, "📁 Current project: %s (#%d) as %s\n", p.Name, p.ID, role)
	return nil
}

func runContextList(cmd *cobra.Command, args []string) error {
	if err := printProjects(cmd); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Use 'ironboard context set <project-id>' to switch project")
	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	p, err := app.openProject(cmd.Context(), id)
	if err != nil {
		return err
	}

	app.Config.DefaultProject = p.ID
	if err := app.Config.Save(); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "📁 Switched to: %s\n", p.Name)
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	app.Config.DefaultProject = 0
	if err := app.Config.Save(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "📥 Project selection cleared")
	return nil
}
