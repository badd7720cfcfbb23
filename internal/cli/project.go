package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `Create, list, and inspect the projects you belong to.`,
}

var projectCreateCmd = &cobra.Command{
	Use:     "create [name]",
	Aliases: []string{"new"},
	Short:   "Create a new project",
	Long: `Create a new project. You become its admin and the default
board columns are created for it.

Examples:
  ironboard project create "Website"
  ironboard project create "Mobile" -d "iOS and Android apps"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all projects",
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show a project with its progress and members",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectShow,
}

var projectDescription string

func init() {
	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Project description")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("project name required")
	}

	p, err := app.Client.CreateProject(ctx, name, projectDescription)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project: %s (id: %d)\n", p.Name, p.ID)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	return printProjects(cmd)
}

// printProjects lists the caller's projects, marking the selected one
func printProjects(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	projects, err := app.Client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found. Create one with: ironboard project create \"Name\"")
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-6s  %-24s  %s\n", "ID", "Name", "Done")
	fmt.Fprintln(out, strings.Repeat("─", 50))

	for _, p := range projects {
		marker := "  "
		if p.ID == app.Config.DefaultProject {
			marker = "❯ "
		}
		done := "-"
		if prog, err := app.Client.ProjectProgress(ctx, p.ID); err == nil {
			done = fmt.Sprintf("%d/%d", prog.Completed, prog.Total)
		}
		fmt.Fprintf(out, "%s%-6d  %-24s  %s\n", marker, p.ID, truncate(p.Name, 24), done)
	}

	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "  %d projects\n\n", len(projects))
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	var explicit int64
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		explicit = id
	}

	p, err := app.openProject(ctx, explicit)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n📁 %s (#%d)\n", p.Name, p.ID)
	if p.Description != "" {
		fmt.Fprintf(out, "   %s\n", p.Description)
	}
	if p.OwnerTeam != nil {
		fmt.Fprintf(out, "   Team: %s\n", p.OwnerTeam.Name)
	}
	if role := app.Project.Role(); role != "" {
		fmt.Fprintf(out, "   Your role: %s\n", role)
	}

	if prog, err := app.Client.ProjectProgress(ctx, p.ID); err == nil {
		fmt.Fprintf(out, "   Progress: %d/%d done, %d in progress, %d to do\n",
			prog.Completed, prog.Total, prog.InProgress, prog.Todo)
	}

	members := app.Project.Members()
	if len(members) > 0 {
		fmt.Fprintln(out)
		printMembers(out, members)
	}
	fmt.Fprintln(out)
	return nil
}
