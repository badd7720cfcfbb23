package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [project-id]",
	Short: "Show a project report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show your counts across projects",
	RunE:  runDashboard,
}

func runReport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	var explicit int64
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		explicit = id
	}
	id, err := app.projectID(explicit)
	if err != nil {
		return err
	}

	r, err := app.Client.ProjectReport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	pct := 0
	if r.Stats.Total > 0 {
		pct = r.Stats.Done * 100 / r.Stats.Total
	}
	fmt.Fprintf(out, "\n📊 %s\n", r.Project.Name)
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintf(out, "  Tasks:    %d\n", r.Stats.Total)
	fmt.Fprintf(out, "  Done:     %d (%d%%)\n", r.Stats.Done, pct)
	fmt.Fprintf(out, "  Members:  %d\n\n", len(r.Members))
	if len(r.Members) > 0 {
		printMembers(out, r.Members)
		fmt.Fprintln(out)
	}
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	u, err := app.requireLogin(ctx)
	if err != nil {
		return err
	}

	stats, err := app.Client.DashboardStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}

	fmt.Fprintf(out, "\n👋 %s\n", u.DisplayName())
	fmt.Fprintf(out, "  Projects: %d\n", stats.ProjectCount)
	fmt.Fprintf(out, "  Tasks:    %d\n", stats.TaskCount)
	fmt.Fprintf(out, "  Teams:    %d\n\n", stats.TeamCount)
	return nil
}
