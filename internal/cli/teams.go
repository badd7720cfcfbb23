package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:     "teams",
	Aliases: []string{"team"},
	Short:   "Manage teams",
	Long: `Teams group users. Every member of a team joins the projects
linked to it, and leaves them again when removed from the team.`,
	RunE: runTeamsList,
}

var teamsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List your teams",
	RunE:    runTeamsList,
}

var teamsCreateCmd = &cobra.Command{
	Use:     "create [name]",
	Aliases: []string{"new"},
	Short:   "Create a team you administer",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTeamsCreate,
}

var teamsShowCmd = &cobra.Command{
	Use:   "show [team-id]",
	Short: "Show a team's members and projects",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamsShow,
}

var teamsAddMemberCmd = &cobra.Command{
	Use:   "add-member [team-id] [email]",
	Short: "Add a registered user to a team",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamsAddMember,
}

var teamsRemoveMemberCmd = &cobra.Command{
	Use:   "rm-member [team-id] [user-id]",
	Short: "Remove a user from a team",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamsRemoveMember,
}

var teamsLinkCmd = &cobra.Command{
	Use:   "link [team-id] [project-id]",
	Short: "Give a team access to a project (default: selected project)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTeamsLink,
}

var teamsUnlinkCmd = &cobra.Command{
	Use:   "unlink [team-id] [project-id]",
	Short: "Remove a team's access to a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamsUnlink,
}

var (
	teamsAll         bool
	teamsDescription string
)

func init() {
	teamsListCmd.Flags().BoolVarP(&teamsAll, "all", "a", false, "List every team, not only yours")
	teamsCreateCmd.Flags().StringVarP(&teamsDescription, "description", "d", "", "Team description")

	teamsCmd.AddCommand(teamsListCmd)
	teamsCmd.AddCommand(teamsCreateCmd)
	teamsCmd.AddCommand(teamsShowCmd)
	teamsCmd.AddCommand(teamsAddMemberCmd)
	teamsCmd.AddCommand(teamsRemoveMemberCmd)
	teamsCmd.AddCommand(teamsLinkCmd)
	teamsCmd.AddCommand(teamsUnlinkCmd)
}

func runTeamsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	user, err := app.requireLogin(ctx)
	if err != nil {
		return err
	}

	var teams []model.Team
	if teamsAll {
		teams, err = app.Client.ListTeams(ctx)
	} else {
		teams, err = app.Client.MyTeams(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(teams) == 0 {
		fmt.Fprintln(out, "📭 No teams. Create one with 'ironboard teams create <name>'")
		return nil
	}
	fmt.Fprintln(out)
	for _, t := range teams {
		marker := "  "
		if t.AdminID == user.ID {
			marker = "★ "
		}
		fmt.Fprintf(out, "%s%-6d  %-24s  %s\n", marker, t.ID, truncate(t.Name, 24), truncate(t.Description, 40))
	}
	fmt.Fprintf(out, "\n  %d teams (★ = you administer)\n\n", len(teams))
	return nil
}

func runTeamsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(args, " "))
	t, err := app.Client.CreateTeam(ctx, name, teamsDescription)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created team: %s (id: %d)\n", t.Name, t.ID)
	return nil
}

func runTeamsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tid, err := parseID(args[0])
	if err != nil {
		return err
	}
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	t, err := app.Client.GetTeam(ctx, tid)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	printTeam(cmd.OutOrStdout(), t)
	return nil
}

func printTeam(out io.Writer, t *model.TeamDetail) {
	fmt.Fprintf(out, "\n👥 %s (#%d)\n", t.Name, t.ID)
	if t.Description != "" {
		fmt.Fprintf(out, "   %s\n", t.Description)
	}

	fmt.Fprintf(out, "\n  Members (%d)\n", len(t.Members))
	for _, m := range t.Members {
		admin := ""
		if m.IsAdmin {
			admin = "admin"
		}
		fmt.Fprintf(out, "  %-6d  %-16s  %-28s  %s\n", m.ID, truncate(m.Username, 16), truncate(m.Email, 28), admin)
	}

	fmt.Fprintf(out, "\n  Projects (%d)\n", len(t.Projects))
	for _, p := range t.Projects {
		fmt.Fprintf(out, "  %-6d  %s\n", p.ID, p.Name)
	}
	fmt.Fprintln(out)
}

// teamAdmin loads a team and refuses unless the caller administers it
func teamAdmin(ctx context.Context, arg string) (*model.TeamDetail, error) {
	tid, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	user, err := app.requireLogin(ctx)
	if err != nil {
		return nil, err
	}
	t, err := app.Client.GetTeam(ctx, tid)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if t.AdminID != user.ID {
		return nil, fmt.Errorf("only the admin of %s can change it", t.Name)
	}
	return t, nil
}

func runTeamsAddMember(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := teamAdmin(ctx, args[0])
	if err != nil {
		return err
	}

	if err := app.Client.AddTeamMember(ctx, t.ID, args[1]); err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s to %s\n", args[1], t.Name)
	if n := len(t.Projects); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  They joined %d linked projects\n", n)
	}
	return nil
}

func runTeamsRemoveMember(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	uid, err := parseID(args[1])
	if err != nil {
		return err
	}
	t, err := teamAdmin(ctx, args[0])
	if err != nil {
		return err
	}
	if uid == t.AdminID {
		return fmt.Errorf("the team admin cannot be removed")
	}

	if err := app.Client.RemoveTeamMember(ctx, t.ID, uid); err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed user %d from %s\n", uid, t.Name)
	return nil
}

func runTeamsLink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := teamAdmin(ctx, args[0])
	if err != nil {
		return err
	}

	var explicit int64
	if len(args) == 2 {
		if explicit, err = parseID(args[1]); err != nil {
			return err
		}
	}
	p, err := app.openProject(ctx, explicit)
	if err != nil {
		return err
	}
	if err := requireCapability(model.CapAddRemoveMembers, "add members"); err != nil {
		return err
	}

	if err := app.Client.LinkTeamProject(ctx, t.ID, p.ID); err != nil {
		return fmt.Errorf("failed to link project: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Linked %s to %s (%d members)\n", p.Name, t.Name, len(t.Members))
	return nil
}

func runTeamsUnlink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pid, err := parseID(args[1])
	if err != nil {
		return err
	}
	t, err := teamAdmin(ctx, args[0])
	if err != nil {
		return err
	}

	if err := app.Client.UnlinkTeamProject(ctx, t.ID, pid); err != nil {
		return fmt.Errorf("failed to unlink project: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Unlinked project %d from %s\n", pid, t.Name)
	return nil
}
