package cli

import (
	"fmt"

	"github.com/existflow/ironboard/internal/model"
	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:     "members",
	Aliases: []string{"member"},
	Short:   "Manage the selected project's members",
	RunE:    runMembersList,
}

var membersListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List members and their roles",
	RunE:    runMembersList,
}

var membersAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Add a registered user to the project",
	Long: `Add a registered user to the project by email.

Examples:
  ironboard members add bob@example.com
  ironboard members add carol@example.com --role manager`,
	Args: cobra.ExactArgs(1),
	RunE: runMembersAdd,
}

var membersRemoveCmd = &cobra.Command{
	Use:     "rm [user-id]",
	Aliases: []string{"remove"},
	Short:   "Remove a member from the project",
	Args:    cobra.ExactArgs(1),
	RunE:    runMembersRemove,
}

var membersRoleCmd = &cobra.Command{
	Use:   "role [user-id] [role]",
	Short: "Change a member's role (admin, manager, member, visitor)",
	Args:  cobra.ExactArgs(2),
	RunE:  runMembersRole,
}

var (
	membersProject int64
	memberRole     string
)

func init() {
	membersCmd.PersistentFlags().Int64VarP(&membersProject, "project", "P", 0, "Project id (default: selected project)")
	membersAddCmd.Flags().StringVarP(&memberRole, "role", "r", string(model.RoleMember), "Role for the new member")

	membersCmd.AddCommand(membersListCmd)
	membersCmd.AddCommand(membersAddCmd)
	membersCmd.AddCommand(membersRemoveCmd)
	membersCmd.AddCommand(membersRoleCmd)
}

// requireCapability refuses when the resolved role lacks c
func requireCapability(c model.Capability, action string) error {
	role := app.Project.Role()
	if role == "" {
		return nil
	}
	if !app.Project.HasPermission(c) {
		return fmt.Errorf("your role (%s) cannot %s", role, action)
	}
	return nil
}

func runMembersList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p, err := app.openProject(cmd.Context(), membersProject)
	if err != nil {
		return err
	}
	if err := app.Project.Err(); err != nil {
		return err
	}

	members := app.Project.Members()
	fmt.Fprintf(out, "\n👥 %s (%d members)\n\n", p.Name, len(members))
	printMembers(out, members)
	fmt.Fprintln(out)
	return nil
}

func runMembersAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	role, err := model.ParseRole(memberRole)
	if err != nil {
		return err
	}
	p, err := app.openProject(ctx, membersProject)
	if err != nil {
		return err
	}
	if err := requireCapability(model.CapAddRemoveMembers, "add members"); err != nil {
		return err
	}

	if err := app.Client.AddMember(ctx, p.ID, args[0], role); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s to %s as %s\n", args[0], p.Name, role)
	return nil
}

func runMembersRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	uid, err := parseID(args[0])
	if err != nil {
		return err
	}
	p, err := app.openProject(ctx, membersProject)
	if err != nil {
		return err
	}
	if err := requireCapability(model.CapAddRemoveMembers, "remove members"); err != nil {
		return err
	}
	if uid == p.AdminID {
		return fmt.Errorf("the project admin cannot be removed")
	}

	if err := app.Client.RemoveMember(ctx, p.ID, uid); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed user %d from %s\n", uid, p.Name)
	return nil
}

func runMembersRole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	uid, err := parseID(args[0])
	if err != nil {
		return err
	}
	role, err := model.ParseRole(args[1])
	if err != nil {
		return err
	}
	p, err := app.openProject(ctx, membersProject)
	if err != nil {
		return err
	}
	if err := requireCapability(model.CapManageProject, "change roles"); err != nil {
		return err
	}

	if err := app.Client.UpdateMemberRole(ctx, p.ID, uid, role); err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ User %d is now %s in %s\n", uid, role, p.Name)
	return nil
}
