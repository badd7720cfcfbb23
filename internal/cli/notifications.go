package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "List your notifications",
	RunE:    runNotifications,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationRead,
}

var notificationsUnread bool

func init() {
	notificationsCmd.Flags().BoolVarP(&notificationsUnread, "unread", "u", false, "Only show unread notifications")
	notificationsCmd.AddCommand(notificationsReadCmd)
}

func runNotifications(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}

	list, err := app.Client.Notifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}

	shown := 0
	for _, n := range list {
		if notificationsUnread && n.IsRead {
			continue
		}
		marker := "•"
		if n.IsRead {
			marker = " "
		}
		fmt.Fprintf(out, "%s #%-5d %s\n", marker, n.ID, n.Message)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "📭 No notifications")
	}
	return nil
}

func runNotificationRead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if _, err := app.requireLogin(ctx); err != nil {
		return err
	}
	if err := app.Client.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Marked #%d as read\n", id)
	return nil
}
