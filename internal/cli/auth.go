package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Sign in to the IronBoard server, create an account, or sign out.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and forget the stored token",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account and login",
	RunE:  runRegister,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("username", "", "Username")
	registerCmd.Flags().String("email", "", "Account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPrompter(cmd)

	email, _ := cmd.Flags().GetString("email")
	email, err := p.orPrompt(email, "Email: ")
	if err != nil {
		return err
	}
	password, err := p.password("Password: ")
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	fmt.Fprintln(out, "🔄 Logging in...")
	u, err := app.Session.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(out, "✅ Logged in as %s\n", u.DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if err := app.Session.Initialize(ctx); err != nil {
		return err
	}

	if !app.Session.LoggedIn() {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	if err := app.Session.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅ Logged out successfully.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPrompter(cmd)

	username, _ := cmd.Flags().GetString("username")
	username, err := p.orPrompt(username, "Username: ")
	if err != nil {
		return err
	}
	email, _ := cmd.Flags().GetString("email")
	email, err = p.orPrompt(email, "Email: ")
	if err != nil {
		return err
	}
	password, err := p.password("Password: ")
	if err != nil {
		return err
	}
	confirm, err := p.password("Confirm Password: ")
	if err != nil {
		return err
	}

	if username == "" || email == "" || password == "" {
		return errors.New("username, email and password are required")
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	fmt.Fprintln(out, "🔄 Creating account...")
	u, err := app.Session.Register(cmd.Context(), username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(out, "✅ Account created and logged in as %s\n", u.DisplayName())
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if err := app.Session.Initialize(ctx); err != nil {
		return err
	}

	u := app.Session.User()
	if u == nil {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	fmt.Fprintf(out, "👤 %s <%s> (id %d)\n", u.DisplayName(), u.Email, u.ID)
	fmt.Fprintf(out, "   Server: %s\n", app.Client.BaseURL())
	if exp := app.Session.ExpiresAt(ctx); !exp.IsZero() {
		fmt.Fprintf(out, "   Token expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}
