package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devilmonastery/clubhouse/internal/models"
	"github.com/devilmonastery/clubhouse/internal/session"
)

// formatDuration formats a duration in a human-friendly way (e.g., "2 days, 3 hours and 45 minutes")
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	units := []struct {
		n    int
		name string
	}{
		{int(d.Hours() / 24), "day"},
		{int(d.Hours()) % 24, "hour"},
		{int(d.Minutes()) % 60, "minute"},
	}

	var parts []string
	for _, u := range units {
		if u.n == 1 {
			parts = append(parts, "1 "+u.name)
		} else if u.n > 1 {
			parts = append(parts, fmt.Sprintf("%d %ss", u.n, u.name))
		}
	}
	if len(parts) == 0 {
		seconds := int(d.Seconds()) % 60
		if seconds == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", seconds)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage your clubhouse session and account recovery`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthTokenCommand())
	cmd.AddCommand(newAuthRegisterCommand())
	cmd.AddCommand(newAuthForgotPasswordCommand())
	cmd.AddCommand(newAuthVerifyCodeCommand())
	cmd.AddCommand(newAuthResetPasswordCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with a username or email address",
		Long: `Authenticate with the clubhouse backend.

Examples:
  # Prompt for credentials
  clubhouse auth login

  # Login with an email address, prompting for the password
  clubhouse auth login --username ana@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			in := bufio.NewReader(cmd.InOrStdin())

			var err error
			if username == "" {
				if username, err = promptLine(cmd.OutOrStdout(), in, "Username or email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptSecret(cmd.OutOrStdout(), in, "Password: "); err != nil {
					return err
				}
			}

			user, err := cc.Auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			cc.Logger.Info("login succeeded", "username", user.Username)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s (%s)\n", user.DisplayName(), cc.ContextName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username or email (prompted if empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if empty)")

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			if !cc.Auth.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := cc.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			out := cmd.OutOrStdout()
			if !cc.Auth.IsAuthenticated() {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			fmt.Fprintf(out, "Context: %s (%s)\n", cc.ContextName, cc.Client.BaseURL())
			if user, err := cc.Auth.FetchProfile(cmd.Context()); err == nil {
				fmt.Fprintf(out, "Logged in as: %s (%s)\n", user.DisplayName(), user.Username)
				fmt.Fprintf(out, "User ID: %d\n", user.ID)
			} else if !cc.Auth.IsAuthenticated() {
				fmt.Fprintln(out, "Session is no longer valid")
				return nil
			} else {
				fmt.Fprintf(out, "Could not reach server: %v\n", err)
			}

			claims, err := cc.Auth.Claims()
			if err != nil || claims.ExpiresAt.IsZero() {
				return nil
			}
			printExpiry(out, claims, clockwork.NewRealClock())
			return nil
		},
	}
}

func printExpiry(out io.Writer, claims *session.Claims, clock clockwork.Clock) {
	fmt.Fprintf(out, "Token expires: %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"))
	if claims.Expired(clock) {
		fmt.Fprintf(out, "⚠  Token expired %s ago - it will be renewed on the next request\n",
			formatDuration(clock.Since(claims.ExpiresAt)))
	} else {
		fmt.Fprintf(out, "✓  Valid for %s\n", formatDuration(claims.ExpiresIn(clock)))
	}
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Display the current access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			token, ok := cc.Credentials.Session.Token()
			if !ok {
				return fmt.Errorf("not logged in")
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newAuthRegisterCommand() *cobra.Command {
	var req models.EnrollRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			if req.Password == "" {
				pw, err := promptSecret(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), "Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}
			msg, err := cc.Auth.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			printMessage(cmd, msg, "✓ Account created, you can now log in")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "First name")
	f.StringVar(&req.LastName, "last-name", "", "Last name")
	f.StringVar(&req.Username, "username", "", "Username")
	f.StringVar(&req.Email, "email", "", "Email address")
	f.StringVar(&req.Phone, "phone", "", "Phone number")
	f.StringVar(&req.DocType, "doc-type", "", "Identity document type")
	f.StringVar(&req.DocNumber, "doc-number", "", "Identity document number")
	f.StringVar(&req.BirthDate, "birth-date", "", "Birth date (YYYY-MM-DD)")
	f.StringVar(&req.Gender, "gender", "", "Gender")
	f.StringVar(&req.Password, "password", "", "Password (prompted if empty)")
	for _, name := range []string{"first-name", "last-name", "username", "email"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newAuthForgotPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password EMAIL",
		Short: "Send a password reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := getCliContext(cmd).Auth.RequestPasswordReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, msg, "✓ If the address is registered, a reset code is on its way")
			return nil
		},
	}
}

func newAuthVerifyCodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-code CODE",
		Short: "Verify a password reset code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := getCliContext(cmd).Auth.VerifyResetCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMessage(cmd, msg, "✓ Code accepted")
			return nil
		},
	}
}

func newAuthResetPasswordCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password after verifying a reset code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptSecret(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), "New password: ")
				if err != nil {
					return err
				}
				password = pw
			}
			msg, err := getCliContext(cmd).Auth.SubmitNewPassword(cmd.Context(), password)
			if err != nil {
				return err
			}
			printMessage(cmd, msg, "✓ Password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if empty)")
	return cmd
}

func promptLine(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(out, in, label)
	}
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
