package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/pakbooking/internal/domain"
	"github.com/diagnosis/pakbooking/internal/tokenstore"
	"github.com/diagnosis/pakbooking/pkg/auth"
	"github.com/spf13/cobra"
)

// readSecret returns flagValue, or the first line of stdin when the flag
// was not given.
func readSecret(cmd *cobra.Command, flagValue, name string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read %s from stdin: %w", name, err)
		}
		return "", fmt.Errorf("%s is required", name)
	}
	return line, nil
}

func (r *root) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			pw, err := readSecret(cmd, password, "password")
			if err != nil {
				return err
			}
			u, err := r.app.Session.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", r.app.Prefs.T("auth.login_success"), u.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when omitted)")
	return cmd
}

func (r *root) registerCmd() *cobra.Command {
	var in domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Email == "" {
				return errors.New("--email is required")
			}
			pw, err := readSecret(cmd, in.Password, "password")
			if err != nil {
				return err
			}
			in.Password = pw
			if _, err := r.app.Session.Register(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.app.Prefs.T("auth.register_success"))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (read from stdin when omitted)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	return cmd
}

func (r *root) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.app.Prefs.T("auth.logout_success"))
			return nil
		},
	}
}

func (r *root) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := r.app.RequireLogin(cmd.Context())
			if err != nil {
				return err
			}
			u := snap.User
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:     %s\n", u.ID)
			fmt.Fprintf(out, "Name:   %s\n", u.DisplayName())
			fmt.Fprintf(out, "Email:  %s\n", u.Email)
			if u.Phone != "" {
				fmt.Fprintf(out, "Phone:  %s\n", u.Phone)
			}
			if u.IsStaff {
				fmt.Fprintln(out, "Role:   staff")
			}
			return nil
		},
	}
}

func (r *root) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and session status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			cfg := r.app.Config

			fmt.Fprintf(out, "API:       %s\n", cfg.API.BaseURL)
			fmt.Fprintf(out, "Tokens:    %s\n", cfg.Storage.TokenBackend)
			fmt.Fprintf(out, "%-10s %s\n", r.app.Prefs.T("prefs.theme")+":", r.app.Prefs.Theme())
			fmt.Fprintf(out, "%-10s %s\n", r.app.Prefs.T("prefs.language")+":", r.app.Prefs.Language())

			// Inspect before bootstrapping: a refresh would replace the token.
			pair, err := tokenstore.Load(ctx, r.app.Tokens)
			if err != nil {
				return err
			}
			if pair.Access != "" {
				if left, ok := auth.ExpiresIn(pair.Access, time.Now()); ok {
					if left > 0 {
						fmt.Fprintf(out, "Access:    expires in %s\n", left.Round(time.Second))
					} else {
						fmt.Fprintln(out, "Access:    expired")
					}
				}
			}

			snap, err := r.app.Bootstrap(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Session:   %s", snap.State)
			if snap.User != nil {
				fmt.Fprintf(out, " (%s)", snap.User.Email)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func (r *root) profileCmd() *cobra.Command {
	var first, last, phone, oldPassword, newPassword string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your name, phone or password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := r.app.RequireLogin(ctx); err != nil {
				return err
			}

			var p domain.ProfilePatch
			if cmd.Flags().Changed("first-name") {
				p.FirstName = &first
			}
			if cmd.Flags().Changed("last-name") {
				p.LastName = &last
			}
			if cmd.Flags().Changed("phone") {
				p.Phone = &phone
			}
			changingPassword := oldPassword != "" || newPassword != ""
			if p.IsEmpty() && !changingPassword {
				return errors.New("nothing to update")
			}

			if !p.IsEmpty() {
				if _, err := r.app.Session.UpdateProfile(ctx, p); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.app.Prefs.T("auth.profile_updated"))
			}
			if changingPassword {
				if oldPassword == "" || newPassword == "" {
					return errors.New("--old-password and --new-password go together")
				}
				if err := r.app.API.Auth.ChangePassword(ctx, oldPassword, newPassword); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first-name", "", "First name")
	cmd.Flags().StringVar(&last, "last-name", "", "Last name")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&oldPassword, "old-password", "", "Current password")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password")
	return cmd
}
