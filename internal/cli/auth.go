package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/wishlists/internal/identity"
)

type principalOut struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func writePrincipal(cmd *cobra.Command, app *App, p identity.Principal, verb string) error {
	out := principalOut{ID: p.ID, Email: p.Email, DisplayName: p.DisplayName}
	return writeOut(cmd, app, out, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s %s <%s> (%s)\n", verb, p.DisplayName, p.Email, p.ID)
		return err
	})
}

func newRegisterCmd(app *App) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || name == "" {
				return errors.New("--email and --name are required")
			}
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = app.ReadPassword(cmd, "Choose a password: "); err != nil {
					return err
				}
			}
			if err := s.Register(cmd.Context(), email, name, password); err != nil {
				return err
			}
			p, _ := s.Current()
			return writePrincipal(cmd, app, p, "Signed in as")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", envOr("WISHLISTS_PASSWORD", ""), "Password (prompted when empty)")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = app.ReadPassword(cmd, "Password: "); err != nil {
					return err
				}
			}
			if err := s.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}
			p, _ := s.Current()
			return writePrincipal(cmd, app, p, "Signed in as")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", envOr("WISHLISTS_PASSWORD", ""), "Password (prompted when empty)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.SignOut(cmd.Context()); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]bool{"signedIn": false}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Signed out")
				return err
			})
		},
	}
}

func newWhoAmICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := s.Current()
			if !ok {
				return errNotSignedIn
			}
			return writePrincipal(cmd, app, p, "Signed in as")
		},
	}
}
