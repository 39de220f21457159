// Package cli implements the wishlists command line client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmynk/wishlists/internal/config"
	"github.com/mmynk/wishlists/internal/docstore/remote"
	"github.com/mmynk/wishlists/internal/identity"
	"github.com/mmynk/wishlists/internal/models"
	"github.com/mmynk/wishlists/pkg/logging"
)

var errNotSignedIn = errors.New("not signed in; run `wishlists login` first")

type App struct {
	ConfigPath string
	ServerURL  string
	StatePath  string
	Format     string
	PrettyJSON bool
	LogLevel   string

	// HTTPClient and ReadPassword are replaced in tests.
	HTTPClient   connect.HTTPClient
	ReadPassword func(cmd *cobra.Command, prompt string) (string, error)

	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	if app.ReadPassword == nil {
		app.ReadPassword = readPassword
	}
	app.logger = logging.Discard()

	cmd := &cobra.Command{
		Use:          "wishlists",
		Short:        "Create, share, and edit wishlists",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in once; the session is remembered
  wishlists login --email you@example.com

  # Your lists and the ones shared with you
  wishlists lists

  # Work on one list
  wishlists create Birthday
  wishlists items add <wishlist-id> "Board game"
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(app.LogLevel), "text")
		switch app.Format {
		case "text", "json":
			return nil
		default:
			return fmt.Errorf("unknown --format %q (want text or json)", app.Format)
		}
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("WISHLISTS_CONFIG", ""), "Path to config.toml (default: user config dir)")
	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", "", "Server URL (overrides config and WISHLISTS_SERVER)")
	cmd.PersistentFlags().StringVar(&app.StatePath, "state", envOr("WISHLISTS_STATE", ""), "Path to the saved session")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("WISHLISTS_FORMAT", "text"), "Output format (text|json)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoAmICmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newItemsCmd(app))

	return cmd
}

// resolve fills ServerURL and StatePath from flags, config, and defaults.
func (app *App) resolve() error {
	path := app.ConfigPath
	if path == "" {
		p, err := config.DefaultClientPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.LoadClient(path)
	if err != nil {
		return err
	}

	if app.ServerURL == "" {
		app.ServerURL = cfg.ServerURL
	}
	app.ServerURL = strings.TrimRight(app.ServerURL, "/")
	if app.StatePath == "" {
		app.StatePath = cfg.StatePath
	}
	if app.StatePath == "" {
		p, err := identity.DefaultStatePath()
		if err != nil {
			return err
		}
		app.StatePath = p
	}
	return nil
}

// session returns the saved session, checked against the server.
func (app *App) session(ctx context.Context) (*identity.Session, error) {
	if err := app.resolve(); err != nil {
		return nil, err
	}
	s := identity.NewSession(app.HTTPClient, app.ServerURL, app.StatePath, app.logger)
	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// signedIn is session plus a remote document store, failing when nobody is signed in.
func (app *App) signedIn(ctx context.Context) (*identity.Session, *remote.Store, error) {
	s, err := app.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := s.Current(); !ok {
		return nil, nil, errNotSignedIn
	}
	return s, remote.New(app.HTTPClient, app.ServerURL, s.Token), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// explain turns core errors into CLI messages.
func explain(err error) error {
	switch {
	case errors.Is(err, models.ErrNotAuthenticated), remote.IsUnauthenticated(err):
		return errNotSignedIn
	default:
		return err
	}
}
