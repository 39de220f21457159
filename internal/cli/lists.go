package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/wishlists/internal/registry"
)

// mountRegistry returns a loaded registry for the signed-in user.
func mountRegistry(ctx context.Context, app *App) (*registry.Registry, error) {
	s, store, err := app.signedIn(ctx)
	if err != nil {
		return nil, err
	}
	reg := registry.New(store, s, app.logger)
	if err := reg.Mount(ctx); err != nil {
		reg.Unmount()
		return nil, explain(err)
	}
	return reg, nil
}

func newListsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "lists",
		Aliases: []string{"ls"},
		Short:   "Show your wishlists and the ones shared with you",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := mountRegistry(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer reg.Unmount()

			view := reg.View()
			out := map[string]any{
				"owned":  toWishlistsOut(view.Owned),
				"shared": toWishlistsOut(view.Shared),
			}
			return writeOut(cmd, app, out, func(w io.Writer) error {
				if err := writeWishlistTable(w, "My wishlists", view.Owned); err != nil {
					return err
				}
				return writeWishlistTable(w, "Shared with me", view.Shared)
			})
		},
	}
}

func newCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := mountRegistry(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer reg.Unmount()

			var opened string
			reg.OnNavigate(func(id string) { opened = id })

			id, err := reg.Create(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			app.logger.Debug("Created wishlist", "id", id, "navigated", opened)

			return writeOut(cmd, app, map[string]string{"id": id, "name": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created %q (%s)\n", args[0], id)
				return err
			})
		},
	}
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <wishlist-id> <name>",
		Short: "Rename one of your wishlists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, name := args[0], args[1]

			reg, err := mountRegistry(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer reg.Unmount()

			if err := reg.BeginRename(id); err != nil {
				return err
			}
			if err := reg.Rename(cmd.Context(), id, name); err != nil {
				reg.CancelRename()
				return explain(err)
			}

			return writeOut(cmd, app, map[string]string{"id": id, "name": name}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Renamed %s to %q\n", id, name)
				return err
			})
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <wishlist-id>",
		Short: "Delete one of your wishlists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			reg, err := mountRegistry(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer reg.Unmount()

			if err := reg.RequestDelete(id); err != nil {
				return err
			}

			confirmed := yes
			if !confirmed {
				name := id
				for _, w := range reg.View().Owned {
					if w.ID == id {
						name = w.Name
					}
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete wishlist %q? [y/N] ", name)
				answer, err := readLine(cmd.InOrStdin())
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				answer = strings.ToLower(strings.TrimSpace(answer))
				confirmed = answer == "y" || answer == "yes"
			}

			if !confirmed {
				reg.CancelDelete()
				return writeOut(cmd, app, map[string]any{"id": id, "deleted": false}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Cancelled")
					return err
				})
			}

			if err := reg.ConfirmDelete(cmd.Context(), id); err != nil {
				return explain(err)
			}
			return writeOut(cmd, app, map[string]any{"id": id, "deleted": true}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted %s\n", id)
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
