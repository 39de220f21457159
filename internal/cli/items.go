package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/wishlists/internal/detail"
)

func mountEditor(ctx context.Context, app *App, wishlistID string) (*detail.Editor, error) {
	s, store, err := app.signedIn(ctx)
	if err != nil {
		return nil, err
	}
	e := detail.New(store, s, wishlistID, app.logger)
	if err := e.Mount(ctx); err != nil {
		e.Unmount()
		return nil, explain(err)
	}
	return e, nil
}

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items <wishlist-id>",
		Short: "Show the items of a wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := mountEditor(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			defer e.Unmount()

			view := e.View()
			out := map[string]any{"id": args[0], "title": view.Title, "items": view.Items}
			return writeOut(cmd, app, out, func(w io.Writer) error {
				return writeItemTable(w, view.Title, view.Items)
			})
		},
	}

	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsRemoveCmd(app))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <wishlist-id> <name>...",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")

			e, err := mountEditor(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			defer e.Unmount()

			item, err := e.AddItem(cmd.Context(), name)
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, app, item, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added %q (%s)\n", item.Name, item.ID)
				return err
			})
		},
	}
}

func newItemsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <wishlist-id> <item-id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := mountEditor(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			defer e.Unmount()

			if err := e.RemoveItem(cmd.Context(), args[1]); err != nil {
				return explain(err)
			}
			return writeOut(cmd, app, map[string]string{"id": args[1]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed %s\n", args[1])
				return err
			})
		},
	}
}
