package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/wishlists/internal/models"
)

type wishlistOut struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CreatedBy  string   `json:"createdBy"`
	SharedWith []string `json:"sharedWith"`
}

func toWishlistsOut(lists []models.Wishlist) []wishlistOut {
	out := make([]wishlistOut, len(lists))
	for i, w := range lists {
		out[i] = wishlistOut{ID: w.ID, Name: w.Name, CreatedBy: w.CreatedBy, SharedWith: w.SharedWith}
	}
	return out
}

// writeOut prints v as a {"data": v} envelope in json mode, or calls text otherwise.
func writeOut(cmd *cobra.Command, app *App, v any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if app.Format == "json" {
		enc := json.NewEncoder(w)
		if app.PrettyJSON {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(map[string]any{"data": v})
	}
	return text(w)
}

func writeWishlistTable(w io.Writer, title string, lists []models.Wishlist) error {
	fmt.Fprintf(w, "%s (%d)\n", title, len(lists))
	if len(lists) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME")
	for _, l := range lists {
		fmt.Fprintf(tw, "  %s\t%s\n", l.ID, l.Name)
	}
	return tw.Flush()
}

func writeItemTable(w io.Writer, title string, items []models.Item) error {
	fmt.Fprintf(w, "%s (%d)\n", title, len(items))
	if len(items) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME")
	for _, it := range items {
		fmt.Fprintf(tw, "  %s\t%s\n", it.ID, it.Name)
	}
	return tw.Flush()
}
