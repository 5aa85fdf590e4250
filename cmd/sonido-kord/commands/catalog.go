package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type catalogEntry struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Quality string   `json:"quality"`
	Notes   []string `json:"notes"`
}

func newCatalogCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the chord templates used for recognition",
		Long: `List the chord catalog in model output order.

The qualities come from the matcher section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := cfg.Matcher.Catalog()
			if err != nil {
				return err
			}

			entries := make([]catalogEntry, catalog.Len())
			for i, t := range catalog.Templates() {
				entries[i] = catalogEntry{
					Index:   i,
					Name:    t.Name(),
					Quality: t.Quality.Name,
					Notes:   t.NoteNames(),
				}
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"size":      catalog.Len(),
					"checksum":  fmt.Sprintf("%016x", catalog.Checksum()),
					"templates": entries,
				})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tCHORD\tQUALITY\tNOTES")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Index, e.Name, e.Quality, strings.Join(e.Notes, " "))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d templates, checksum %016x\n", catalog.Len(), catalog.Checksum())
			return nil
		},
	}
}
