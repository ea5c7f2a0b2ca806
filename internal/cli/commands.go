package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the available commands by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}

			categories := app.registry.Categories()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range app.registry.CategoryNames() {
				fmt.Fprintf(w, "%s\n", name)
				for _, c := range categories[name] {
					fmt.Fprintf(w, "  %s\t%s\n", c.ID, c.Label)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
}
