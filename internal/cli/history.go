package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the conversation history",
	}
	cmd.AddCommand(newHistoryShowCmd(), newHistoryClearCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Replay recorded conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}

			entries, err := app.history.Entries()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var session string
			for _, e := range entries {
				if e.Session != session {
					session = e.Session
					fmt.Fprintf(out, "--- session %s\n", session)
				}
				label := e.Role
				if e.Command != "" {
					label = fmt.Sprintf("%s (%s)", e.Role, e.Command)
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", e.Time.Local().Format("2006-01-02 15:04"), label, e.Text)
			}
			return nil
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			if err := app.history.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}
}
