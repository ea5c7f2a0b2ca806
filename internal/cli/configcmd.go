package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/codewing-ai/codewing/internal/provider"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration and manage API keys",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetKeyCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file:      %s\n", app.cfg.ConfigPath())
			fmt.Fprintf(out, "default provider: %s\n", app.cfg.DefaultProvider)
			fmt.Fprintf(out, "request timeout:  %s\n", app.cfg.RequestTimeout)
			fmt.Fprintf(out, "commands:         %d\n", len(app.registry.All()))

			names := make([]string, 0, len(app.cfg.Providers))
			for name := range app.cfg.Providers {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				pc := app.cfg.Provider(name)
				d, err := provider.Lookup(name)
				base := pc.BaseURL
				if base == "" && err == nil {
					base = d.BaseURL
				}
				fmt.Fprintf(out, "provider %s: %s\n", name, base)
			}
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <provider>",
		Short: "Store an API key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := provider.Lookup(name); err != nil {
				return err
			}

			app, err := loadApp()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API key for %s: ", name)
			key, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			if len(key) == 0 {
				return fmt.Errorf("empty key")
			}

			if err := app.secrets.Set(name+".apiKey", string(key)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored key for %s\n", name)
			return nil
		},
	}
}
