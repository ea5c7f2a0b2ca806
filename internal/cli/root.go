// Package cli wires Cobra subcommands to the dispatch pipeline; it is a thin
// controller with no business logic.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/codewing-ai/codewing/internal/command"
	"github.com/codewing-ai/codewing/internal/config"
	"github.com/codewing-ai/codewing/internal/history"
	"github.com/codewing-ai/codewing/internal/secrets"
)

// app bundles the dependencies shared by the subcommands.
type app struct {
	cfg      *config.Config
	registry *command.Registry
	secrets  *secrets.Store
	history  *history.Store
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		registry: command.NewRegistry(cfg),
		secrets:  secrets.New(cfg.SecretsDir()),
		history:  history.New(cfg.HistoryPath()),
	}, nil
}

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "codewing",
		Short: "Prompt dispatcher for code: render a command template, stream the completion, write it back",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newRunCmd(),
		newChatCmd(),
		newCommandsCmd(),
		newConfigCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}
