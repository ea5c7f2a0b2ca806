package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/codewing-ai/codewing/internal/dispatch"
	"github.com/codewing-ai/codewing/internal/editor"
	"github.com/codewing-ai/codewing/internal/logging"
	"github.com/codewing-ai/codewing/internal/panel"
)

func newChatCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Plain input continues the current conversation. Slash commands control it:

  /cmd <id>   run a command against the open file's selection
  /retry      resend the last message
  /abort      cancel the in-flight request
  /new        start a fresh conversation
  /quit       exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}

			var ed editor.Editor
			if file != "" {
				f, err := editor.OpenFile(file)
				if err != nil {
					return err
				}
				f.SelectAll()
				ed = f
			} else {
				ed = editor.NewMem("", "plaintext", "")
			}

			pnl := panel.NewTerm(cmd.OutOrStdout())
			mgr := dispatch.NewManager(app.cfg, app.registry, ed, pnl, app.secrets, app.history)

			ctx, stop := abortOnInterrupt(cmd.Context(), mgr)
			defer stop()

			// pick up user command edits while the session is running
			watchCtx, cancelWatch := context.WithCancel(ctx)
			defer cancelWatch()
			if err := app.registry.Watch(watchCtx, app.cfg); err != nil {
				logging.Logger().Warn("command reload disabled", "error", err)
			}

			return chatLoop(ctx, cmd, mgr)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file to open for /cmd selections")
	return cmd
}

func chatLoop(ctx context.Context, cmd *cobra.Command, mgr *dispatch.Manager) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(os.TempDir(), "codewing_chat_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init chat prompt: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl-C on an empty prompt exits, otherwise clears the line
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runSlash(ctx, cmd, mgr, line)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := mgr.Followup(ctx, line); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
}

func runSlash(ctx context.Context, cmd *cobra.Command, mgr *dispatch.Manager, line string) (quit bool, err error) {
	words, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", line, err)
	}

	switch words[0] {
	case "/quit", "/exit":
		return true, nil
	case "/cmd":
		if len(words) < 2 {
			return false, errors.New("usage: /cmd <command-id>")
		}
		return false, mgr.Run(ctx, words[1])
	case "/retry":
		return false, mgr.RepeatLast(ctx)
	case "/abort":
		mgr.Abort()
		return false, nil
	case "/new":
		mgr.NewSession()
		fmt.Fprintln(cmd.OutOrStdout(), "started a new conversation")
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s", words[0])
	}
}
