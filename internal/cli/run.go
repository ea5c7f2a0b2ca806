package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/codewing-ai/codewing/internal/dispatch"
	"github.com/codewing-ai/codewing/internal/editor"
	"github.com/codewing-ai/codewing/internal/panel"
)

func newRunCmd() *cobra.Command {
	var (
		fromLine int
		toLine   int
		write    bool
		answers  []string
	)

	cmd := &cobra.Command{
		Use:   "run <command> [file]",
		Short: "Run one command against a file and print or apply the response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}

			var ed editor.Editor
			var file *editor.File
			if len(args) == 2 {
				file, err = editor.OpenFile(args[1])
				if err != nil {
					return err
				}
				if fromLine > 0 {
					if toLine == 0 {
						toLine = fromLine
					}
					if err := file.SelectLineRange(fromLine, toLine); err != nil {
						return err
					}
				} else {
					file.SelectAll()
				}
				file.SetPrompter(newPrompter(answers))
				ed = file
			} else {
				mem := editor.NewMem("", "plaintext", "")
				mem.SetPrompter(newPrompter(answers))
				ed = mem
			}

			pnl := panel.NewTerm(cmd.OutOrStdout())
			mgr := dispatch.NewManager(app.cfg, app.registry, ed, pnl, app.secrets, app.history)

			ctx, stop := abortOnInterrupt(cmd.Context(), mgr)
			defer stop()

			if err := mgr.Run(ctx, args[0]); err != nil {
				return err
			}

			if write && file != nil {
				if err := file.Save(); err != nil {
					return fmt.Errorf("write %s: %w", file.Path(), err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&fromLine, "from", 0, "first selected line (1-based; default: whole file)")
	cmd.Flags().IntVar(&toLine, "to", 0, "last selected line (1-based; default: --from)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the edited buffer back to the file")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "pre-filled answer for an interactive prompt (repeatable, consumed in order)")
	return cmd
}

// newPrompter answers interactive template prompts: scripted answers first,
// then the terminal. A non-terminal stdin with no answers left cancels the
// prompt, which cancels the render.
func newPrompter(answers []string) editor.PromptFunc {
	remaining := append([]string(nil), answers...)
	return func(ctx context.Context, prompt string) (string, error) {
		if len(remaining) > 0 {
			answer := remaining[0]
			remaining = remaining[1:]
			return answer, nil
		}
		return askTerminal(prompt)
	}
}

func askTerminal(prompt string) (string, error) {
	rl, err := readline.New(prompt + " ")
	if err != nil {
		return "", editor.ErrInputCanceled
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", editor.ErrInputCanceled
		}
		return "", err
	}
	return line, nil
}

// abortOnInterrupt turns the first Ctrl-C into a stream abort instead of
// killing the process mid-edit.
func abortOnInterrupt(ctx context.Context, mgr *dispatch.Manager) (context.Context, func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sig:
				mgr.Abort()
			case <-done:
				return
			}
		}
	}()
	return ctx, func() {
		signal.Stop(sig)
		close(done)
	}
}
