package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"run", "chat", "commands", "config", "history", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s command: %v", name, err)
		}
		if sub == nil || sub.Name() != name {
			t.Fatalf("%s command not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute version command: %v", err)
	}
	if !strings.Contains(out.String(), "codewing") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestCommandsListsBuiltins(t *testing.T) {
	t.Setenv("CODEWING_HOME", t.TempDir())

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"commands"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute commands command: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Completion", "explain", "writeTests"} {
		if !strings.Contains(got, want) {
			t.Fatalf("commands output missing %q:\n%s", want, got)
		}
	}
}

func TestRunRequiresKnownCommand(t *testing.T) {
	t.Setenv("CODEWING_HOME", t.TempDir())

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an argument error for bare run")
	}
}

func TestNewPrompterConsumesScriptedAnswers(t *testing.T) {
	p := newPrompter([]string{"first", "second"})

	got, err := p(context.Background(), "q1")
	if err != nil || got != "first" {
		t.Fatalf("first answer: got %q, %v", got, err)
	}
	got, err = p(context.Background(), "q2")
	if err != nil || got != "second" {
		t.Fatalf("second answer: got %q, %v", got, err)
	}
}
