package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/codewing-ai/codewing/internal/command"
	"github.com/codewing-ai/codewing/internal/config"
	"github.com/codewing-ai/codewing/internal/editor"
	"github.com/codewing-ai/codewing/internal/history"
	"github.com/codewing-ai/codewing/internal/panel"
	"github.com/codewing-ai/codewing/internal/provider"
)

type sendCall struct {
	message string
	system  string
	cmd     *command.Command
}

// stubClient scripts provider behavior for dispatcher tests.
type stubClient struct {
	mu       sync.Mutex
	opts     provider.Options
	response string
	sendErr  error

	sends    []sendCall
	aborts   int
	destroys int
	creates  int
}

func (s *stubClient) Create(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	return nil
}

func (s *stubClient) Send(ctx context.Context, message, system string, cmd *command.Command) (*provider.Response, error) {
	s.mu.Lock()
	s.sends = append(s.sends, sendCall{message: message, system: system, cmd: cmd})
	err := s.sendErr
	text := s.response
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	ev := s.opts.Events
	if len(s.sends) == 1 && cmd != nil {
		ev.NewChat()
	}
	ev.RequestMessage(message)
	ev.PartialResponse(text)
	ev.ResponseFinished(text)
	return &provider.Response{Text: text, ID: "stub-1"}, nil
}

func (s *stubClient) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborts++
}

func (s *stubClient) RepeatLast(ctx context.Context) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sends) == 0 {
		return nil, provider.ErrNoConversation
	}
	return &provider.Response{Text: s.response}, nil
}

func (s *stubClient) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroys++
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultProvider: "openai",
		Placeholders:    map[string]string{"tone": "politely"},
	}
}

func testRegistry(t *testing.T) *command.Registry {
	t.Helper()
	temp := 0.7
	reg := command.NewRegistry(nil)
	reg.SetUserCommands([]config.CommandConfig{{
		ID:          "fixit",
		Message:     "Fix this {{tone}}:\n{{selection}}",
		System:      "You are helpful.",
		Insertion:   "replace",
		Temperature: &temp,
	}})
	return reg
}

type fixture struct {
	mgr    *Manager
	ed     *editor.Mem
	pnl    *panel.Recorder
	client *stubClient
}

func newFixture(t *testing.T, doc string) *fixture {
	t.Helper()
	ed := editor.NewMem(doc, "go", "go")
	pnl := &panel.Recorder{}
	hist := history.New(filepath.Join(t.TempDir(), "history.jsonl"))
	mgr := NewManager(testConfig(), testRegistry(t), ed, pnl, nil, hist)

	client := &stubClient{response: "```go\nfixed()\n```"}
	mgr.newClient = func(d provider.Descriptor, o provider.Options) provider.Client {
		client.mu.Lock()
		client.opts = o
		client.mu.Unlock()
		return client
	}
	return &fixture{mgr: mgr, ed: ed, pnl: pnl, client: client}
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, "\tbroken()")
	f.ed.Select(editor.Position{Line: 0, Col: 0}, editor.Position{Line: 0, Col: 9})

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(f.client.sends) != 1 {
		t.Fatalf("sends = %d", len(f.client.sends))
	}
	call := f.client.sends[0]
	if call.message != "Fix this politely:\nbroken()" {
		t.Fatalf("message = %q", call.message)
	}
	if call.system != "You are helpful." {
		t.Fatalf("system = %q", call.system)
	}
	if call.cmd == nil || call.cmd.ID != "fixit" {
		t.Fatalf("cmd = %+v", call.cmd)
	}

	// Command-level temperature reaches the session params.
	if temp := f.client.opts.Params["temperature"]; temp != 0.7 {
		t.Fatalf("temperature = %v, want 0.7", temp)
	}

	// Replace insertion with first-line re-indentation.
	if got := f.ed.DocumentText(); got != "\tfixed()" {
		t.Fatalf("document = %q", got)
	}

	if f.pnl.NewChats != 1 || len(f.pnl.Finished) != 1 {
		t.Fatalf("panel = %+v", f.pnl)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	f := newFixture(t, "code()")
	f.ed.Select(editor.Position{Line: 0, Col: 0}, editor.Position{Line: 0, Col: 6})
	hist := history.New(filepath.Join(t.TempDir(), "h.jsonl"))
	f.mgr.history = hist

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	entries, err := hist.Entries()
	if err != nil {
		t.Fatalf("Entries() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want user + assistant", len(entries))
	}
	if entries[0].Role != "user" || entries[1].Role != "assistant" {
		t.Fatalf("roles = %s, %s", entries[0].Role, entries[1].Role)
	}
	if entries[0].Session == "" || entries[0].Session != entries[1].Session {
		t.Fatalf("session ids do not match: %+v", entries)
	}
	if entries[0].Command != "fixit" || entries[0].Provider != "openai" {
		t.Fatalf("entry metadata = %+v", entries[0])
	}
}

func TestRunUnknownProvider(t *testing.T) {
	f := newFixture(t, "x")
	f.mgr.cfg.DefaultProvider = "quantum"

	err := f.mgr.Run(context.Background(), "fixit")
	if !errors.Is(err, provider.ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
	if len(f.client.sends) != 0 {
		t.Fatalf("backend contacted despite unknown provider")
	}
	if !f.pnl.HasNotice("unknown provider") {
		t.Fatalf("no error notice: %+v", f.pnl.Notices)
	}
}

func TestRunCanceledInputKeepsPreviousSession(t *testing.T) {
	f := newFixture(t, "x")
	f.ed.Select(editor.Position{Line: 0, Col: 0}, editor.Position{Line: 0, Col: 1})

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// A command with an interactive prompt, and no prompter installed:
	// the input box reports cancellation.
	reg := f.mgr.registry
	temp := 0.5
	reg.SetUserCommands([]config.CommandConfig{
		{ID: "fixit", Message: "Fix:\n{{selection}}", System: "You are helpful.", Insertion: "replace", Temperature: &temp},
		{ID: "ask", Message: "{{input:What?}}", System: "sys"},
	})

	if err := f.mgr.Run(context.Background(), "ask"); err != nil {
		t.Fatalf("Run() after cancel error: %v", err)
	}
	if !f.pnl.HasNotice("cancelled") {
		t.Fatalf("no cancellation notice: %+v", f.pnl.Notices)
	}
	// Previous session still answers follow-ups.
	if err := f.mgr.Followup(context.Background(), "more"); err != nil {
		t.Fatalf("Followup() error: %v", err)
	}
	if len(f.client.sends) != 2 {
		t.Fatalf("sends = %d, want original session still live", len(f.client.sends))
	}
}

func TestRunAborted(t *testing.T) {
	f := newFixture(t, "x")
	f.client.sendErr = provider.ErrAborted

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if f.pnl.Aborts != 1 {
		t.Fatalf("aborts = %d", f.pnl.Aborts)
	}
	if len(f.pnl.Notices) != 0 {
		t.Fatalf("abort must not produce a warning: %+v", f.pnl.Notices)
	}
	if f.ed.DocumentText() != "x" {
		t.Fatalf("editor mutated on aborted turn")
	}
}

func TestRunSendFailureWarnsAndResets(t *testing.T) {
	f := newFixture(t, "x")
	f.client.sendErr = errors.New("boom")

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v, stream failures are not invocation errors", err)
	}
	if !f.pnl.HasNotice("boom") {
		t.Fatalf("no warning notice: %+v", f.pnl.Notices)
	}
	if f.client.aborts == 0 {
		t.Fatalf("provider not reset after failure")
	}
	if f.ed.DocumentText() != "x" {
		t.Fatalf("editor mutated on failed turn")
	}
}

func TestFollowupSkipsInsertion(t *testing.T) {
	f := newFixture(t, "original()")
	f.ed.Select(editor.Position{Line: 0, Col: 0}, editor.Position{Line: 0, Col: 10})

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	afterRun := f.ed.DocumentText()

	if err := f.mgr.Followup(context.Background(), "and make it faster"); err != nil {
		t.Fatalf("Followup() error: %v", err)
	}

	if f.ed.DocumentText() != afterRun {
		t.Fatalf("follow-up mutated the editor")
	}
	last := f.client.sends[len(f.client.sends)-1]
	if last.message != "and make it faster" || last.cmd != nil {
		t.Fatalf("follow-up send = %+v, want raw text with nil command", last)
	}
}

func TestFollowupWithoutSession(t *testing.T) {
	f := newFixture(t, "x")
	if err := f.mgr.Followup(context.Background(), "hello"); err != nil {
		t.Fatalf("Followup() error: %v", err)
	}
	if len(f.client.sends) != 0 {
		t.Fatalf("send without a session")
	}
	if !f.pnl.HasNotice("no active conversation") {
		t.Fatalf("no info notice: %+v", f.pnl.Notices)
	}
}

func TestNewInvocationDiscardsPrevious(t *testing.T) {
	f := newFixture(t, "x")
	first := &stubClient{response: "one"}
	second := &stubClient{response: "two"}
	clients := []*stubClient{first, second}
	f.mgr.newClient = func(d provider.Descriptor, o provider.Options) provider.Client {
		c := clients[0]
		clients = clients[1:]
		c.opts = o
		return c
	}

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}

	if first.aborts == 0 || first.destroys == 0 {
		t.Fatalf("previous session not aborted/destroyed: aborts=%d destroys=%d", first.aborts, first.destroys)
	}
	if len(second.sends) != 1 {
		t.Fatalf("second session sends = %d", len(second.sends))
	}
}

func TestAbortWithoutSessionIsNoop(t *testing.T) {
	f := newFixture(t, "x")
	f.mgr.Abort() // must not panic or notify
	if len(f.pnl.Notices) != 0 || f.pnl.Aborts != 0 {
		t.Fatalf("idle abort produced output: %+v", f.pnl)
	}
}

func TestRepeatLast(t *testing.T) {
	f := newFixture(t, "x")
	if err := f.mgr.RepeatLast(context.Background()); err != nil {
		t.Fatalf("RepeatLast() error: %v", err)
	}
	if !f.pnl.HasNotice("no active conversation") {
		t.Fatalf("no info notice for idle repeat")
	}

	if err := f.mgr.Run(context.Background(), "fixit"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := f.mgr.RepeatLast(context.Background()); err != nil {
		t.Fatalf("RepeatLast() error: %v", err)
	}
}

func TestInlineOverrideReachesParams(t *testing.T) {
	f := newFixture(t, "x")
	reg := f.mgr.registry
	reg.SetUserCommands([]config.CommandConfig{{
		ID:      "hot",
		Message: "Go wild.{{:temperature:0.95}}",
		System:  "sys",
	}})

	if err := f.mgr.Run(context.Background(), "hot"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if temp := f.client.opts.Params["temperature"]; temp != 0.95 {
		t.Fatalf("temperature = %v, want inline override", temp)
	}
	if strings.Contains(f.client.sends[0].message, "{{:") {
		t.Fatalf("override not stripped: %q", f.client.sends[0].message)
	}
}
