// Package dispatch drives one command invocation end to end: resolve the
// template, render the prompt, stream the completion, and apply the
// insertion policy. One session is current at a time; a new invocation
// aborts and discards the previous one.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/codewing-ai/codewing/internal/command"
	"github.com/codewing-ai/codewing/internal/config"
	"github.com/codewing-ai/codewing/internal/editor"
	"github.com/codewing-ai/codewing/internal/history"
	"github.com/codewing-ai/codewing/internal/insert"
	"github.com/codewing-ai/codewing/internal/language"
	"github.com/codewing-ai/codewing/internal/logging"
	"github.com/codewing-ai/codewing/internal/panel"
	"github.com/codewing-ai/codewing/internal/provider"
	"github.com/codewing-ai/codewing/internal/secrets"
	"github.com/codewing-ai/codewing/internal/template"
)

// session is the state of one live conversation.
type session struct {
	id           string
	client       provider.Client
	providerName string
	cmd          command.Command
}

// Manager owns the current session pointer. Only Run and NewSession replace
// it; follow-up, abort, and repeat read it and no-op when absent.
type Manager struct {
	cfg      *config.Config
	registry *command.Registry
	editor   editor.Editor
	panel    panel.Panel
	secrets  *secrets.Store
	history  *history.Store

	mu      sync.Mutex
	current *session

	// newClient is swapped in tests to stub the provider.
	newClient func(d provider.Descriptor, o provider.Options) provider.Client
}

func NewManager(cfg *config.Config, reg *command.Registry, ed editor.Editor, pnl panel.Panel, sec *secrets.Store, hist *history.Store) *Manager {
	return &Manager{
		cfg:       cfg,
		registry:  reg,
		editor:    ed,
		panel:     pnl,
		secrets:   sec,
		history:   hist,
		newClient: func(d provider.Descriptor, o provider.Options) provider.Client { return d.New(o) },
	}
}

// Run invokes a top-level command: render, dispatch, settle. A cancelled
// interactive prompt drops the invocation with an info notice and leaves any
// previous session intact. Stream failures surface as warnings, not errors;
// only pre-dispatch misconfiguration (unknown command target, unknown
// provider) returns an error.
func (m *Manager) Run(ctx context.Context, commandID string) error {
	cmd := m.registry.Resolve(commandID)

	providerName := cmd.Provider
	if providerName == "" {
		providerName = m.cfg.DefaultProvider
	}
	desc, err := provider.Lookup(providerName)
	if err != nil {
		m.panel.Notify(panel.Error, err.Error())
		return err
	}

	pcfg := m.cfg.Provider(providerName)
	params := desc.DefaultParams()
	for k, v := range pcfg.Params {
		params[k] = v
	}
	applyCommandParams(params, cmd)

	langID := m.editor.LanguageID()
	renderer := &template.Renderer{
		Editor:       m.editor,
		LanguageID:   langID,
		LanguageName: language.Name(langID, m.editor.FileExtension()),
		Instructions: cmd.LanguageInstructions[langID],
		Placeholders: m.cfg.Placeholders,
		Known:        params,
	}

	message, err := renderer.Render(ctx, cmd.Message)
	if err != nil {
		return m.renderFailed(err)
	}
	system, err := renderer.Render(ctx, cmd.System)
	if err != nil {
		return m.renderFailed(err)
	}
	for k, v := range renderer.Params() {
		params[k] = v
	}

	// The cursor stage may have re-selected; capture the range the
	// insertion policy must target.
	sel := m.editor.Selection()

	format := pcfg.Format
	if format == "" {
		format = desc.Format
	}
	client := m.newClient(desc, provider.Options{
		BaseURL: pcfg.BaseURL,
		APIKey:  pcfg.APIKey,
		Secret:  m.secretSource(providerName),
		Params:  params,
		Format:  format,
		Timeout: m.cfg.RequestTimeout,
		Events:  m.panel,
	})

	s := &session{
		id:           uuid.NewString(),
		client:       client,
		providerName: providerName,
		cmd:          cmd,
	}
	m.replaceCurrent(s)

	if err := client.Create(ctx); err != nil {
		m.panel.Notify(panel.Error, fmt.Sprintf("provider setup failed: %v", err))
		return err
	}

	m.record(s, "user", message)
	resp, err := client.Send(ctx, message, system, &cmd)
	if err != nil {
		m.sendFailed(s, err)
		return nil
	}
	m.record(s, "assistant", resp.Text)

	if err := insert.Apply(cmd.Insertion, resp.Text, sel, m.editor); err != nil {
		m.panel.Notify(panel.Warn, fmt.Sprintf("insertion failed: %v", err))
	}
	return nil
}

// Followup sends raw text to the current session, skipping template
// resolution and insertion.
func (m *Manager) Followup(ctx context.Context, text string) error {
	s := m.currentSession()
	if s == nil {
		m.panel.Notify(panel.Info, "no active conversation")
		return nil
	}

	m.record(s, "user", text)
	resp, err := s.client.Send(ctx, text, "", nil)
	if err != nil {
		m.sendFailed(s, err)
		return nil
	}
	m.record(s, "assistant", resp.Text)
	return nil
}

// RepeatLast re-issues the previous turn of the current session.
func (m *Manager) RepeatLast(ctx context.Context) error {
	s := m.currentSession()
	if s == nil {
		m.panel.Notify(panel.Info, "no active conversation")
		return nil
	}

	resp, err := s.client.RepeatLast(ctx)
	if err != nil {
		m.sendFailed(s, err)
		return nil
	}
	m.record(s, "assistant", resp.Text)
	return nil
}

// Abort cancels the in-flight stream of the current session, if any. The
// session stays current and usable.
func (m *Manager) Abort() {
	if s := m.currentSession(); s != nil {
		s.client.Abort()
	}
}

// NewSession discards the current session after aborting its stream.
func (m *Manager) NewSession() {
	m.replaceCurrent(nil)
}

func (m *Manager) currentSession() *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) replaceCurrent(next *session) {
	m.mu.Lock()
	prev := m.current
	m.current = next
	m.mu.Unlock()

	if prev != nil {
		prev.client.Abort()
		prev.client.Destroy()
	}
}

func (m *Manager) renderFailed(err error) error {
	if errors.Is(err, template.ErrCanceled) {
		m.panel.Notify(panel.Info, "input cancelled")
		return nil
	}
	m.panel.Notify(panel.Error, fmt.Sprintf("render failed: %v", err))
	return err
}

// sendFailed maps a settled-with-error turn to its UI outcome: caller aborts
// end the turn quietly, a missing conversation is informational, anything
// else warns and resets the provider stream state.
func (m *Manager) sendFailed(s *session, err error) {
	switch {
	case errors.Is(err, provider.ErrAborted):
		m.panel.Aborted()
	case errors.Is(err, provider.ErrNoConversation):
		m.panel.Notify(panel.Info, "nothing to continue")
	default:
		logging.Logger().Warn("send failed", "provider", s.providerName, "command", s.cmd.ID, "error", err)
		m.panel.Notify(panel.Warn, fmt.Sprintf("request failed: %v", err))
		s.client.Abort()
	}
}

func (m *Manager) record(s *session, role, text string) {
	if m.history == nil {
		return
	}
	err := m.history.Append(history.Entry{
		Session:  s.id,
		Role:     role,
		Text:     text,
		Command:  s.cmd.ID,
		Provider: s.providerName,
	})
	if err != nil {
		logging.Logger().Warn("history append failed", "error", err)
	}
}

func (m *Manager) secretSource(providerName string) provider.SecretSource {
	if m.secrets == nil {
		return nil
	}
	return func() (string, error) {
		return m.secrets.Get(providerName + ".apiKey")
	}
}

// applyCommandParams lays command-level overrides onto the completion
// parameter map, mapping the token limit onto whichever name the backend
// recognizes.
func applyCommandParams(params map[string]any, cmd command.Command) {
	if cmd.Model != "" {
		params["model"] = cmd.Model
	}
	if cmd.Temperature != nil {
		params["temperature"] = *cmd.Temperature
	}
	if cmd.MaxTokens != nil {
		for _, key := range []string{"max_tokens", "max_tokens_to_sample", "n_predict", "max_length"} {
			if _, ok := params[key]; ok {
				params[key] = *cmd.MaxTokens
				break
			}
		}
	}
	if cmd.Choices != nil {
		if _, ok := params["n"]; ok {
			params["n"] = *cmd.Choices
		}
	}
}
