// Package provider normalizes heterogeneous streaming completion backends
// into one client contract: send a message, receive incremental text, settle
// on a final response. Adapters exist for OpenAI-style chat endpoints,
// Anthropic's legacy completion endpoint, and the Goinfer and Koboldcpp
// local-inference servers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/codewing-ai/codewing/internal/command"
)

var (
	// ErrAborted reports a caller-initiated cancellation of an in-flight
	// stream. Not a failure; the dispatcher swallows it.
	ErrAborted = errors.New("aborted by caller")

	// ErrTimeout reports that a completion was not claimed within the
	// request timeout window.
	ErrTimeout = errors.New("request timed out")

	// ErrNoConversation reports a follow-up or repeat with no prior turn to
	// continue from.
	ErrNoConversation = errors.New("no conversation to continue")

	// ErrUnknownProvider reports a provider name with no registered adapter.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Response is the normalized settlement of one completion turn.
type Response struct {
	Text            string
	ID              string
	ConversationID  string
	ParentMessageID string
}

// Client is the contract every backend adapter implements. A client carries
// the conversation state of one session; the dispatcher creates a fresh
// client per top-level command invocation and reuses it for follow-ups.
type Client interface {
	// Create fetches credentials and prepares the client. Idempotent; the
	// secret is looked up once per instance.
	Create(ctx context.Context) error

	// Send issues one turn. A nil cmd marks a follow-up, which reuses the
	// last command and system message and returns ErrNoConversation when no
	// turn precedes it. The first command turn of a session emits a NewChat
	// event before anything else.
	Send(ctx context.Context, message, system string, cmd *command.Command) (*Response, error)

	// Abort cancels the in-flight stream, if any, and leaves the client
	// ready for a subsequent Send.
	Abort()

	// RepeatLast re-issues the previous turn. ErrNoConversation when there
	// is none.
	RepeatLast(ctx context.Context) (*Response, error)

	// Destroy clears conversation state. Safe when idle.
	Destroy()
}

// Events is the surface a client streams UI updates through. PartialResponse
// always carries the cumulative turn text, never a bare delta.
type Events interface {
	NewChat()
	RequestMessage(text string)
	PartialResponse(text string)
	ResponseFinished(text string)
}

// NopEvents discards every event.
type NopEvents struct{}

func (NopEvents) NewChat()                {}
func (NopEvents) RequestMessage(string)   {}
func (NopEvents) PartialResponse(string)  {}
func (NopEvents) ResponseFinished(string) {}

// SecretSource yields the API key for a provider. Implemented by the secrets
// store; adapters call it at most once per instance.
type SecretSource func() (string, error)

// Options configures one adapter instance.
type Options struct {
	// BaseURL overrides the descriptor default when set.
	BaseURL string

	// APIKey is used directly when set; otherwise Secret is consulted during
	// Create.
	APIKey string
	Secret SecretSource

	// Params is the fully merged completion-parameter map for this session:
	// descriptor defaults, configuration, command overrides, and inline
	// template overrides, in that precedence order. Sent verbatim alongside
	// each request body.
	Params map[string]any

	// Format names the prompt framing for raw-completion backends. Empty
	// means the descriptor default.
	Format string

	// Timeout bounds each Send. Zero means DefaultTimeout.
	Timeout time.Duration

	Events Events
}

// DefaultTimeout bounds a Send when the configuration does not say otherwise.
const DefaultTimeout = 60 * time.Second

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

func (o Options) events() Events {
	if o.Events != nil {
		return o.Events
	}
	return NopEvents{}
}

func (o Options) baseURL(fallback string) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return fallback
}

// Descriptor is a static registry entry for one backend.
type Descriptor struct {
	Name      string
	BaseURL   string
	Format    string
	Tokenizer string

	// Params are the backend's default completion parameters. Only names
	// present here are recognized by inline template overrides.
	Params map[string]any

	New func(Options) Client
}

// DefaultParams returns a copy of the descriptor's default parameter map.
func (d Descriptor) DefaultParams() map[string]any {
	out := make(map[string]any, len(d.Params))
	for k, v := range d.Params {
		out[k] = v
	}
	return out
}

var registry = map[string]Descriptor{
	"openai": {
		Name:      "openai",
		BaseURL:   "https://api.openai.com",
		Format:    FormatOpenAI,
		Tokenizer: "openai",
		Params: map[string]any{
			"n":                 1,
			"model":             "gpt-3.5-turbo-1106",
			"temperature":       0.3,
			"max_tokens":        4096,
			"frequency_penalty": 0,
			"presence_penalty":  0,
			"top_p":             1,
		},
		New: func(o Options) Client { return newOpenAI(o) },
	},
	"anthropic": {
		Name:      "anthropic",
		BaseURL:   "https://api.anthropic.com",
		Format:    FormatAnthropic,
		Tokenizer: "anthropic",
		Params: map[string]any{
			"max_tokens_to_sample": 100000,
			"top_k":                5,
			"top_p":                0.7,
			"model":                "claude-instant-1",
			"temperature":          0.3,
		},
		New: func(o Options) Client { return newAnthropic(o) },
	},
	"goinfer": {
		Name:      "goinfer",
		BaseURL:   "https://localhost:5143",
		Format:    FormatAlpaca,
		Tokenizer: "llama",
		Params: map[string]any{
			"model":       "llama2",
			"temperature": 0.3,
			"top_k":       40,
			"top_p":       0.95,
			"n_predict":   512,
		},
		New: func(o Options) Client { return newGoinfer(o) },
	},
	"koboldcpp": {
		Name:      "koboldcpp",
		BaseURL:   "https://localhost:5001",
		Format:    FormatAlpaca,
		Tokenizer: "llama",
		Params: map[string]any{
			"max_length":  512,
			"temperature": 0.3,
			"top_k":       40,
			"top_p":       0.95,
		},
		New: func(o Options) Client { return newKoboldcpp(o) },
	},
}

// Lookup resolves a provider name to its descriptor.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return d, nil
}

// Names lists the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
