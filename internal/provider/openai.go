package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codewing-ai/codewing/internal/command"
)

// chatMessage is one entry in the resent-per-call conversation array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAI streams chat completions from an OpenAI-compatible endpoint. The
// full message history is resent on every call; there is no server-side
// session.
type openAI struct {
	opts Options

	mu       sync.Mutex
	key      string
	created  bool
	messages []chatMessage
	turn     turnState
	abortCtl aborter
}

func newOpenAI(o Options) Client {
	return &openAI{opts: o}
}

func (p *openAI) Create(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.created {
		return nil
	}
	key, err := fetchKey(p.opts)
	if err != nil {
		return err
	}
	p.key = key
	p.created = true
	return nil
}

func (p *openAI) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
	p.turn.reset()
}

func (p *openAI) Abort() {
	p.abortCtl.abort()
}

func (p *openAI) RepeatLast(ctx context.Context) (*Response, error) {
	p.mu.Lock()
	if !p.turn.canRepeat() {
		p.mu.Unlock()
		return nil, ErrNoConversation
	}
	message, system, cmd := p.turn.message, p.turn.system, p.turn.cmd
	p.mu.Unlock()
	return p.Send(ctx, message, system, cmd)
}

// openAIChunk is one streamed SSE payload.
type openAIChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *openAI) Send(ctx context.Context, message, system string, cmd *command.Command) (*Response, error) {
	if err := p.Create(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	message, system, followup, err := p.turn.resolve(message, system, cmd)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if len(p.messages) == 0 {
		p.messages = append(p.messages, chatMessage{Role: "system", Content: system})
	}
	p.messages = append(p.messages, chatMessage{Role: "user", Content: message})
	history := make([]chatMessage, len(p.messages))
	copy(history, p.messages)
	key := p.key
	p.mu.Unlock()

	events := p.opts.events()
	if !followup {
		events.NewChat()
	}
	events.RequestMessage(message)

	body := bodyParams(p.opts.Params)
	body["stream"] = true
	body["messages"] = history

	timeout := p.opts.timeout()
	ctx, release := p.abortCtl.arm(ctx, timeout)
	defer release()

	stream, err := openStream(ctx, p.opts.baseURL(registry["openai"].BaseURL)+"/v1/chat/completions", map[string]string{
		"Authorization": "Bearer " + key,
	}, body)
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	defer stream.Close()

	resp := &Response{ID: "1"}
	var text strings.Builder
	done := false

	err = readSSE(stream, func(ev sseEvent) error {
		if ev.data == "[DONE]" {
			done = true
			return errStopStream
		}
		var chunk openAIChunk
		if err := json.Unmarshal([]byte(ev.data), &chunk); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if chunk.ID != "" {
			resp.ID = chunk.ID
		}
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				text.WriteString(delta)
				events.PartialResponse(text.String())
			}
		}
		return nil
	})
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	if !done {
		// Stream ended without the [DONE] sentinel. Map an abort or timeout
		// first; a genuinely truncated stream settles with what arrived.
		if cerr := streamErr(ctx, timeout, ctx.Err()); cerr != nil && ctx.Err() != nil {
			return nil, cerr
		}
	}

	resp.Text = strings.TrimSpace(text.String())

	p.mu.Lock()
	p.messages = append(p.messages, chatMessage{Role: "assistant", Content: resp.Text})
	p.mu.Unlock()

	events.ResponseFinished(resp.Text)
	return resp, nil
}
