package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/codewing-ai/codewing/internal/command"
)

// goinferTemplate tells the server where to splice the prompt; the system
// message is substituted client-side.
const goinferTemplate = "{system}\n\n{prompt}"

// goinfer streams from a Goinfer local-inference server. Conversation state
// is a growing transcript blob; the prompt template travels in the request.
type goinfer struct {
	opts Options

	mu         sync.Mutex
	key        string
	created    bool
	transcript string
	turn       turnState
	abortCtl   aborter
}

func newGoinfer(o Options) Client {
	return &goinfer{opts: o}
}

func (p *goinfer) Create(ctx context.Context) error {
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

func (p *goinfer) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcript = ""
	p.turn.reset()
}

func (p *goinfer) Abort() {
	p.abortCtl.abort()
}

func (p *goinfer) RepeatLast(ctx context.Context) (*Response, error) {
	p.mu.Lock()
	if !p.turn.canRepeat() {
		p.mu.Unlock()
		return nil, ErrNoConversation
	}
	message, system, cmd := p.turn.message, p.turn.system, p.turn.cmd
	p.mu.Unlock()
	return p.Send(ctx, message, system, cmd)
}

// goinferMessage is one streamed frame. Token frames carry text deltas;
// system frames carry lifecycle markers ("result" settles the turn, "error"
// fails it).
type goinferMessage struct {
	Content string         `json:"content"`
	Num     int            `json:"num"`
	MsgType string         `json:"msg_type"`
	Data    map[string]any `json:"data"`
}

func (p *goinfer) Send(ctx context.Context, message, system string, cmd *command.Command) (*Response, error) {
	if err := p.Create(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	message, system, followup, err := p.turn.resolve(message, system, cmd)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	var prompt string
	if followup {
		prompt = p.transcript + message
	} else {
		prompt = message
	}
	key := p.key
	p.mu.Unlock()

	events := p.opts.events()
	if !followup {
		events.NewChat()
	}
	events.RequestMessage(message)

	body := bodyParams(p.opts.Params)
	body["prompt"] = prompt
	body["template"] = strings.Replace(goinferTemplate, "{system}", system, 1)
	body["stream"] = true

	timeout := p.opts.timeout()
	ctx, release := p.abortCtl.arm(ctx, timeout)
	defer release()

	stream, err := openStream(ctx, p.opts.baseURL(registry["goinfer"].BaseURL)+"/completion", map[string]string{
		"Authorization": "Bearer " + key,
	}, body)
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	defer stream.Close()

	var partial strings.Builder
	var final string
	done := false

	err = readSSE(stream, func(ev sseEvent) error {
		var msg goinferMessage
		if err := json.Unmarshal([]byte(ev.data), &msg); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		switch msg.MsgType {
		case "token":
			partial.WriteString(msg.Content)
			events.PartialResponse(partial.String())
		case "system":
			switch msg.Content {
			case "result":
				if text, ok := msg.Data["text"].(string); ok {
					final = text
				} else {
					final = partial.String()
				}
				done = true
				return errStopStream
			case "error":
				return errors.New("inference error")
			}
		}
		return nil
	})
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	if !done {
		if ctx.Err() != nil {
			return nil, streamErr(ctx, timeout, ctx.Err())
		}
		final = partial.String()
	}

	resp := &Response{ID: "1", Text: strings.TrimSpace(final)}

	p.mu.Lock()
	p.transcript = prompt + resp.Text
	p.mu.Unlock()

	events.ResponseFinished(resp.Text)
	return resp, nil
}
