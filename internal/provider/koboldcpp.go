package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codewing-ai/codewing/internal/command"
)

// koboldcpp streams from a Koboldcpp server. The protocol has no terminal
// sentinel; the turn settles when the stream closes. Prompts are framed
// client-side with the configured format.
type koboldcpp struct {
	opts Options

	mu         sync.Mutex
	key        string
	created    bool
	transcript string
	turn       turnState
	abortCtl   aborter
}

func newKoboldcpp(o Options) Client {
	return &koboldcpp{opts: o}
}

func (p *koboldcpp) format() Format {
	name := p.opts.Format
	if name == "" {
		name = registry["koboldcpp"].Format
	}
	return LookupFormat(name)
}

func (p *koboldcpp) Create(ctx context.Context) error {
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

func (p *koboldcpp) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcript = ""
	p.turn.reset()
}

func (p *koboldcpp) Abort() {
	p.abortCtl.abort()
}

func (p *koboldcpp) RepeatLast(ctx context.Context) (*Response, error) {
	p.mu.Lock()
	if !p.turn.canRepeat() {
		p.mu.Unlock()
		return nil, ErrNoConversation
	}
	message, system, cmd := p.turn.message, p.turn.system, p.turn.cmd
	p.mu.Unlock()
	return p.Send(ctx, message, system, cmd)
}

func (p *koboldcpp) Send(ctx context.Context, message, system string, cmd *command.Command) (*Response, error) {
	if err := p.Create(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	message, system, followup, err := p.turn.resolve(message, system, cmd)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	f := p.format()
	framed := f.Apply(system, message)
	var prompt string
	if followup {
		prompt = p.transcript + framed.User
	} else {
		prompt = framed.First
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
	if _, ok := body["stop_sequence"]; !ok && len(f.Stops) > 0 {
		body["stop_sequence"] = f.Stops
	}

	timeout := p.opts.timeout()
	ctx, release := p.abortCtl.arm(ctx, timeout)
	defer release()

	stream, err := openStream(ctx, p.opts.baseURL(registry["koboldcpp"].BaseURL)+"/api/extra/generate/stream", map[string]string{
		"Authorization": "Bearer " + key,
	}, body)
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	defer stream.Close()

	var text strings.Builder
	err = readSSE(stream, func(ev sseEvent) error {
		var frame struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal([]byte(ev.data), &frame); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		text.WriteString(frame.Token)
		events.PartialResponse(text.String())
		return nil
	})
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	if ctx.Err() != nil {
		return nil, streamErr(ctx, timeout, ctx.Err())
	}

	resp := &Response{ID: "1", Text: strings.TrimSpace(text.String())}

	p.mu.Lock()
	p.transcript = prompt + resp.Text
	p.mu.Unlock()

	events.ResponseFinished(resp.Text)
	return resp, nil
}
