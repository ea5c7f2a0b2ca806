package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codewing-ai/codewing/internal/command"
)

const anthropicVersion = "2023-01-01"

// anthropic streams from the legacy text-completion endpoint. The whole
// conversation is one growing transcript blob framed per the Anthropic
// format; follow-ups concatenate the next human turn onto it.
type anthropic struct {
	opts Options

	mu         sync.Mutex
	key        string
	created    bool
	transcript string
	turn       turnState
	abortCtl   aborter
}

func newAnthropic(o Options) Client {
	return &anthropic{opts: o}
}

func (p *anthropic) format() Format {
	name := p.opts.Format
	if name == "" {
		name = FormatAnthropic
	}
	return LookupFormat(name)
}

func (p *anthropic) Create(ctx context.Context) error {
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

func (p *anthropic) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcript = ""
	p.turn.reset()
}

func (p *anthropic) Abort() {
	p.abortCtl.abort()
}

func (p *anthropic) RepeatLast(ctx context.Context) (*Response, error) {
	p.mu.Lock()
	if !p.turn.canRepeat() {
		p.mu.Unlock()
		return nil, ErrNoConversation
	}
	message, system, cmd := p.turn.message, p.turn.system, p.turn.cmd
	p.mu.Unlock()
	return p.Send(ctx, message, system, cmd)
}

// anthropicChunk is one streamed completion event. Completion carries the
// cumulative turn text; a non-null stop reason marks the terminal event.
type anthropicChunk struct {
	Completion string  `json:"completion"`
	StopReason *string `json:"stop_reason"`
	LogID      string  `json:"log_id"`
}

func (p *anthropic) Send(ctx context.Context, message, system string, cmd *command.Command) (*Response, error) {
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
	body["stream"] = true
	if _, ok := body["stop_sequences"]; !ok && len(f.Stops) > 0 {
		body["stop_sequences"] = f.Stops
	}

	timeout := p.opts.timeout()
	ctx, release := p.abortCtl.arm(ctx, timeout)
	defer release()

	stream, err := openStream(ctx, p.opts.baseURL(registry["anthropic"].BaseURL)+"/v1/complete", map[string]string{
		"X-API-Key":         key,
		"Anthropic-Version": anthropicVersion,
	}, body)
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	defer stream.Close()

	resp := &Response{ID: "1"}
	var final string
	done := false

	err = readSSE(stream, func(ev sseEvent) error {
		if ev.name == "ping" {
			return nil
		}
		var chunk anthropicChunk
		if err := json.Unmarshal([]byte(ev.data), &chunk); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if chunk.LogID != "" {
			resp.ID = chunk.LogID
		}
		final = chunk.Completion
		events.PartialResponse(strings.TrimLeft(final, " \t\r\n"))
		if chunk.StopReason != nil {
			done = true
			return errStopStream
		}
		return nil
	})
	if err != nil {
		return nil, streamErr(ctx, timeout, err)
	}
	if !done && ctx.Err() != nil {
		return nil, streamErr(ctx, timeout, ctx.Err())
	}

	resp.Text = strings.TrimLeft(final, " \t\r\n")

	p.mu.Lock()
	p.transcript = prompt + " " + resp.Text
	p.mu.Unlock()

	events.ResponseFinished(resp.Text)
	return resp, nil
}
