package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codewing-ai/codewing/internal/command"
)

// httpClient is shared by every adapter. Per-request deadlines come from the
// send context, not the client.
var httpClient = &http.Client{}

// aborter holds the cancel function of the in-flight request. Abort cancels
// with ErrAborted as the cause and disarms, so the next send starts with a
// fresh token.
type aborter struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelCauseFunc
}

// arm derives the request context: wall-clock timeout plus caller abort.
// The returned release must run when the send settles.
func (a *aborter) arm(parent context.Context, timeout time.Duration) (context.Context, func()) {
	ctx, timeoutCancel := context.WithTimeout(parent, timeout)
	ctx, cancel := context.WithCancelCause(ctx)

	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.cancel = cancel
	a.mu.Unlock()

	return ctx, func() {
		a.mu.Lock()
		if a.gen == gen {
			a.cancel = nil
		}
		a.mu.Unlock()
		cancel(nil)
		timeoutCancel()
	}
}

func (a *aborter) abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel(ErrAborted)
		a.cancel = nil
	}
}

// streamErr maps a transport error to the package's error taxonomy: caller
// aborts become ErrAborted, deadline hits become ErrTimeout, everything else
// passes through.
func streamErr(ctx context.Context, timeout time.Duration, err error) error {
	if errors.Is(context.Cause(ctx), ErrAborted) {
		return ErrAborted
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return err
}

// turnState is the follow-up bookkeeping shared by every adapter: the last
// message, system message, and command of a session.
type turnState struct {
	message string
	system  string
	cmd     *command.Command
}

// resolve applies the shared send rules: record the incoming turn, fall back
// to the remembered command and system message on follow-ups, and report
// whether this turn continues an existing session.
func (t *turnState) resolve(message, system string, cmd *command.Command) (string, string, bool, error) {
	t.message = message

	followup := cmd == nil
	if cmd != nil {
		t.cmd = cmd
	}
	if t.cmd == nil {
		return "", "", false, ErrNoConversation
	}

	if system != "" {
		t.system = system
	}
	if t.system == "" {
		return "", "", false, ErrNoConversation
	}
	return t.message, t.system, followup, nil
}

// canRepeat reports whether a full previous turn exists.
func (t *turnState) canRepeat() bool {
	return t.message != "" && t.system != "" && t.cmd != nil
}

func (t *turnState) reset() {
	*t = turnState{}
}

// openStream POSTs a JSON body and returns the response body for streaming.
// A non-2xx status closes the connection and surfaces the status line plus a
// snippet of the error body.
func openStream(ctx context.Context, url string, headers map[string]string, body map[string]any) (io.ReadCloser, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("open stream: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return resp.Body, nil
}

// bodyParams copies the session parameter map as the base of a request body.
func bodyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+4)
	for k, v := range params {
		out[k] = v
	}
	return out
}

// fetchKey resolves the API key once per instance: an explicit key wins,
// then the secret source, then empty (local backends need none).
func fetchKey(o Options) (string, error) {
	if o.APIKey != "" {
		return o.APIKey, nil
	}
	if o.Secret == nil {
		return "", nil
	}
	key, err := o.Secret()
	if err != nil {
		return "", fmt.Errorf("fetch api key: %w", err)
	}
	return key, nil
}
