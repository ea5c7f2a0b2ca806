// Package panel is the UI event surface of the dispatch pipeline. The
// terminal implementation renders streaming turns; the recorder backs tests.
package panel

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level classifies a notification toast.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Panel receives conversation events in order: NewChat precedes the first
// RequestMessage of a session; ResponseFinished (or Aborted) follows every
// PartialResponse of its turn. PartialResponse carries cumulative text.
type Panel interface {
	NewChat()
	RequestMessage(text string)
	PartialResponse(text string)
	ResponseFinished(text string)
	Aborted()
	Notify(level Level, message string)
}

// Term renders events to a terminal writer. Partial responses print
// incrementally: only the suffix beyond what is already on screen.
type Term struct {
	mu      sync.Mutex
	w       io.Writer
	printed int
}

func NewTerm(w io.Writer) *Term {
	return &Term{w: w}
}

func (t *Term) NewChat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, "--- new chat ---")
}

func (t *Term) RequestMessage(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "> %s\n\n", text)
	t.printed = 0
}

func (t *Term) PartialResponse(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.printed > len(text) {
		// Cumulative text never regresses; a shorter payload means a new
		// turn started without a RequestMessage in between.
		t.printed = 0
		fmt.Fprintln(t.w)
	}
	io.WriteString(t.w, text[t.printed:])
	t.printed = len(text)
}

func (t *Term) ResponseFinished(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.printed == 0 && text != "" {
		io.WriteString(t.w, text)
	}
	fmt.Fprint(t.w, "\n\n")
	t.printed = 0
}

func (t *Term) Aborted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.w, "\n[aborted]\n")
	t.printed = 0
}

func (t *Term) Notify(level Level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[%s] %s\n", level, message)
}

// Recorder captures events for tests.
type Recorder struct {
	mu sync.Mutex

	NewChats int
	Requests []string
	Partials []string
	Finished []string
	Aborts   int
	Notices  []string
}

func (r *Recorder) NewChat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NewChats++
}

func (r *Recorder) RequestMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, text)
}

func (r *Recorder) PartialResponse(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Partials = append(r.Partials, text)
}

func (r *Recorder) ResponseFinished(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, text)
}

func (r *Recorder) Aborted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Aborts++
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, fmt.Sprintf("%s: %s", level, message))
}

// HasNotice reports whether any notification contains substr.
func (r *Recorder) HasNotice(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.Notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
