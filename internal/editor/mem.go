package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Prompter supplies interactive input for an editor. CLI hosts wire a
// readline-backed implementation; tests queue canned answers.
type Prompter interface {
	Prompt(ctx context.Context, text string) (string, error)
}

// PromptFunc adapts a function to the Prompter interface.
type PromptFunc func(ctx context.Context, text string) (string, error)

// Prompt implements Prompter.
func (f PromptFunc) Prompt(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Mem is an in-memory Editor over a line buffer. It backs both the file host
// and the test suite.
type Mem struct {
	mu        sync.Mutex
	lines     []string
	langID    string
	ext       string
	selStart  Position
	selEnd    Position
	prompter  Prompter
	scratches []Scratch
}

// Scratch records one OpenScratch call.
type Scratch struct {
	LanguageID string
	Text       string
}

// NewMem creates an in-memory editor over text.
func NewMem(text, languageID, ext string) *Mem {
	return &Mem{
		lines:  strings.Split(text, "\n"),
		langID: languageID,
		ext:    ext,
	}
}

// SetPrompter installs the interactive input source.
func (m *Mem) SetPrompter(p Prompter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompter = p
}

// Selection implements Editor.
func (m *Mem) Selection() Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Selection{
		Text:      m.textBetweenLocked(m.selStart, m.selEnd),
		StartLine: m.selStart.Line,
		EndLine:   m.selEnd.Line,
	}
}

// Select implements Editor.
func (m *Mem) Select(start, end Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selStart = m.clampLocked(start)
	m.selEnd = m.clampLocked(end)
}

// Cursor implements Editor. The cursor sits at the end of the selection.
func (m *Mem) Cursor() Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selEnd
}

// DocumentText implements Editor.
func (m *Mem) DocumentText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.lines, "\n")
}

// LanguageID implements Editor.
func (m *Mem) LanguageID() string { return m.langID }

// FileExtension implements Editor.
func (m *Mem) FileExtension() string { return m.ext }

// LineCount returns the number of lines in the buffer.
func (m *Mem) LineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

// ReplaceLines implements Editor.
func (m *Mem) ReplaceLines(start, end int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkRangeLocked(start, end); err != nil {
		return err
	}
	replacement := strings.Split(text, "\n")
	out := make([]string, 0, len(m.lines)-(end-start+1)+len(replacement))
	out = append(out, m.lines[:start]...)
	out = append(out, replacement...)
	out = append(out, m.lines[end+1:]...)
	m.lines = out
	return nil
}

// InsertLines implements Editor.
func (m *Mem) InsertLines(line int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line < 0 || line > len(m.lines) {
		return fmt.Errorf("insert line %d out of range [0, %d]", line, len(m.lines))
	}
	inserted := strings.Split(text, "\n")
	out := make([]string, 0, len(m.lines)+len(inserted))
	out = append(out, m.lines[:line]...)
	out = append(out, inserted...)
	out = append(out, m.lines[line:]...)
	m.lines = out
	return nil
}

// OpenScratch implements Editor by recording the scratch buffer.
func (m *Mem) OpenScratch(languageID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scratches = append(m.scratches, Scratch{LanguageID: languageID, Text: text})
	return nil
}

// Scratches returns all scratch buffers opened so far.
func (m *Mem) Scratches() []Scratch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Scratch, len(m.scratches))
	copy(out, m.scratches)
	return out
}

// InputBox implements Editor.
func (m *Mem) InputBox(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	p := m.prompter
	m.mu.Unlock()
	if p == nil {
		return "", ErrInputCanceled
	}
	return p.Prompt(ctx, prompt)
}

func (m *Mem) textBetweenLocked(start, end Position) string {
	if start.Line == end.Line {
		line := m.lines[start.Line]
		return line[min(start.Col, len(line)):min(end.Col, len(line))]
	}
	var b strings.Builder
	first := m.lines[start.Line]
	b.WriteString(first[min(start.Col, len(first)):])
	for i := start.Line + 1; i < end.Line; i++ {
		b.WriteByte('\n')
		b.WriteString(m.lines[i])
	}
	last := m.lines[end.Line]
	b.WriteByte('\n')
	b.WriteString(last[:min(end.Col, len(last))])
	return b.String()
}

func (m *Mem) clampLocked(p Position) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(m.lines) {
		p.Line = len(m.lines) - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if p.Col > len(m.lines[p.Line]) {
		p.Col = len(m.lines[p.Line])
	}
	return p
}

func (m *Mem) checkRangeLocked(start, end int) error {
	if start < 0 || end >= len(m.lines) || start > end {
		return fmt.Errorf("line range [%d, %d] out of bounds (document has %d lines)", start, end, len(m.lines))
	}
	return nil
}
