// Package template rewrites command message templates against live editor
// context: named placeholders, interactive input, inline completion-parameter
// overrides, and cursor-relative extraction.
package template

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/codewing-ai/codewing/internal/editor"
)

// ErrCanceled reports that the user dismissed an interactive prompt. The
// caller drops the invocation without surfacing an error.
var ErrCanceled = errors.New("render canceled")

// inputPrompt is shown for the bare {{input}} placeholder.
const inputPrompt = "Elaborate, or leave blank."

var (
	labeledInputRE = regexp.MustCompile(`\{\{input:(.*?)\}\}`)
	paramRE        = regexp.MustCompile(`\{\{:(.*?):(.*?)\}\}`)
	numberRE       = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

	// {{cursor}}, {{cursor:N:M}}, {{cursor:N:M:'marker'}} with either quote
	// style; quote characters inside the marker are backslash-escaped.
	cursorRE = regexp.MustCompile(`\{\{cursor(?::([0-9]+):([0-9]+)(?::'((?:\\'|[^'])*)'|:"((?:\\"|[^"])*)")?)?\}\}`)
)

// Renderer holds the substitution environment for one command invocation.
// Both the user and system templates of the invocation render through the
// same instance, so parameter overrides from either accumulate in Params.
type Renderer struct {
	Editor       editor.Editor
	LanguageID   string
	LanguageName string
	Instructions string

	// Placeholders maps user-defined keys to values; a value may reference
	// other keys.
	Placeholders map[string]string

	// Known lists the completion-parameter names the active backend accepts.
	// Overrides naming anything else are stripped but not recorded.
	Known map[string]any

	params map[string]any
}

// Params returns the inline overrides collected so far, parsed numbers and
// all. Nil until the first recognized override renders.
func (r *Renderer) Params() map[string]any { return r.params }

// Render substitutes every placeholder in text. Stage order is significant:
// user-defined keys first so their values pass through the rest of the
// pipeline, the selection last so nothing re-expands inside selected code.
func (r *Renderer) Render(ctx context.Context, text string) (string, error) {
	text = r.expandNamed(text, make(map[string]bool))

	text = strings.ReplaceAll(text, "{{ft}}", r.LanguageID)
	text = strings.ReplaceAll(text, "{{language}}", r.LanguageName)

	text, err := r.collectInput(ctx, text)
	if err != nil {
		return "", err
	}

	text = r.applyParams(text)
	text = r.expandCursor(text)

	text = strings.ReplaceAll(text, "{{language_instructions}}", r.Instructions)
	if strings.Contains(text, "{{file}}") {
		text = strings.ReplaceAll(text, "{{file}}", r.Editor.DocumentText())
	}

	sel := r.Editor.Selection()
	text = strings.ReplaceAll(text, "{{selection}}", strings.TrimSpace(sel.Text))
	return strings.TrimSpace(text), nil
}

// circularMarker is the text substituted when placeholder expansion revisits
// a key it is already resolving.
func circularMarker(key string) string {
	return fmt.Sprintf("[codewing: possible placeholder circular reference detected (key: %s)]", key)
}

// expandNamed substitutes every user-defined placeholder. A value containing
// further {{key}} references is resolved first; the seen set breaks cycles by
// substituting a diagnostic marker instead of recursing.
func (r *Renderer) expandNamed(text string, seen map[string]bool) string {
	if len(r.Placeholders) == 0 {
		return text
	}
	keys := make([]string, 0, len(r.Placeholders))
	for k := range r.Placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		token := "{{" + key + "}}"
		if seen[key] {
			text = strings.ReplaceAll(text, token, circularMarker(key))
			continue
		}
		value := r.Placeholders[key]
		if r.referencesPlaceholder(value) {
			seen[key] = true
			value = r.expandNamed(value, seen)
		}
		text = strings.ReplaceAll(text, token, value)
	}
	return text
}

func (r *Renderer) referencesPlaceholder(value string) bool {
	for k := range r.Placeholders {
		if strings.Contains(value, "{{"+k+"}}") {
			return true
		}
	}
	return false
}

// collectInput resolves {{input}} then every {{input:prompt}} in order of
// appearance, prompting the user for each. A dismissed prompt cancels the
// whole render; an empty submission is a valid answer. When the bare
// {{input}} answer is empty, a period immediately following the placeholder
// is dropped so templates like "{{input}}." do not end turns with a stray
// dot.
func (r *Renderer) collectInput(ctx context.Context, text string) (string, error) {
	if strings.Contains(text, "{{input}}") {
		input, err := r.ask(ctx, inputPrompt)
		if err != nil {
			return "", err
		}
		if input == "" {
			text = strings.Replace(text, "{{input}}.", "", 1)
		}
		text = strings.Replace(text, "{{input}}", input, 1)
	}

	for {
		loc := labeledInputRE.FindStringSubmatchIndex(text)
		if loc == nil {
			return text, nil
		}
		prompt := text[loc[2]:loc[3]]
		input, err := r.ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		text = text[:loc[0]] + input + text[loc[1]:]
	}
}

func (r *Renderer) ask(ctx context.Context, prompt string) (string, error) {
	input, err := r.Editor.InputBox(ctx, prompt)
	if err != nil {
		if errors.Is(err, editor.ErrInputCanceled) {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("input box: %w", err)
	}
	return input, nil
}

// applyParams records {{:name:value}} overrides for recognized parameter
// names and strips every override token from the text, recognized or not.
func (r *Renderer) applyParams(text string) string {
	return paramRE.ReplaceAllStringFunc(text, func(match string) string {
		groups := paramRE.FindStringSubmatch(match)
		name, value := groups[1], groups[2]
		if _, ok := r.Known[name]; !ok {
			return ""
		}
		if r.params == nil {
			r.params = make(map[string]any)
		}
		if numberRE.MatchString(value) {
			n, _ := strconv.ParseFloat(value, 64)
			r.params[name] = n
		} else {
			r.params[name] = value
		}
		return ""
	})
}

// expandCursor handles the first {{cursor...}} occurrence: it extracts the
// document text from N lines above the cursor to M lines below, optionally
// planting a fill-in-middle marker at the cursor, and re-selects the range so
// a Replace insertion targets exactly the extracted lines. Further cursor
// tokens in the same template are left untouched.
func (r *Renderer) expandCursor(text string) string {
	loc := cursorRE.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	groups := cursorRE.FindStringSubmatch(text[loc[0]:loc[1]])

	before, after := 0, 0
	if groups[1] != "" {
		before, _ = strconv.Atoi(groups[1])
		after, _ = strconv.Atoi(groups[2])
	}
	marker := groups[3]
	quote := "'"
	if groups[4] != "" {
		marker = groups[4]
		quote = `"`
	}
	marker = strings.ReplaceAll(marker, `\`+quote, quote)

	cursor := r.Editor.Cursor()
	lines := strings.Split(r.Editor.DocumentText(), "\n")

	startLine := max(0, cursor.Line-before)
	endLine := min(len(lines)-1, cursor.Line+after)
	endCol := len(strings.TrimRight(lines[endLine], "\r"))

	prefix := sliceRange(lines, editor.Position{Line: startLine, Col: 0}, cursor)
	suffix := sliceRange(lines, cursor, editor.Position{Line: endLine, Col: endCol})

	text = text[:loc[0]] + prefix + marker + suffix + text[loc[1]:]

	r.Editor.Select(editor.Position{Line: startLine, Col: 0}, editor.Position{Line: endLine, Col: endCol})
	return text
}

// sliceRange returns the document text between two positions, inclusive of
// the newlines separating interior lines.
func sliceRange(lines []string, from, to editor.Position) string {
	if from.Line == to.Line {
		line := lines[from.Line]
		return line[clampCol(from.Col, line):clampCol(to.Col, line)]
	}
	var b strings.Builder
	first := lines[from.Line]
	b.WriteString(first[clampCol(from.Col, first):])
	b.WriteString("\n")
	for i := from.Line + 1; i < to.Line; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}
	last := lines[to.Line]
	b.WriteString(last[:clampCol(to.Col, last)])
	return b.String()
}

func clampCol(col int, line string) int {
	if col < 0 {
		return 0
	}
	if col > len(line) {
		return len(line)
	}
	return col
}
