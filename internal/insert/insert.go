// Package insert writes a finished response back to the editor according to
// a command's insertion policy.
package insert

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/codewing-ai/codewing/internal/command"
	"github.com/codewing-ai/codewing/internal/editor"
)

var markdown = goldmark.New()

// Apply mutates the editor per policy. sel must be the selection captured
// when the command was invoked, not the current one; streaming may have
// moved it. Chat-style policies leave the editor untouched.
func Apply(policy command.Insertion, response string, sel editor.Selection, ed editor.Editor) error {
	switch policy {
	case command.InsertNone, "":
		return nil
	case command.InsertReplace:
		return replaceSelection(response, sel, ed)
	case command.InsertBefore:
		return insertAt(sel.StartLine, response, sel, ed)
	case command.InsertAfter:
		return insertAt(sel.EndLine+1, response, sel, ed)
	case command.InsertNew:
		return ed.OpenScratch(ed.LanguageID(), response)
	default:
		return fmt.Errorf("unknown insertion policy %q", policy)
	}
}

func replaceSelection(response string, sel editor.Selection, ed editor.Editor) error {
	text := reindent(FirstFencedBlock(response), selectionIndent(sel, ed))
	return ed.ReplaceLines(sel.StartLine, sel.EndLine, text)
}

func insertAt(line int, response string, sel editor.Selection, ed editor.Editor) error {
	text := reindent(FirstFencedBlock(response), selectionIndent(sel, ed))
	if err := ed.InsertLines(line, text); err != nil {
		return err
	}
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	ed.Select(
		editor.Position{Line: line, Col: 0},
		editor.Position{Line: line + len(lines) - 1, Col: len(last)},
	)
	return nil
}

// FirstFencedBlock extracts the inner content of the first fenced code block
// in a markdown response, dropping surrounding prose. A response without a
// fence is returned verbatim.
func FirstFencedBlock(response string) string {
	src := []byte(response)
	doc := markdown.Parser().Parse(gtext.NewReader(src))

	var block string
	found := false
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		block = b.String()
		found = true
		return ast.WalkStop, nil
	})

	if !found {
		return response
	}
	return strings.TrimRight(block, "\n")
}

// selectionIndent returns the leading whitespace of the first line of the
// original selection.
func selectionIndent(sel editor.Selection, ed editor.Editor) string {
	lines := strings.Split(ed.DocumentText(), "\n")
	if sel.StartLine < 0 || sel.StartLine >= len(lines) {
		return ""
	}
	line := lines[sel.StartLine]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// reindent prefixes every line with indent, computed once from the first
// selected line and applied uniformly.
func reindent(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
