package insert

import (
	"strings"
	"testing"

	"github.com/codewing-ai/codewing/internal/command"
	"github.com/codewing-ai/codewing/internal/editor"
)

const fencedResponse = "Here is the fix:\n\n```go\nfor i := range items {\n\tprocess(items[i])\n}\n```\n\nLet me know if that helps."

func TestFirstFencedBlock(t *testing.T) {
	got := FirstFencedBlock(fencedResponse)
	want := "for i := range items {\n\tprocess(items[i])\n}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFirstFencedBlockTakesFirstOfMany(t *testing.T) {
	resp := "```\nfirst\n```\nprose\n```\nsecond\n```"
	if got := FirstFencedBlock(resp); got != "first" {
		t.Fatalf("got %q, want first", got)
	}
}

func TestFirstFencedBlockNoFence(t *testing.T) {
	resp := "Just prose, no code."
	if got := FirstFencedBlock(resp); got != resp {
		t.Fatalf("got %q, want verbatim response", got)
	}
}

func TestFirstFencedBlockLanguageTag(t *testing.T) {
	resp := "```python\nprint('hi')\n```"
	if got := FirstFencedBlock(resp); got != "print('hi')" {
		t.Fatalf("got %q", got)
	}
}

func TestReplaceReindents(t *testing.T) {
	doc := strings.Join([]string{
		"func outer() {",
		"\tif ok {",
		"\t\told1()",
		"\t\told2()",
		"\t}",
		"}",
	}, "\n")
	ed := editor.NewMem(doc, "go", "go")
	ed.Select(editor.Position{Line: 2, Col: 0}, editor.Position{Line: 3, Col: 7})
	sel := ed.Selection()

	resp := "```go\nnewA()\nnewB()\nnewC()\n```"
	if err := Apply(command.InsertReplace, resp, sel, ed); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	want := strings.Join([]string{
		"func outer() {",
		"\tif ok {",
		"\t\tnewA()",
		"\t\tnewB()",
		"\t\tnewC()",
		"\t}",
		"}",
	}, "\n")
	if got := ed.DocumentText(); got != want {
		t.Fatalf("document:\n%s\nwant:\n%s", got, want)
	}
}

func TestBeforeInsertsAndSelects(t *testing.T) {
	doc := "line0\n    target()\nline2"
	ed := editor.NewMem(doc, "go", "go")
	ed.Select(editor.Position{Line: 1, Col: 0}, editor.Position{Line: 1, Col: 12})
	sel := ed.Selection()

	resp := "```\n// comment\n```"
	if err := Apply(command.InsertBefore, resp, sel, ed); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	want := "line0\n    // comment\n    target()\nline2"
	if got := ed.DocumentText(); got != want {
		t.Fatalf("document = %q, want %q", got, want)
	}
	after := ed.Selection()
	if after.StartLine != 1 || after.EndLine != 1 || after.Text != "    // comment" {
		t.Fatalf("selection = %+v", after)
	}
}

func TestAfterInsertsBelowSelection(t *testing.T) {
	doc := "a\nb\nc"
	ed := editor.NewMem(doc, "go", "go")
	ed.Select(editor.Position{Line: 1, Col: 0}, editor.Position{Line: 1, Col: 1})
	sel := ed.Selection()

	if err := Apply(command.InsertAfter, "```\nx\ny\n```", sel, ed); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if got := ed.DocumentText(); got != "a\nb\nx\ny\nc" {
		t.Fatalf("document = %q", got)
	}
	after := ed.Selection()
	if after.StartLine != 2 || after.EndLine != 3 {
		t.Fatalf("selection = %+v", after)
	}
}

func TestNewOpensScratchWithFullResponse(t *testing.T) {
	ed := editor.NewMem("code", "go", "go")
	ed.Select(editor.Position{Line: 0, Col: 0}, editor.Position{Line: 0, Col: 4})

	if err := Apply(command.InsertNew, fencedResponse, ed.Selection(), ed); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	scratches := ed.Scratches()
	if len(scratches) != 1 {
		t.Fatalf("scratches = %d", len(scratches))
	}
	if scratches[0].LanguageID != "go" {
		t.Fatalf("scratch language = %q", scratches[0].LanguageID)
	}
	if scratches[0].Text != fencedResponse {
		t.Fatalf("scratch text = %q", scratches[0].Text)
	}
}

func TestNoneLeavesEditorUntouched(t *testing.T) {
	ed := editor.NewMem("untouched", "go", "go")
	if err := Apply(command.InsertNone, "anything", ed.Selection(), ed); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if ed.DocumentText() != "untouched" || len(ed.Scratches()) != 0 {
		t.Fatalf("editor mutated by none policy")
	}
}

func TestUnknownPolicyErrors(t *testing.T) {
	ed := editor.NewMem("x", "go", "go")
	if err := Apply(command.Insertion("sideways"), "y", ed.Selection(), ed); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
