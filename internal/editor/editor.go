// Package editor defines the narrow host boundary the dispatch pipeline sees:
// a document with a selection and cursor, a handful of edit operations, and
// an interactive input box. Hosts implement Editor; the core never talks to
// the terminal or filesystem directly.
package editor

import (
	"context"
	"errors"
)

// ErrInputCanceled reports that the user dismissed an input box without
// submitting. Distinct from submitting an empty string.
var ErrInputCanceled = errors.New("input canceled")

// Selection is the host's current selection, line-based.
type Selection struct {
	Text      string
	StartLine int
	EndLine   int
}

// Position is a zero-based line/column document position.
type Position struct {
	Line int
	Col  int
}

// Editor is the host text-buffer surface consumed by the pipeline.
type Editor interface {
	// Selection returns the active selection. An empty selection has empty
	// text and start/end on the cursor line.
	Selection() Selection

	// Select replaces the active selection.
	Select(start, end Position)

	// Cursor returns the active cursor position. With a non-empty selection
	// this is the end of the selection.
	Cursor() Position

	// DocumentText returns the whole document.
	DocumentText() string

	// LanguageID returns the document's language identifier ("go",
	// "typescript", ...), or "plaintext" when unknown.
	LanguageID() string

	// FileExtension returns the document's file extension without the dot,
	// or empty when there is none.
	FileExtension() string

	// ReplaceLines replaces the inclusive line range [start, end] with text.
	ReplaceLines(start, end int, text string) error

	// InsertLines inserts text as new lines so that the first inserted line
	// has index line. Existing lines from line onward shift down.
	InsertLines(line int, text string) error

	// OpenScratch opens a new unsaved buffer with the given language and
	// initial content.
	OpenScratch(languageID, text string) error

	// InputBox asks the user for one line of free text. A dismissed prompt
	// returns ErrInputCanceled; submitting nothing returns ("", nil).
	InputBox(ctx context.Context, prompt string) (string, error)
}
