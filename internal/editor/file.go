package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codewing-ai/codewing/internal/language"
)

// File is an Editor over a file on disk. Edits apply to the in-memory buffer
// and reach the file only through Save, so a failed dispatch never leaves a
// half-written document behind.
type File struct {
	*Mem
	path string
}

// OpenFile loads path into a file-backed editor. The language is derived
// from the file extension.
func OpenFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	text := strings.TrimSuffix(string(raw), "\n")
	return &File{
		Mem:  NewMem(text, language.FromExtension(ext), ext),
		path: path,
	}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// SelectAll selects the whole document.
func (f *File) SelectAll() {
	lines := strings.Split(f.DocumentText(), "\n")
	last := len(lines) - 1
	f.Select(Position{}, Position{Line: last, Col: len(lines[last])})
}

// SelectLineRange selects the inclusive one-based line range [from, to].
func (f *File) SelectLineRange(from, to int) error {
	lines := strings.Split(f.DocumentText(), "\n")
	if from < 1 || to > len(lines) || from > to {
		return fmt.Errorf("line range %d-%d out of bounds (file has %d lines)", from, to, len(lines))
	}
	f.Select(Position{Line: from - 1}, Position{Line: to - 1, Col: len(lines[to-1])})
	return nil
}

// Save writes the buffer back to the file.
func (f *File) Save() error {
	if err := os.WriteFile(f.path, []byte(f.DocumentText()+"\n"), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	return nil
}

// OpenScratch writes the scratch buffer to a sibling file instead of an
// editor tab, since a terminal host has no tabs.
func (f *File) OpenScratch(languageID, text string) error {
	dir := filepath.Dir(f.path)
	base := strings.TrimSuffix(filepath.Base(f.path), filepath.Ext(f.path))
	scratch := filepath.Join(dir, base+".codewing"+filepath.Ext(f.path))
	if err := os.WriteFile(scratch, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write scratch %s: %w", scratch, err)
	}
	return f.Mem.OpenScratch(languageID, text)
}
