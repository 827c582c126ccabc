// Package shadow manages the local plain-text mirror of each
// synchronized note: one file per note, full-overwrite semantics.
package shadow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the note file extension.
const Ext = ".md"

// Dir is a directory of note files, one per note ID.
type Dir struct {
	root string
}

// NewDir creates the notes directory if needed and returns it.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("notes directory cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// Path returns the file path for a note ID.
func (d *Dir) Path(noteID string) string {
	return filepath.Join(d.root, noteID+Ext)
}

// NoteID returns the note ID for a file path inside the directory, or
// false when the path is not a note file.
func (d *Dir) NoteID(path string) (string, bool) {
	if filepath.Ext(path) != Ext {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	root, err := filepath.Abs(d.root)
	if err != nil || filepath.Dir(abs) != root {
		return "", false
	}
	return strings.TrimSuffix(filepath.Base(abs), Ext), true
}

// Read returns the note's current text. A missing file reads as empty.
func (d *Dir) Read(noteID string) (string, error) {
	data, err := os.ReadFile(d.Path(noteID))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read note %s: %w", noteID, err)
	}
	return string(data), nil
}

// Write overwrites the note's text in full, through a temp-file rename
// so a concurrent reader never observes a partial write.
func (d *Dir) Write(noteID, text string) error {
	path := d.Path(noteID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write note %s: %w", noteID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace note %s: %w", noteID, err)
	}
	return nil
}
