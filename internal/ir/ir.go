// Package ir defines the intermediate representation shared by the
// Markdown codec, the remote projector, and the remote extractor.
//
// A Document is an ordered sequence of Blocks. Non-code blocks carry an
// ordered list of styled Runs; code blocks carry raw lines verbatim.
// The IR is pure data: every transformation in the sync pipeline parses
// into it or serializes out of it, and nothing else is allowed to carry
// document structure between components.
package ir

import (
	"fmt"
	"strings"
)

// BlockKind identifies the variant of a Block.
type BlockKind int

const (
	// KindParagraph is a plain body paragraph.
	KindParagraph BlockKind = iota
	// KindTitle is the document title (at most one, always first).
	KindTitle
	// KindSubtitle is the document subtitle (at most one, follows the title).
	KindSubtitle
	// KindHeading is a section heading with Level 1-3.
	KindHeading
	// KindCodeBlock is a fenced code block; carries Lines, never Runs.
	KindCodeBlock
	// KindListItem is a bulleted or numbered list item.
	KindListItem
)

// String returns a human-readable name for the block kind.
func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTitle:
		return "title"
	case KindSubtitle:
		return "subtitle"
	case KindHeading:
		return "heading"
	case KindCodeBlock:
		return "code"
	case KindListItem:
		return "list_item"
	default:
		return "unknown"
	}
}

// Run is a contiguous span of text with uniform inline styling.
// Runs within one block never overlap and appear in source order.
type Run struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Block is one element of a Document.
//
// Exactly one shape is populated per kind:
//   - KindCodeBlock: Lines (verbatim), optional Language, no Runs
//   - KindHeading: Level 1-3 plus Runs
//   - KindListItem: Ordered/Depth plus Runs
//   - everything else: Runs only
type Block struct {
	Kind BlockKind `json:"kind"`

	// Level is the heading level (1-3). Only meaningful for KindHeading.
	Level int `json:"level,omitempty"`

	// Language is the fence language tag, if any. Only for KindCodeBlock.
	Language string `json:"language,omitempty"`

	// Ordered and Depth describe list membership. Only for KindListItem.
	Ordered bool `json:"ordered,omitempty"`
	Depth   int  `json:"depth,omitempty"`

	// Runs is the styled text content for every kind except KindCodeBlock.
	Runs []Run `json:"runs,omitempty"`

	// Lines is the raw content of a code block, one entry per source line,
	// without trailing newlines.
	Lines []string `json:"lines,omitempty"`
}

// Document is an ordered sequence of blocks. Order is the document's
// top-to-bottom reading order and is significant.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// Text returns the plain text of the block with all styling removed.
// For code blocks this is the lines joined by newlines.
func (b *Block) Text() string {
	if b.Kind == KindCodeBlock {
		return strings.Join(b.Lines, "\n")
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Validate checks the structural invariants of the document:
// runs are in order and non-overlapping (guaranteed here by being a
// plain sequence of non-empty spans), heading levels are in range, and
// code blocks carry no runs.
func (d *Document) Validate() error {
	for i := range d.Blocks {
		b := &d.Blocks[i]
		switch b.Kind {
		case KindHeading:
			if b.Level < 1 || b.Level > 3 {
				return fmt.Errorf("block %d: heading level must be 1-3 (got %d)", i, b.Level)
			}
		case KindCodeBlock:
			if len(b.Runs) > 0 {
				return fmt.Errorf("block %d: code block cannot carry styled runs", i)
			}
		case KindListItem:
			if b.Depth < 0 {
				return fmt.Errorf("block %d: list depth cannot be negative (got %d)", i, b.Depth)
			}
		}
		if b.Kind != KindCodeBlock {
			for j, r := range b.Runs {
				if r.Text == "" {
					return fmt.Errorf("block %d: run %d is empty", i, j)
				}
			}
		}
	}
	return nil
}

// Equal reports whether two documents have identical structure and content.
func (d *Document) Equal(other *Document) bool {
	if len(d.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range d.Blocks {
		if !d.Blocks[i].equal(&other.Blocks[i]) {
			return false
		}
	}
	return true
}

func (b *Block) equal(other *Block) bool {
	if b.Kind != other.Kind || b.Level != other.Level ||
		b.Language != other.Language || b.Ordered != other.Ordered ||
		b.Depth != other.Depth {
		return false
	}
	if len(b.Runs) != len(other.Runs) || len(b.Lines) != len(other.Lines) {
		return false
	}
	for i := range b.Runs {
		if b.Runs[i] != other.Runs[i] {
			return false
		}
	}
	for i := range b.Lines {
		if b.Lines[i] != other.Lines[i] {
			return false
		}
	}
	return true
}
