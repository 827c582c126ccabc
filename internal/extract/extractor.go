// Package extract reconstructs the IR from a remote document's
// structural content, classifying paragraphs and runs by their style
// signals. It is the inverse direction of package project.
package extract

import (
	"fmt"
	"strings"

	"github.com/quillsync/quill/internal/ir"
	"github.com/quillsync/quill/internal/remote"
)

// Content resolves the one authoritative retrieval path for a bound
// tab and returns its paragraphs.
//
// Documents fetched in per-tab mode carry content on each tab and an
// empty document-level body, which must not be read. Single-tab
// documents fetched without tabs carry content at the document level,
// the more reliable field for them. tabID selects a tab when the
// document has tabs; with an empty tabID the first tab is used.
func Content(doc *remote.Document, tabID string) ([]remote.Paragraph, error) {
	if len(doc.Tabs) == 0 {
		return doc.Body, nil
	}
	if tabID == "" {
		return doc.Tabs[0].Body, nil
	}
	tab := doc.FindTab(tabID)
	if tab == nil {
		return nil, fmt.Errorf("tab %s: %w", tabID, remote.ErrNotFound)
	}
	return tab.Body, nil
}

// Extract converts remote structural content into the IR.
//
// Classification per paragraph, in order: a named style names the
// block (title, subtitle, heading 1-3); background shading plus a left
// border marks code; a bullet marks a list item; everything else is a
// plain paragraph. A monospace run font is supporting evidence of code
// but never the sole determinant. Consecutive code paragraphs merge
// into one code block.
func Extract(paras []remote.Paragraph) *ir.Document {
	doc := &ir.Document{}

	for _, p := range paras {
		if isCode(&p) {
			line := plainText(&p)
			if n := len(doc.Blocks); n > 0 && doc.Blocks[n-1].Kind == ir.KindCodeBlock {
				prev := &doc.Blocks[n-1]
				prev.Lines = append(prev.Lines, line)
				continue
			}
			doc.Blocks = append(doc.Blocks, ir.Block{
				Kind:  ir.KindCodeBlock,
				Lines: []string{line},
			})
			continue
		}

		block := ir.Block{Runs: extractRuns(&p)}
		switch {
		case p.Style == remote.StyleTitle:
			block.Kind = ir.KindTitle
		case p.Style == remote.StyleSubtitle:
			block.Kind = ir.KindSubtitle
		case p.Style.HeadingLevel() > 0:
			block.Kind = ir.KindHeading
			block.Level = p.Style.HeadingLevel()
		case p.Bullet != nil:
			block.Kind = ir.KindListItem
			block.Ordered = p.Bullet.Ordered
			block.Depth = p.Bullet.NestingLevel
		default:
			block.Kind = ir.KindParagraph
		}
		doc.Blocks = append(doc.Blocks, block)
	}

	return doc
}

// isCode reports whether a paragraph carries the code-block decoration.
// The decoration is authoritative; a monospace font alone does not
// reclassify a paragraph, it only corroborates.
func isCode(p *remote.Paragraph) bool {
	return p.Shaded && p.LeftBorder
}

// Monospace reports whether every run of the paragraph uses the
// monospace signature font. Exposed for callers that want the
// corroborating signal alongside isCode.
func Monospace(p *remote.Paragraph) bool {
	if len(p.Elements) == 0 {
		return false
	}
	for _, e := range p.Elements {
		if e.FontFamily != remote.MonospaceFont {
			return false
		}
	}
	return true
}

// extractRuns copies the paragraph's text runs, merging adjacent runs
// with identical styling and dropping the paragraph terminator the
// remote model appends to the final run.
func extractRuns(p *remote.Paragraph) []ir.Run {
	var runs []ir.Run
	for _, e := range p.Elements {
		text := strings.TrimSuffix(e.Content, "\n")
		if text == "" {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].Bold == e.Bold && runs[n-1].Italic == e.Italic {
			runs[n-1].Text += text
			continue
		}
		runs = append(runs, ir.Run{Text: text, Bold: e.Bold, Italic: e.Italic})
	}
	return runs
}

// plainText flattens a paragraph to unstyled text.
func plainText(p *remote.Paragraph) string {
	var sb strings.Builder
	for _, e := range p.Elements {
		sb.WriteString(strings.TrimSuffix(e.Content, "\n"))
	}
	return sb.String()
}
