// Package project flattens the IR into the remote document's shape: a
// single text buffer plus parallel style range lists with absolute
// buffer offsets, and the edit requests that write them.
package project

import (
	"fmt"
	"strings"

	"github.com/quillsync/quill/internal/ir"
	"github.com/quillsync/quill/internal/remote"
)

// ParagraphStyleRange styles the paragraphs covering [Start, End) of
// the flat buffer. Exactly one of Style or Code is meaningful: code
// blocks get the decoration instead of a named style.
type ParagraphStyleRange struct {
	Start int
	End   int
	Style remote.ParagraphStyle
	Code  bool
}

// TextStyleRange styles a run of text over [Start, End). Monospace is
// only set for code-block spans and may span paragraph boundaries;
// Bold and Italic never do.
type TextStyleRange struct {
	Start     int
	End       int
	Bold      bool
	Italic    bool
	Monospace bool
}

// BulletRange marks the paragraphs covering [Start, End) as list items.
type BulletRange struct {
	Start   int
	End     int
	Ordered bool
	Depth   int
}

// Projection is the flattened form of a document.
//
// Invariants, checked by Validate: len(Text) is the sum of each block's
// rendered length plus one line terminator per block, and every range
// lies within [0, len(Text)).
type Projection struct {
	Text       string
	Paragraphs []ParagraphStyleRange
	Runs       []TextStyleRange
	Bullets    []BulletRange
}

// Project walks the block sequence and builds the flat buffer and its
// style ranges. Offsets here are zero-based; Requests applies the +1
// shift the remote index space requires. Ranges are emitted in block
// order, which the remote API does not require but keeps diffs stable.
func Project(doc *ir.Document) *Projection {
	var buf strings.Builder
	p := &Projection{}

	cursor := 0
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		text := b.Text()
		start := cursor

		buf.WriteString(text)
		buf.WriteString("\n")
		cursor += len(text) + 1

		para := ParagraphStyleRange{Start: start, End: start + len(text)}
		switch b.Kind {
		case ir.KindTitle:
			para.Style = remote.StyleTitle
		case ir.KindSubtitle:
			para.Style = remote.StyleSubtitle
		case ir.KindHeading:
			para.Style = remote.HeadingStyle(b.Level)
		case ir.KindCodeBlock:
			para.Code = true
		default:
			para.Style = remote.StyleNormal
		}
		p.Paragraphs = append(p.Paragraphs, para)

		if b.Kind == ir.KindCodeBlock {
			// Monospace covers the block's full span, crossing the inner
			// line breaks so the region reads as one fenced block remotely.
			p.Runs = append(p.Runs, TextStyleRange{
				Start: start, End: start + len(text), Monospace: true,
			})
			continue
		}

		runCursor := start
		for _, r := range b.Runs {
			if r.Bold || r.Italic {
				p.Runs = append(p.Runs, TextStyleRange{
					Start: runCursor,
					End:   runCursor + len(r.Text),
					Bold:  r.Bold, Italic: r.Italic,
				})
			}
			runCursor += len(r.Text)
		}

		if b.Kind == ir.KindListItem {
			p.Bullets = appendBullet(p.Bullets, BulletRange{
				Start: start, End: start + len(text),
				Ordered: b.Ordered, Depth: b.Depth,
			})
		}
	}

	p.Text = buf.String()
	return p
}

// appendBullet extends the previous bullet range when the new item
// belongs to the same contiguous group (same ordering and depth), so
// one bullet request covers the whole list.
func appendBullet(bullets []BulletRange, next BulletRange) []BulletRange {
	if n := len(bullets); n > 0 {
		prev := &bullets[n-1]
		if prev.Ordered == next.Ordered && prev.Depth == next.Depth && prev.End+1 == next.Start {
			prev.End = next.End
			return bullets
		}
	}
	return append(bullets, next)
}

// Validate checks the projection invariants against the source document.
func (p *Projection) Validate(doc *ir.Document) error {
	want := 0
	for i := range doc.Blocks {
		want += len(doc.Blocks[i].Text()) + 1
	}
	if len(p.Text) != want {
		return fmt.Errorf("projected length %d, want %d", len(p.Text), want)
	}
	check := func(kind string, start, end int) error {
		if start < 0 || end < start || end > len(p.Text) {
			return fmt.Errorf("%s range [%d,%d) outside buffer of length %d", kind, start, end, len(p.Text))
		}
		return nil
	}
	for _, r := range p.Paragraphs {
		if err := check("paragraph", r.Start, r.End); err != nil {
			return err
		}
	}
	for _, r := range p.Runs {
		if err := check("text", r.Start, r.End); err != nil {
			return err
		}
	}
	for _, r := range p.Bullets {
		if err := check("bullet", r.Start, r.End); err != nil {
			return err
		}
	}
	return nil
}

// indexBase is the first valid index of the remote buffer. All
// projected offsets shift by this constant when building requests.
const indexBase = 1

// Requests builds the remote edit batch that writes this projection
// into an empty document: one insert followed by the style and bullet
// requests at shifted offsets.
func (p *Projection) Requests() []remote.Request {
	reqs := make([]remote.Request, 0, 1+len(p.Paragraphs)+len(p.Runs)+len(p.Bullets))

	reqs = append(reqs, remote.Request{
		InsertText: &remote.InsertTextRequest{Index: indexBase, Text: p.Text},
	})

	boolPtr := func(b bool) *bool { return &b }

	for _, r := range p.Paragraphs {
		req := &remote.UpdateParagraphStyleRequest{
			Range: remote.Range{Start: r.Start + indexBase, End: r.End + indexBase},
		}
		if r.Code {
			req.Shaded = true
			req.LeftBorder = true
		} else {
			req.Style = r.Style
		}
		reqs = append(reqs, remote.Request{UpdateParagraphStyle: req})
	}

	for _, r := range p.Runs {
		req := &remote.UpdateTextStyleRequest{
			Range: remote.Range{Start: r.Start + indexBase, End: r.End + indexBase},
		}
		if r.Monospace {
			req.FontFamily = remote.MonospaceFont
		}
		if r.Bold {
			req.Bold = boolPtr(true)
		}
		if r.Italic {
			req.Italic = boolPtr(true)
		}
		reqs = append(reqs, remote.Request{UpdateTextStyle: req})
	}

	for _, r := range p.Bullets {
		reqs = append(reqs, remote.Request{
			CreateBullets: &remote.CreateBulletsRequest{
				Range:   remote.Range{Start: r.Start + indexBase, End: r.End + indexBase},
				Ordered: r.Ordered,
				Depth:   r.Depth,
			},
		})
	}

	return reqs
}
