package project

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quillsync/quill/internal/ir"
	"github.com/quillsync/quill/internal/markdown"
	"github.com/quillsync/quill/internal/remote"
)

// TestProjectTitleAndBold covers the canonical small document: a title
// line and a body paragraph with one bold span.
func TestProjectTitleAndBold(t *testing.T) {
	res, err := markdown.Parse("# T\n\nA **b** c", markdown.Options{PromoteTitle: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p := Project(res.Doc)

	if p.Text != "T\nA b c\n" {
		t.Errorf("Text = %q, want %q", p.Text, "T\nA b c\n")
	}

	wantParas := []ParagraphStyleRange{
		{Start: 0, End: 1, Style: remote.StyleTitle},
		{Start: 2, End: 7, Style: remote.StyleNormal},
	}
	if diff := cmp.Diff(wantParas, p.Paragraphs); diff != "" {
		t.Errorf("paragraph ranges mismatch (-want +got):\n%s", diff)
	}

	wantRuns := []TextStyleRange{
		{Start: 4, End: 5, Bold: true},
	}
	if diff := cmp.Diff(wantRuns, p.Runs); diff != "" {
		t.Errorf("text ranges mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectCodeBlock(t *testing.T) {
	doc := &ir.Document{Blocks: []ir.Block{
		{Kind: ir.KindParagraph, Runs: []ir.Run{{Text: "intro"}}},
		{Kind: ir.KindCodeBlock, Language: "go", Lines: []string{"x := 1", "y := 2"}},
	}}

	p := Project(doc)

	// "intro\n" + "x := 1\ny := 2" + "\n"
	if p.Text != "intro\nx := 1\ny := 2\n" {
		t.Fatalf("Text = %q", p.Text)
	}

	code := p.Paragraphs[1]
	if !code.Code || code.Style != "" {
		t.Errorf("code block got named style %q, want decoration", code.Style)
	}
	if code.Start != 6 || code.End != 19 {
		t.Errorf("code range = [%d,%d), want [6,19)", code.Start, code.End)
	}

	// The monospace range spans the block's inner line break.
	if len(p.Runs) != 1 || !p.Runs[0].Monospace {
		t.Fatalf("runs = %+v, want one monospace range", p.Runs)
	}
	if p.Runs[0].Start != 6 || p.Runs[0].End != 19 {
		t.Errorf("monospace range = [%d,%d), want [6,19)", p.Runs[0].Start, p.Runs[0].End)
	}
}

func TestProjectBullets(t *testing.T) {
	doc := &ir.Document{Blocks: []ir.Block{
		{Kind: ir.KindListItem, Runs: []ir.Run{{Text: "aa"}}},
		{Kind: ir.KindListItem, Runs: []ir.Run{{Text: "bb"}}},
		{Kind: ir.KindListItem, Ordered: true, Runs: []ir.Run{{Text: "cc"}}},
	}}

	p := Project(doc)

	// Contiguous same-kind items share one bullet range; the ordered
	// item starts its own.
	want := []BulletRange{
		{Start: 0, End: 5},
		{Start: 6, End: 8, Ordered: true},
	}
	if diff := cmp.Diff(want, p.Bullets); diff != "" {
		t.Errorf("bullets mismatch (-want +got):\n%s", diff)
	}
}

// TestProjectionInvariants checks the length and bounds properties
// over a batch of documents.
func TestProjectionInvariants(t *testing.T) {
	texts := []string{
		"# T\n\nA **b** c",
		"```\ncode only",
		"- a\n- b\n1. c",
		"## h\n\npara\n\n```py\nx\n```\n\ntail",
		"",
	}

	for _, text := range texts {
		res, err := markdown.Parse(text, markdown.Options{PromoteTitle: true})
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", text, err)
		}
		p := Project(res.Doc)
		if err := p.Validate(res.Doc); err != nil {
			t.Errorf("Validate(%q): %v", text, err)
		}

		want := 0
		for i := range res.Doc.Blocks {
			want += len(res.Doc.Blocks[i].Text()) + 1
		}
		if len(p.Text) != want {
			t.Errorf("len(Text) = %d, want %d for %q", len(p.Text), want, text)
		}
	}
}

// TestRequestsShiftOffsets verifies the +1 shift into the remote index
// space and the overall batch shape.
func TestRequestsShiftOffsets(t *testing.T) {
	res, err := markdown.Parse("# T\n\nA **b** c", markdown.Options{PromoteTitle: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	reqs := Project(res.Doc).Requests()

	if reqs[0].InsertText == nil {
		t.Fatal("first request must insert the buffer")
	}
	if reqs[0].InsertText.Index != 1 {
		t.Errorf("insert index = %d, want 1", reqs[0].InsertText.Index)
	}

	var styles []remote.Range
	for _, r := range reqs[1:] {
		switch {
		case r.UpdateParagraphStyle != nil:
			styles = append(styles, r.UpdateParagraphStyle.Range)
		case r.UpdateTextStyle != nil:
			if r.UpdateTextStyle.Range != (remote.Range{Start: 5, End: 6}) {
				t.Errorf("bold range = %+v, want [5,6)", r.UpdateTextStyle.Range)
			}
			if r.UpdateTextStyle.Bold == nil || !*r.UpdateTextStyle.Bold {
				t.Error("bold flag not set on text style request")
			}
		}
	}

	wantStyles := []remote.Range{{Start: 1, End: 2}, {Start: 3, End: 8}}
	if diff := cmp.Diff(wantStyles, styles); diff != "" {
		t.Errorf("paragraph style ranges mismatch (-want +got):\n%s", diff)
	}
}
