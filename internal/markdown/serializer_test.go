package markdown

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quillsync/quill/internal/ir"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		doc  ir.Document
		want string
	}{
		{
			name: "title and body",
			doc: ir.Document{Blocks: []ir.Block{
				{Kind: ir.KindTitle, Runs: []ir.Run{{Text: "T"}}},
				{Kind: ir.KindParagraph, Runs: []ir.Run{{Text: "A "}, {Text: "b", Bold: true}, {Text: " c"}}},
			}},
			want: "# T\n\nA **b** c\n",
		},
		{
			name: "heading levels",
			doc: ir.Document{Blocks: []ir.Block{
				{Kind: ir.KindHeading, Level: 2, Runs: []ir.Run{{Text: "H"}}},
			}},
			want: "## H\n",
		},
		{
			name: "bold italic nests bold outside",
			doc: ir.Document{Blocks: []ir.Block{
				{Kind: ir.KindParagraph, Runs: []ir.Run{{Text: "x", Bold: true, Italic: true}}},
			}},
			want: "**_x_**\n",
		},
		{
			name: "code block with language",
			doc: ir.Document{Blocks: []ir.Block{
				{Kind: ir.KindCodeBlock, Language: "go", Lines: []string{"x := 1", "y := 2"}},
			}},
			want: "```go\nx := 1\ny := 2\n```\n",
		},
		{
			name: "ordered list numbers sequentially",
			doc: ir.Document{Blocks: []ir.Block{
				{Kind: ir.KindListItem, Ordered: true, Runs: []ir.Run{{Text: "one"}}},
				{Kind: ir.KindListItem, Ordered: true, Runs: []ir.Run{{Text: "two"}}},
				{Kind: ir.KindListItem, Depth: 1, Runs: []ir.Run{{Text: "sub"}}},
			}},
			want: "1. one\n2. two\n  - sub\n",
		},
		{
			name: "subtitle forces italics",
			doc: ir.Document{Blocks: []ir.Block{
				{Kind: ir.KindSubtitle, Runs: []ir.Run{{Text: "plain from remote"}}},
			}},
			want: "_plain from remote_\n",
		},
		{
			name: "empty document",
			doc:  ir.Document{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(&tt.doc); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trailing spaces stripped", in: "a  \nb\t\n", want: "a\nb\n"},
		{name: "trailing blank lines trimmed", in: "a\n\n\n", want: "a\n"},
		{name: "missing final newline added", in: "a", want: "a\n"},
		{name: "empty stays empty", in: "", want: ""},
		{name: "only whitespace collapses", in: "  \n\t\n", want: ""},
		{name: "interior blank lines kept", in: "a\n\nb\n", want: "a\n\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestRoundTrip verifies parse(serialize(ir)) reproduces the document
// for representative IRs, the serializer/parser inverse property.
func TestRoundTrip(t *testing.T) {
	docs := []struct {
		opts Options
		doc  ir.Document
	}{
		{Options{PromoteTitle: true, PromoteSubtitle: true}, ir.Document{Blocks: []ir.Block{
			{Kind: ir.KindTitle, Runs: []ir.Run{{Text: "Notes"}}},
			{Kind: ir.KindSubtitle, Runs: []ir.Run{{Text: "a running log", Italic: true}}},
			{Kind: ir.KindHeading, Level: 2, Runs: []ir.Run{{Text: "Week one"}}},
			{Kind: ir.KindParagraph, Runs: []ir.Run{
				{Text: "Mostly "}, {Text: "good", Bold: true}, {Text: " with "},
				{Text: "caveats", Italic: true},
			}},
			{Kind: ir.KindListItem, Runs: []ir.Run{{Text: "first"}}},
			{Kind: ir.KindListItem, Depth: 1, Runs: []ir.Run{{Text: "nested"}}},
			{Kind: ir.KindCodeBlock, Language: "sh", Lines: []string{"make test"}},
		}}},
		{Options{}, ir.Document{Blocks: []ir.Block{
			{Kind: ir.KindParagraph, Runs: []ir.Run{{Text: "both", Bold: true, Italic: true}}},
		}}},
		{Options{}, ir.Document{Blocks: []ir.Block{
			{Kind: ir.KindCodeBlock, Lines: []string{"no", "language"}},
		}}},
	}

	for i, tc := range docs {
		doc := tc.doc
		text := Serialize(&doc)
		res, err := Parse(text, tc.opts)
		if err != nil {
			t.Fatalf("doc %d: Parse(Serialize) failed: %v", i, err)
		}
		if diff := cmp.Diff(doc.Blocks, res.Doc.Blocks); diff != "" {
			t.Errorf("doc %d: round trip mismatch (-want +got):\n%s", i, diff)
		}

		// The text form itself is stable under a second round trip.
		again := Serialize(res.Doc)
		if Normalize(text) != Normalize(again) {
			t.Errorf("doc %d: serialized text not stable: %q vs %q", i, text, again)
		}
	}
}
