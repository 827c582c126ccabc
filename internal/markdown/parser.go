// Package markdown converts between the plain-text note format and the
// block/run IR. The parser and serializer are inverses of each other
// modulo Normalize, which is the comparison form used by the sync
// coordinator.
package markdown

import (
	"strings"

	"github.com/quillsync/quill/internal/ir"
)

// Options controls optional parse/serialize behavior.
type Options struct {
	// PromoteTitle promotes the first block of the document to a Title.
	PromoteTitle bool

	// PromoteSubtitle promotes a fully-italic block immediately
	// following the title to a Subtitle. Requires PromoteTitle.
	PromoteSubtitle bool
}

// Result carries the outcome of a parse.
type Result struct {
	Doc *ir.Document

	// FrontMatter is the leading YAML front matter, verbatim including
	// its fences, or empty. It is never part of the IR and never
	// projected to the remote document.
	FrontMatter string
}

const fenceMarker = "```"

// Parse converts note text into the IR.
//
// The scan is line-oriented and single-pass with one piece of
// cross-line state: whether the cursor is inside a fenced code block.
// An unterminated fence consumes the remainder of the document as code.
func Parse(text string, opts Options) (*Result, error) {
	text = normalizeNewlines(text)

	front, body := splitFrontMatter(text)

	var blocks []ir.Block
	var code *ir.Block // non-nil while inside a fence

	for _, line := range strings.Split(body, "\n") {
		if code != nil {
			if isFenceLine(line) {
				blocks = append(blocks, *code)
				code = nil
				continue
			}
			code.Lines = append(code.Lines, line)
			continue
		}

		if isFenceLine(line) {
			lang := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fenceMarker))
			code = &ir.Block{Kind: ir.KindCodeBlock, Language: lang, Lines: []string{}}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		blocks = append(blocks, parseLine(line))
	}

	// Unterminated fence: everything after the opening delimiter is code.
	if code != nil {
		blocks = append(blocks, *code)
	}

	doc := &ir.Document{Blocks: blocks}
	promote(doc, opts)

	return &Result{Doc: doc, FrontMatter: front}, nil
}

// parseLine classifies a single non-blank, non-fence line and scans its
// inline styling.
func parseLine(line string) ir.Block {
	if level, rest, ok := headingPrefix(line); ok {
		return ir.Block{Kind: ir.KindHeading, Level: level, Runs: scanRuns(rest)}
	}
	if ordered, depth, rest, ok := listPrefix(line); ok {
		return ir.Block{Kind: ir.KindListItem, Ordered: ordered, Depth: depth, Runs: scanRuns(rest)}
	}
	return ir.Block{Kind: ir.KindParagraph, Runs: scanRuns(line)}
}

// headingPrefix detects a leading #/##/### plus whitespace and returns
// the level and the line with the marker stripped.
func headingPrefix(line string) (level int, rest string, ok bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n < 1 || n > 3 || n >= len(line) {
		return 0, "", false
	}
	if line[n] != ' ' && line[n] != '\t' {
		return 0, "", false
	}
	return n, strings.TrimLeft(line[n:], " \t"), true
}

// listPrefix detects a bullet ("- ", "* ") or ordered ("1. ") list
// marker after optional indentation. Depth is one level per two leading
// spaces or one tab.
func listPrefix(line string) (ordered bool, depth int, rest string, ok bool) {
	i, spaces := 0, 0
	for i < len(line) {
		if line[i] == ' ' {
			spaces++
		} else if line[i] == '\t' {
			spaces += 2
		} else {
			break
		}
		i++
	}
	depth = spaces / 2
	body := line[i:]

	if len(body) >= 2 && (body[0] == '-' || body[0] == '*') && body[1] == ' ' {
		return false, depth, body[2:], true
	}

	j := 0
	for j < len(body) && body[j] >= '0' && body[j] <= '9' {
		j++
	}
	if j > 0 && j+1 < len(body) && body[j] == '.' && body[j+1] == ' ' {
		return true, depth, body[j+2:], true
	}
	return false, 0, "", false
}

// scanRuns is the inline scanner. It walks the line once, left to
// right, extracting emphasis spans in fixed precedence: doubled-marker
// bold first, then single-marker italic, then underscore italic. Each
// matched span contributes one styled Run holding its inner text;
// everything between spans accumulates into unstyled Runs. Matching is
// non-nested and never backtracks into an already-consumed span, with
// one exception: a bold span whose inner text is itself wrapped in a
// single italic marker pair yields a bold+italic Run, which is how the
// serializer writes the combined style.
func scanRuns(line string) []ir.Run {
	var runs []ir.Run
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			runs = append(runs, ir.Run{Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(line) {
		if strings.HasPrefix(line[i:], "**") {
			if end := strings.Index(line[i+2:], "**"); end > 0 {
				inner := line[i+2 : i+2+end]
				flush()
				runs = append(runs, boldRun(inner))
				i += 2 + end + 2
				continue
			}
		}
		if line[i] == '*' {
			if end := strings.IndexByte(line[i+1:], '*'); end > 0 {
				inner := line[i+1 : i+1+end]
				flush()
				runs = append(runs, ir.Run{Text: inner, Italic: true})
				i += 1 + end + 1
				continue
			}
		}
		if line[i] == '_' {
			if end := strings.IndexByte(line[i+1:], '_'); end > 0 {
				inner := line[i+1 : i+1+end]
				flush()
				runs = append(runs, ir.Run{Text: inner, Italic: true})
				i += 1 + end + 1
				continue
			}
		}
		plain.WriteByte(line[i])
		i++
	}
	flush()
	return runs
}

// boldRun builds the Run for a bold span, unwrapping the one-level
// italic nesting the serializer produces.
func boldRun(inner string) ir.Run {
	for _, m := range []byte{'_', '*'} {
		if len(inner) > 2 && inner[0] == m && inner[len(inner)-1] == m {
			return ir.Run{Text: inner[1 : len(inner)-1], Bold: true, Italic: true}
		}
	}
	return ir.Run{Text: inner, Bold: true}
}

// promote applies the title/subtitle pass over the finished block list.
func promote(doc *ir.Document, opts Options) {
	if !opts.PromoteTitle || len(doc.Blocks) == 0 {
		return
	}
	first := &doc.Blocks[0]
	if first.Kind != ir.KindHeading && first.Kind != ir.KindParagraph {
		return
	}
	first.Kind = ir.KindTitle
	first.Level = 0

	if !opts.PromoteSubtitle || len(doc.Blocks) < 2 {
		return
	}
	second := &doc.Blocks[1]
	if second.Kind != ir.KindParagraph || len(second.Runs) == 0 {
		return
	}
	for _, r := range second.Runs {
		if !r.Italic {
			return
		}
	}
	second.Kind = ir.KindSubtitle
}

// isFenceLine reports whether the line toggles fenced-code state: the
// fence delimiter alone, or the delimiter followed by a language tag.
func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fenceMarker)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
