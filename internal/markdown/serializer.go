package markdown

import (
	"fmt"
	"strings"

	"github.com/quillsync/quill/internal/ir"
)

// Serialize renders the IR back into note text, the inverse of Parse.
//
// Blocks are separated by a blank line, except consecutive list items,
// which stay on adjacent lines. Titles render as level-1 headings and
// subtitles as fully-italic paragraphs, so a round trip through Parse
// with the matching Options reproduces the same document.
func Serialize(doc *ir.Document) string {
	var sb strings.Builder
	ordinal := 0 // position within the current ordered list group

	for i, b := range doc.Blocks {
		if i > 0 {
			if b.Kind == ir.KindListItem && doc.Blocks[i-1].Kind == ir.KindListItem {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		if b.Kind != ir.KindListItem || !b.Ordered {
			ordinal = 0
		}

		switch b.Kind {
		case ir.KindTitle:
			sb.WriteString("# ")
			sb.WriteString(renderRuns(b.Runs))
		case ir.KindSubtitle:
			sb.WriteString(renderSubtitle(b.Runs))
		case ir.KindHeading:
			sb.WriteString(strings.Repeat("#", b.Level))
			sb.WriteString(" ")
			sb.WriteString(renderRuns(b.Runs))
		case ir.KindCodeBlock:
			sb.WriteString(fenceMarker)
			sb.WriteString(b.Language)
			sb.WriteString("\n")
			for _, line := range b.Lines {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
			sb.WriteString(fenceMarker)
		case ir.KindListItem:
			sb.WriteString(strings.Repeat("  ", b.Depth))
			if b.Ordered {
				ordinal++
				sb.WriteString(fmt.Sprintf("%d. ", ordinal))
			} else {
				sb.WriteString("- ")
			}
			sb.WriteString(renderRuns(b.Runs))
		default:
			sb.WriteString(renderRuns(b.Runs))
		}
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderRuns wraps each run in its marker pair. Bold-and-italic runs
// nest with bold outside: **_text_**.
func renderRuns(runs []ir.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		switch {
		case r.Bold && r.Italic:
			sb.WriteString("**_")
			sb.WriteString(r.Text)
			sb.WriteString("_**")
		case r.Bold:
			sb.WriteString("**")
			sb.WriteString(r.Text)
			sb.WriteString("**")
		case r.Italic:
			sb.WriteString("_")
			sb.WriteString(r.Text)
			sb.WriteString("_")
		default:
			sb.WriteString(r.Text)
		}
	}
	return sb.String()
}

// renderSubtitle renders a subtitle as a fully-italic line. Runs that
// already carry the italic flag keep their markers; plain runs (as
// produced by the remote extractor, where the subtitle style is a
// paragraph property rather than a run property) are wrapped so the
// line re-parses as a subtitle.
func renderSubtitle(runs []ir.Run) string {
	allItalic := true
	for _, r := range runs {
		if !r.Italic {
			allItalic = false
			break
		}
	}
	if allItalic {
		return renderRuns(runs)
	}
	forced := make([]ir.Run, len(runs))
	for i, r := range runs {
		r.Italic = true
		forced[i] = r
	}
	return renderRuns(forced)
}

// Normalize reduces text to the comparison form used for equality
// checks: trailing whitespace is stripped from every line and trailing
// blank lines are trimmed. Two round-tripped documents that differ only
// in incidental whitespace normalize equal.
func Normalize(text string) string {
	text = normalizeNewlines(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return out
	}
	return out + "\n"
}
