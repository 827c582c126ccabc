package remote

// ParagraphStyle names the block-level style of a remote paragraph.
// The zero value is StyleNormal.
type ParagraphStyle string

const (
	StyleNormal   ParagraphStyle = "NORMAL_TEXT"
	StyleTitle    ParagraphStyle = "TITLE"
	StyleSubtitle ParagraphStyle = "SUBTITLE"
	StyleHeading1 ParagraphStyle = "HEADING_1"
	StyleHeading2 ParagraphStyle = "HEADING_2"
	StyleHeading3 ParagraphStyle = "HEADING_3"
)

// HeadingLevel returns the heading level (1-3) for heading styles,
// or 0 for any other style.
func (s ParagraphStyle) HeadingLevel() int {
	switch s {
	case StyleHeading1:
		return 1
	case StyleHeading2:
		return 2
	case StyleHeading3:
		return 3
	default:
		return 0
	}
}

// HeadingStyle returns the style constant for a heading level 1-3.
// Out-of-range levels map to StyleNormal.
func HeadingStyle(level int) ParagraphStyle {
	switch level {
	case 1:
		return StyleHeading1
	case 2:
		return StyleHeading2
	case 3:
		return StyleHeading3
	default:
		return StyleNormal
	}
}

// MonospaceFont is the font family this system writes for code spans and
// recognizes as code evidence when extracting.
const MonospaceFont = "Courier New"

// TextRun is a span of uniformly styled text within a remote paragraph.
type TextRun struct {
	Content    string `json:"content"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
}

// Bullet marks a paragraph as a list item.
type Bullet struct {
	Ordered      bool `json:"ordered"`
	NestingLevel int  `json:"nestingLevel"`
}

// Paragraph is one paragraph-like element of remote structural content.
type Paragraph struct {
	Style ParagraphStyle `json:"style,omitempty"`

	// Shaded and LeftBorder carry the code-block decoration: a paragraph
	// with background shading plus a left border is classified as code.
	Shaded     bool `json:"shaded,omitempty"`
	LeftBorder bool `json:"leftBorder,omitempty"`

	Bullet   *Bullet   `json:"bullet,omitempty"`
	Elements []TextRun `json:"elements"`
}

// Tab is one addressable sub-unit of a remote document. Tabs nest.
type Tab struct {
	ID       string      `json:"id"`
	Title    string      `json:"title,omitempty"`
	Body     []Paragraph `json:"body"`
	Children []Tab       `json:"children,omitempty"`
}

// Document is the structural content of a remote document at one revision.
//
// Exactly one content field is authoritative per retrieval mode: Body for
// the single-tab mode, Tabs for the per-tab mode (where Body is empty by
// contract and must not be read).
type Document struct {
	ID         string      `json:"id"`
	RevisionID string      `json:"revisionId"`
	Title      string      `json:"title,omitempty"`
	Body       []Paragraph `json:"body,omitempty"`
	Tabs       []Tab       `json:"tabs,omitempty"`
}

// FlattenTabs returns every tab of the document in depth-first order,
// walking the tab tree iteratively.
func (d *Document) FlattenTabs() []*Tab {
	var out []*Tab
	// Stack of pointers into the document; children are pushed in reverse
	// so the walk yields document order.
	stack := make([]*Tab, 0, len(d.Tabs))
	for i := len(d.Tabs) - 1; i >= 0; i-- {
		stack = append(stack, &d.Tabs[i])
	}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, t)
		for i := len(t.Children) - 1; i >= 0; i-- {
			stack = append(stack, &t.Children[i])
		}
	}
	return out
}

// FindTab locates a tab by ID anywhere in the tab tree.
// Returns nil when the document has no such tab.
func (d *Document) FindTab(tabID string) *Tab {
	for _, t := range d.FlattenTabs() {
		if t.ID == tabID {
			return t
		}
	}
	return nil
}
