package remote

// Request is one edit operation in an ApplyEdits batch. Exactly one
// field is set per request. Offsets use the remote index space, which
// starts at 1: callers building requests from a zero-based flat buffer
// shift every offset by +1 before constructing them.
type Request struct {
	InsertText           *InsertTextRequest           `json:"insertText,omitempty"`
	DeleteContentRange   *DeleteContentRangeRequest   `json:"deleteContentRange,omitempty"`
	UpdateParagraphStyle *UpdateParagraphStyleRequest `json:"updateParagraphStyle,omitempty"`
	UpdateTextStyle      *UpdateTextStyleRequest      `json:"updateTextStyle,omitempty"`
	CreateBullets        *CreateBulletsRequest        `json:"createBullets,omitempty"`
}

// Range is a half-open [Start, End) span in the remote index space.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// InsertTextRequest inserts text at a single index.
type InsertTextRequest struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// DeleteContentRangeRequest removes the content in Range.
type DeleteContentRangeRequest struct {
	Range Range `json:"range"`
}

// UpdateParagraphStyleRequest applies a named style or the code-block
// decoration to every paragraph touching Range.
type UpdateParagraphStyleRequest struct {
	Range Range          `json:"range"`
	Style ParagraphStyle `json:"style,omitempty"`

	// Shaded and LeftBorder set the code-block decoration instead of a
	// named style.
	Shaded     bool `json:"shaded,omitempty"`
	LeftBorder bool `json:"leftBorder,omitempty"`
}

// UpdateTextStyleRequest applies inline styling over Range. Only fields
// with non-nil values are touched on the remote side.
type UpdateTextStyleRequest struct {
	Range      Range  `json:"range"`
	Bold       *bool  `json:"bold,omitempty"`
	Italic     *bool  `json:"italic,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
}

// CreateBulletsRequest turns every paragraph touching Range into a list
// item with the given ordering and indent depth.
type CreateBulletsRequest struct {
	Range   Range `json:"range"`
	Ordered bool  `json:"ordered"`
	Depth   int   `json:"depth"`
}
