// Package remote defines the contract with the rich document service:
// the structural document model, the edit request vocabulary, the change
// feed, and the error taxonomy. Everything above this package is
// transport-agnostic; the HTTP client in this package is one concrete
// implementation of Service, and tests substitute an in-memory fake.
package remote

import (
	"context"
)

// FetchOptions controls the shape of a Fetch response.
type FetchOptions struct {
	// IncludeTabs requests the per-tab retrieval mode. In this mode each
	// tab carries its own Body and the document-level Body is empty and
	// must not be read. Without it, single-tab documents return their
	// content directly at the document level, which is the more reliable
	// field for them.
	IncludeTabs bool
}

// EditOptions guards an ApplyEdits call.
type EditOptions struct {
	// RequiredRevision, when non-empty, makes the edit conditional: the
	// service rejects the batch with a revision conflict if the document
	// has moved past this revision.
	RequiredRevision string
}

// EditResult reports the outcome of a successful ApplyEdits call.
type EditResult struct {
	// RevisionID is the document revision after the edits were applied.
	RevisionID string `json:"revisionId"`
}

// Change is one entry from the change feed.
type Change struct {
	// RemoteID identifies the changed document.
	RemoteID string `json:"remoteId"`

	// Removed is true when the document was deleted or access was revoked.
	Removed bool `json:"removed"`
}

// ChangePage is one page of the change feed.
type ChangePage struct {
	Changes []Change `json:"changes"`

	// NextCursor, when non-empty, means more pages are available now.
	NextCursor string `json:"nextCursor,omitempty"`

	// ResetCursor, when non-empty, is the cursor to persist once the
	// final page of the current batch has been processed.
	ResetCursor string `json:"resetCursor,omitempty"`
}

// Service is the remote document service consumed by the sync core.
//
// All methods take a context because every call is a network round trip.
// Implementations must map service-level failures onto the sentinel
// errors in this package (ErrNotFound, ErrAccess, ErrRevisionConflict)
// so callers can branch with errors.Is.
type Service interface {
	// Fetch retrieves a document's structural content and revision.
	Fetch(ctx context.Context, docID string, opts FetchOptions) (*Document, error)

	// ApplyEdits submits a batch of edit requests atomically. The batch
	// either fully applies or is rejected; a rejection due to a stale
	// RequiredRevision is reported as a *ConflictError.
	ApplyEdits(ctx context.Context, docID string, reqs []Request, opts EditOptions) (*EditResult, error)

	// ListChanges returns the page of changes at the given cursor.
	ListChanges(ctx context.Context, cursor string) (*ChangePage, error)

	// CurrentCursor returns the feed's current position token. Changes
	// that happened before this token are not observable through it.
	CurrentCursor(ctx context.Context) (string, error)
}
