// Package syncer orchestrates pull, compare, and push between local
// note files and the remote document service, enforcing optimistic
// concurrency on every push.
package syncer

import (
	"context"
	"time"
)

// Coordinator keeps bound notes and their remote documents in sync.
//
// The coordinator is deliberately conservative: a push whose revision
// guard no longer matches is aborted and surfaced as a conflict, never
// merged or retried. The caller must re-pull and re-attempt.
type Coordinator interface {
	// Pull refreshes the local note from the remote document: fetch
	// the bound tab, reconstruct the IR, serialize, and overwrite the
	// note file in full. Front matter already present on the local
	// note is preserved. The binding's revision and timestamp are
	// updated on success.
	//
	// Pull fails with store.ErrNotFound when the note has no binding
	// and with ErrAccessLost when the binding is flagged access-lost.
	Pull(ctx context.Context, noteID string) error

	// Push writes the local note's content to the remote document.
	//
	// The push first pulls the remote's current text; identical
	// content (after normalization) performs zero remote writes and
	// reports Pushed=false. Otherwise the full content range is
	// replaced in one atomic batch guarded by the binding's last known
	// revision. A stale guard aborts with remote.ErrRevisionConflict
	// and leaves both the remote document and the binding untouched.
	Push(ctx context.Context, noteID string) (*PushResult, error)

	// Sync performs a pull when the remote moved past the binding's
	// last known revision, then a push when the local text still
	// differs. This is the manual-trigger entry point.
	Sync(ctx context.Context, noteID string) error
}

// PushResult reports what a push did.
type PushResult struct {
	// Pushed is false when the remote already matched and the push
	// wrote nothing.
	Pushed bool

	// Revision is the remote revision after the push, or the still-
	// current revision when nothing was written.
	Revision string
}

// EventType classifies sync events for observers.
type EventType string

const (
	EventPulled       EventType = "note_pulled"
	EventPushed       EventType = "note_pushed"
	EventConflict     EventType = "conflict"
	EventAccessLost   EventType = "access_lost"
	EventPollComplete EventType = "poll_complete"
)

// Event is a sync occurrence broadcast to observers.
type Event struct {
	Type      EventType `json:"type"`
	NoteID    string    `json:"note_id"`
	Revision  string    `json:"revision,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives sync events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}
