// Package store persists the durable sync state: bindings from local
// notes to remote documents, and the change-feed checkpoint.
//
// Two backends implement the same Store interface: a JSON file with
// whole-map read/merge/write semantics (the default), and a SQLite
// database for callers that want real transactional writes. Both are
// single-writer by assumption; the file backend has no inter-process
// locking and concurrent processes racing on it lose updates (last
// writer wins).
package store

import (
	"errors"
	"time"
)

// ErrNotFound indicates no binding exists for the given note.
var ErrNotFound = errors.New("binding not found")

// Binding associates a local note with a remote document and tab.
//
// A binding is created on first explicit bind, mutated by the sync
// coordinator and the poller, and never auto-deleted: loss of access
// to the remote object is recorded on the AccessLost flag instead.
type Binding struct {
	// RemoteDocID is the remote document identifier.
	RemoteDocID string `json:"remoteDocId"`

	// RemoteTabID is the bound tab within the document. Empty for
	// single-tab documents.
	RemoteTabID string `json:"remoteTabId,omitempty"`

	// LastKnownRevision is the remote revision at the last successful
	// pull or push. It is never advanced speculatively.
	LastKnownRevision string `json:"lastKnownRevision,omitempty"`

	// LastSyncAt is when the binding last synced in either direction.
	LastSyncAt time.Time `json:"lastSyncAt,omitempty"`

	// AccessLost is set when the change feed reports the remote object
	// removed. Pulls are suppressed until the note is rebound.
	AccessLost bool `json:"accessLost,omitempty"`
}

// Fields is a partial Binding used for merge updates. Nil pointer
// fields are left untouched on the stored record.
type Fields struct {
	RemoteDocID       *string
	RemoteTabID       *string
	LastKnownRevision *string
	LastSyncAt        *time.Time
	AccessLost        *bool
}

// apply merges the set fields into b.
func (f Fields) apply(b *Binding) {
	if f.RemoteDocID != nil {
		b.RemoteDocID = *f.RemoteDocID
	}
	if f.RemoteTabID != nil {
		b.RemoteTabID = *f.RemoteTabID
	}
	if f.LastKnownRevision != nil {
		b.LastKnownRevision = *f.LastKnownRevision
	}
	if f.LastSyncAt != nil {
		b.LastSyncAt = *f.LastSyncAt
	}
	if f.AccessLost != nil {
		b.AccessLost = *f.AccessLost
	}
}

// String returns a pointer to s, for building Fields literals.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building Fields literals.
func Bool(b bool) *bool { return &b }

// Time returns a pointer to t, for building Fields literals.
func Time(t time.Time) *time.Time { return &t }

// Store is the durable binding and checkpoint store. Every mutation is
// an atomic read-modify-write of the underlying state.
type Store interface {
	// Bind merges fields into the note's binding, creating it if absent.
	Bind(noteID string, fields Fields) (*Binding, error)

	// Get returns the note's binding or ErrNotFound.
	Get(noteID string) (*Binding, error)

	// Update merges fields into an existing binding. It is a no-op
	// (and returns nil) when the note has no binding.
	Update(noteID string, fields Fields) error

	// MarkAccessLost sets the AccessLost flag. No-op when absent.
	MarkAccessLost(noteID string) error

	// ResolveRemote returns the note IDs bound to a remote document,
	// for reverse lookup from change-feed entries.
	ResolveRemote(remoteDocID string) ([]string, error)

	// All returns every binding keyed by note ID.
	All() (map[string]Binding, error)

	// Checkpoint returns the stored change-feed cursor, or the empty
	// string when no checkpoint has been persisted yet.
	Checkpoint() (string, error)

	// SetCheckpoint persists the change-feed cursor.
	SetCheckpoint(cursor string) error

	// Close releases backend resources.
	Close() error
}
