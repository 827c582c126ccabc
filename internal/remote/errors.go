package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the document, tab, or binding does not exist
	// or is no longer visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrAccess indicates missing or invalid credentials. Fatal at
	// startup: no sync operation proceeds past it.
	ErrAccess = errors.New("access denied")

	// ErrRevisionConflict indicates a guarded edit was rejected because
	// the document moved past the required revision.
	ErrRevisionConflict = errors.New("revision conflict")
)

// ConflictError reports a rejected conditional edit with enough detail
// for the caller to decide how to surface it. It matches
// ErrRevisionConflict under errors.Is.
type ConflictError struct {
	DocID            string
	RequiredRevision string
	CurrentRevision  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("revision conflict on %s: required %s, document at %s",
		e.DocID, e.RequiredRevision, e.CurrentRevision)
}

// Is makes errors.Is(err, ErrRevisionConflict) true for ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrRevisionConflict
}

// TransientError wraps a network or service failure that the watch loop
// should log and skip without advancing any cursor.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retriable service failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
