// Package poller consumes the remote change feed through a durable
// opaque cursor and re-pulls notes whose remote documents changed.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/quillsync/quill/internal/remote"
	"github.com/quillsync/quill/internal/store"
	"github.com/quillsync/quill/internal/syncer"
)

// State is the poller's lifecycle state.
type State int

const (
	// Uninitialized means no checkpoint decision has been made yet.
	Uninitialized State = iota
	// Ready means a cursor is loaded and ticks process changes.
	Ready
	// Polling means a tick is currently in flight.
	Polling
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Polling:
		return "polling"
	default:
		return "unknown"
	}
}

// Puller re-pulls one bound note. Satisfied by the sync coordinator.
type Puller interface {
	Pull(ctx context.Context, noteID string) error
}

// Config holds the poller's collaborators.
type Config struct {
	Service remote.Service
	Store   store.Store
	Puller  Puller

	// Notifier receives poll-complete and access-lost events. Optional.
	Notifier syncer.Notifier

	// Logger for poll activity. Defaults to a stderr logger.
	Logger *log.Logger
}

// Poller drains the change feed one tick at a time.
//
// On the first tick with no stored checkpoint, the poller persists the
// feed's current token and processes nothing: edits made before that
// token stay invisible, and bootstrapping existing remote content is an
// explicit pull. The cursor is persisted only after the final page of a
// tick, and not at all when a change in the batch failed to apply, so
// both a crash mid-tick and a transient pull failure reprocess the
// batch on the next tick; reprocessing is idempotent because a pull
// always overwrites the note file in full.
type Poller struct {
	svc    remote.Service
	store  store.Store
	puller Puller
	notify syncer.Notifier
	logger *log.Logger

	mu    sync.Mutex
	state State
}

// New creates a Poller.
func New(cfg Config) (*Poller, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Puller == nil {
		return nil, fmt.Errorf("puller cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[poller] ", log.LstdFlags)
	}
	return &Poller{
		svc:    cfg.Service,
		store:  cfg.Store,
		puller: cfg.Puller,
		notify: cfg.Notifier,
		logger: logger,
	}, nil
}

// State returns the poller's current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tick processes one batch of changes. Safe to call repeatedly; a tick
// already in flight makes concurrent calls no-ops.
func (p *Poller) Tick(ctx context.Context) error {
	p.mu.Lock()
	if p.state == Polling {
		p.mu.Unlock()
		return nil
	}
	prev := p.state
	p.state = Polling
	p.mu.Unlock()

	next, err := p.tick(ctx, prev)
	p.mu.Lock()
	p.state = next
	p.mu.Unlock()
	return err
}

func (p *Poller) tick(ctx context.Context, prev State) (State, error) {
	cursor, err := p.store.Checkpoint()
	if err != nil {
		return prev, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	// First ever poll: persist the feed's current position and stop.
	if cursor == "" {
		token, err := p.svc.CurrentCursor(ctx)
		if err != nil {
			return Uninitialized, fmt.Errorf("failed to initialize cursor: %w", err)
		}
		if err := p.store.SetCheckpoint(token); err != nil {
			return Uninitialized, fmt.Errorf("failed to persist initial cursor: %w", err)
		}
		p.logger.Printf("Initialized change cursor at %s", token)
		return Ready, nil
	}

	// Drain all available pages sequentially, in feed order. The
	// checkpoint moves only once the final page is processed, and only
	// when every change applied: a failed change keeps the cursor where
	// it is so the next tick reprocesses the batch.
	final := ""
	processed := 0
	failed := 0
	for {
		page, err := p.svc.ListChanges(ctx, cursor)
		if err != nil {
			return Ready, fmt.Errorf("failed to list changes: %w", err)
		}

		for _, change := range page.Changes {
			if err := p.process(ctx, change); err != nil {
				p.logger.Printf("Warning: change for %s not applied: %v", change.RemoteID, err)
				failed++
			}
		}
		processed += len(page.Changes)

		if page.NextCursor != "" {
			cursor = page.NextCursor
			continue
		}
		final = page.ResetCursor
		break
	}

	switch {
	case failed > 0:
		p.logger.Printf("%d of %d changes not applied, keeping cursor for retry", failed, processed)
	case final != "":
		if err := p.store.SetCheckpoint(final); err != nil {
			return Ready, fmt.Errorf("failed to advance cursor: %w", err)
		}
		p.logger.Printf("Cursor advanced to %s", final)
	}
	p.emit(syncer.Event{
		Type:      syncer.EventPollComplete,
		Detail:    fmt.Sprintf("%d changes", processed),
		Timestamp: time.Now(),
	})
	return Ready, nil
}

// process applies one change: reverse-resolve the remote id, then
// either flag access loss or re-pull each bound note.
func (p *Poller) process(ctx context.Context, change remote.Change) error {
	notes, err := p.store.ResolveRemote(change.RemoteID)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", change.RemoteID, err)
	}
	if len(notes) == 0 {
		return nil // unbound document, nothing to do
	}

	if change.Removed {
		for _, noteID := range notes {
			if err := p.store.MarkAccessLost(noteID); err != nil {
				return fmt.Errorf("failed to flag %s access-lost: %w", noteID, err)
			}
			p.logger.Printf("Remote %s removed, flagged %s access-lost", change.RemoteID, noteID)
			p.emit(syncer.Event{
				Type:      syncer.EventAccessLost,
				NoteID:    noteID,
				Detail:    "remote " + change.RemoteID + " removed",
				Timestamp: time.Now(),
			})
		}
		return nil
	}

	for _, noteID := range notes {
		if err := p.puller.Pull(ctx, noteID); err != nil {
			// A note flagged access-lost between resolution and pull is
			// not an error worth surfacing per-change.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Poller) emit(ev syncer.Event) {
	if p.notify != nil {
		p.notify.Notify(ev)
	}
}
