package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/quillsync/quill/internal/extract"
	"github.com/quillsync/quill/internal/markdown"
	"github.com/quillsync/quill/internal/project"
	"github.com/quillsync/quill/internal/remote"
	"github.com/quillsync/quill/internal/shadow"
	"github.com/quillsync/quill/internal/store"
)

// ErrAccessLost indicates the binding is flagged access-lost and sync
// is suspended until the note is rebound.
var ErrAccessLost = errors.New("remote access lost; rebind the note")

// Config holds the coordinator's collaborators and options.
type Config struct {
	Service remote.Service
	Store   store.Store
	Notes   *shadow.Dir

	// Parse controls title/subtitle promotion when parsing local text.
	Parse markdown.Options

	// Notifier receives sync events. Optional.
	Notifier Notifier

	// Logger for sync activity. Defaults to a stderr logger.
	Logger *log.Logger
}

type coordinator struct {
	svc    remote.Service
	store  store.Store
	notes  *shadow.Dir
	parse  markdown.Options
	notify Notifier
	logger *log.Logger
}

// New creates a Coordinator.
func New(cfg Config) (Coordinator, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Notes == nil {
		return nil, fmt.Errorf("notes directory cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &coordinator{
		svc:    cfg.Service,
		store:  cfg.Store,
		notes:  cfg.Notes,
		parse:  cfg.Parse,
		notify: cfg.Notifier,
		logger: logger,
	}, nil
}

// Pull implements Coordinator.Pull.
func (c *coordinator) Pull(ctx context.Context, noteID string) error {
	binding, err := c.store.Get(noteID)
	if err != nil {
		return err
	}
	if binding.AccessLost {
		return fmt.Errorf("note %s: %w", noteID, ErrAccessLost)
	}

	text, revision, err := c.remoteText(ctx, binding)
	if err != nil {
		return fmt.Errorf("pull %s: %w", noteID, err)
	}

	// Keep local front matter: it has no remote counterpart.
	local, err := c.notes.Read(noteID)
	if err != nil {
		return err
	}
	front := ""
	if res, perr := markdown.Parse(local, c.parse); perr == nil {
		front = res.FrontMatter
	}

	if err := c.notes.Write(noteID, markdown.Compose(front, text)); err != nil {
		return err
	}

	now := time.Now()
	if err := c.store.Update(noteID, store.Fields{
		LastKnownRevision: store.String(revision),
		LastSyncAt:        store.Time(now),
	}); err != nil {
		return fmt.Errorf("failed to record pulled revision: %w", err)
	}

	c.logger.Printf("Pulled %s at revision %s", noteID, revision)
	c.emit(Event{Type: EventPulled, NoteID: noteID, Revision: revision, Timestamp: now})
	return nil
}

// Push implements Coordinator.Push.
func (c *coordinator) Push(ctx context.Context, noteID string) (*PushResult, error) {
	binding, err := c.store.Get(noteID)
	if err != nil {
		return nil, err
	}
	if binding.AccessLost {
		return nil, fmt.Errorf("note %s: %w", noteID, ErrAccessLost)
	}

	local, err := c.notes.Read(noteID)
	if err != nil {
		return nil, err
	}
	parsed, err := markdown.Parse(local, c.parse)
	if err != nil {
		return nil, fmt.Errorf("failed to parse note %s: %w", noteID, err)
	}

	doc, err := c.fetch(ctx, binding)
	if err != nil {
		return nil, fmt.Errorf("push %s: %w", noteID, err)
	}
	paras, err := extract.Content(doc, binding.RemoteTabID)
	if err != nil {
		return nil, fmt.Errorf("push %s: %w", noteID, err)
	}
	remoteText := markdown.Serialize(extract.Extract(paras))

	localBody := markdown.Serialize(parsed.Doc)
	if markdown.Normalize(localBody) == markdown.Normalize(remoteText) {
		c.logger.Printf("Push %s: remote already current, no-op", noteID)
		return &PushResult{Pushed: false, Revision: doc.RevisionID}, nil
	}

	proj := project.Project(parsed.Doc)
	if err := proj.Validate(parsed.Doc); err != nil {
		return nil, fmt.Errorf("projection of %s is invalid: %w", noteID, err)
	}

	// One atomic batch: clear the current content (the final implicit
	// terminator is not deletable), then write the projection.
	var reqs []remote.Request
	if end := contentEnd(paras); end > 1 {
		reqs = append(reqs, remote.Request{
			DeleteContentRange: &remote.DeleteContentRangeRequest{
				Range: remote.Range{Start: 1, End: end},
			},
		})
	}
	reqs = append(reqs, proj.Requests()...)

	result, err := c.svc.ApplyEdits(ctx, binding.RemoteDocID, reqs, remote.EditOptions{
		RequiredRevision: binding.LastKnownRevision,
	})
	if err != nil {
		if errors.Is(err, remote.ErrRevisionConflict) {
			c.logger.Printf("Push %s rejected: revision guard %s is stale", noteID, binding.LastKnownRevision)
			c.emit(Event{Type: EventConflict, NoteID: noteID,
				Revision: binding.LastKnownRevision, Detail: err.Error(), Timestamp: time.Now()})
		}
		return nil, fmt.Errorf("push %s: %w", noteID, err)
	}

	now := time.Now()
	if err := c.store.Update(noteID, store.Fields{
		LastKnownRevision: store.String(result.RevisionID),
		LastSyncAt:        store.Time(now),
	}); err != nil {
		return nil, fmt.Errorf("failed to record pushed revision: %w", err)
	}

	c.logger.Printf("Pushed %s, remote now at revision %s", noteID, result.RevisionID)
	c.emit(Event{Type: EventPushed, NoteID: noteID, Revision: result.RevisionID, Timestamp: now})
	return &PushResult{Pushed: true, Revision: result.RevisionID}, nil
}

// Sync implements Coordinator.Sync.
func (c *coordinator) Sync(ctx context.Context, noteID string) error {
	binding, err := c.store.Get(noteID)
	if err != nil {
		return err
	}
	if binding.AccessLost {
		return fmt.Errorf("note %s: %w", noteID, ErrAccessLost)
	}

	doc, err := c.fetch(ctx, binding)
	if err != nil {
		return fmt.Errorf("sync %s: %w", noteID, err)
	}
	if doc.RevisionID != binding.LastKnownRevision {
		if err := c.Pull(ctx, noteID); err != nil {
			return err
		}
	}
	_, err = c.Push(ctx, noteID)
	return err
}

// fetch retrieves the bound document in the retrieval mode the binding
// requires: per-tab when a tab is bound, document-level otherwise.
func (c *coordinator) fetch(ctx context.Context, b *store.Binding) (*remote.Document, error) {
	return c.svc.Fetch(ctx, b.RemoteDocID, remote.FetchOptions{
		IncludeTabs: b.RemoteTabID != "",
	})
}

// remoteText fetches the bound tab's content and serializes it.
func (c *coordinator) remoteText(ctx context.Context, b *store.Binding) (text, revision string, err error) {
	doc, err := c.fetch(ctx, b)
	if err != nil {
		return "", "", err
	}
	paras, err := extract.Content(doc, b.RemoteTabID)
	if err != nil {
		return "", "", err
	}
	return markdown.Serialize(extract.Extract(paras)), doc.RevisionID, nil
}

// contentEnd returns the end offset (remote index space) of the
// document's content: one past the last deletable character.
func contentEnd(paras []remote.Paragraph) int {
	end := 1
	for i := range paras {
		for _, e := range paras[i].Elements {
			end += len(strings.TrimSuffix(e.Content, "\n"))
		}
		end++ // paragraph terminator
	}
	// The final terminator is implicit and cannot be deleted.
	return end - 1
}

func (c *coordinator) emit(ev Event) {
	if c.notify != nil {
		c.notify.Notify(ev)
	}
}
