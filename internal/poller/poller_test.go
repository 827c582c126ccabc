package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/quillsync/quill/internal/remote"
	"github.com/quillsync/quill/internal/store"
	"github.com/quillsync/quill/internal/syncer"
)

// feedService is an in-memory remote.Service covering only the change
// feed. Fetch and ApplyEdits are never reached by the poller.
type feedService struct {
	cursor string
	pages  map[string]*remote.ChangePage

	listCalls []string
}

func (f *feedService) Fetch(context.Context, string, remote.FetchOptions) (*remote.Document, error) {
	return nil, errors.New("unexpected Fetch")
}

func (f *feedService) ApplyEdits(context.Context, string, []remote.Request, remote.EditOptions) (*remote.EditResult, error) {
	return nil, errors.New("unexpected ApplyEdits")
}

func (f *feedService) ListChanges(_ context.Context, cursor string) (*remote.ChangePage, error) {
	f.listCalls = append(f.listCalls, cursor)
	page, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("no page at cursor %q", cursor)
	}
	return page, nil
}

func (f *feedService) CurrentCursor(context.Context) (string, error) {
	return f.cursor, nil
}

// recordingPuller records pull requests and optionally fails them.
type recordingPuller struct {
	pulled []string
	errs   map[string]error
}

func (r *recordingPuller) Pull(_ context.Context, noteID string) error {
	r.pulled = append(r.pulled, noteID)
	return r.errs[noteID]
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestPoller(t *testing.T, svc remote.Service, st store.Store, pl Puller) *Poller {
	t.Helper()
	p, err := New(Config{
		Service: svc,
		Store:   st,
		Puller:  pl,
		Logger:  log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestNewValidatesConfig(t *testing.T) {
	svc := &feedService{}
	st := newTestStore(t)
	pl := &recordingPuller{}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "nil service", cfg: Config{Store: st, Puller: pl}},
		{name: "nil store", cfg: Config{Service: svc, Puller: pl}},
		{name: "nil puller", cfg: Config{Service: svc, Store: st}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New accepted incomplete config")
			}
		})
	}
}

func TestFirstTickInitializesCursor(t *testing.T) {
	svc := &feedService{cursor: "c0"}
	st := newTestStore(t)
	pl := &recordingPuller{}
	p := newTestPoller(t, svc, st, pl)

	if p.State() != Uninitialized {
		t.Fatalf("initial state = %v, want uninitialized", p.State())
	}

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	c, err := st.Checkpoint()
	if err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	if c != "c0" {
		t.Errorf("checkpoint = %q, want c0", c)
	}
	if len(svc.listCalls) != 0 {
		t.Errorf("first tick listed changes at %v, want no listing", svc.listCalls)
	}
	if len(pl.pulled) != 0 {
		t.Errorf("first tick pulled %v, want nothing", pl.pulled)
	}
	if p.State() != Ready {
		t.Errorf("state = %v, want ready", p.State())
	}
}

func TestTickPullsChangedNotes(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {
			Changes:     []remote.Change{{RemoteID: "docA"}, {RemoteID: "unbound"}},
			ResetCursor: "c1",
		},
	}}
	st := newTestStore(t)
	if _, err := st.Bind("note1", store.Fields{RemoteDocID: store.String("docA")}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}
	pl := &recordingPuller{}
	p := newTestPoller(t, svc, st, pl)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(pl.pulled) != 1 || pl.pulled[0] != "note1" {
		t.Errorf("pulled = %v, want [note1]", pl.pulled)
	}
	c, _ := st.Checkpoint()
	if c != "c1" {
		t.Errorf("checkpoint = %q, want c1", c)
	}
}

func TestTickFollowsPagesBeforeAdvancing(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {
			Changes:    []remote.Change{{RemoteID: "docA"}},
			NextCursor: "c0b",
		},
		"c0b": {
			Changes:     []remote.Change{{RemoteID: "docB"}},
			ResetCursor: "c1",
		},
	}}
	st := newTestStore(t)
	for note, doc := range map[string]string{"noteA": "docA", "noteB": "docB"} {
		if _, err := st.Bind(note, store.Fields{RemoteDocID: store.String(doc)}); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
	}
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}
	pl := &recordingPuller{}
	p := newTestPoller(t, svc, st, pl)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(svc.listCalls) != 2 || svc.listCalls[0] != "c0" || svc.listCalls[1] != "c0b" {
		t.Errorf("listCalls = %v, want [c0 c0b]", svc.listCalls)
	}
	if len(pl.pulled) != 2 {
		t.Errorf("pulled = %v, want both notes", pl.pulled)
	}
	c, _ := st.Checkpoint()
	if c != "c1" {
		t.Errorf("checkpoint = %q, want c1 (only after final page)", c)
	}
}

func TestTickFlagsRemovedDocuments(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {
			Changes:     []remote.Change{{RemoteID: "docA", Removed: true}},
			ResetCursor: "c1",
		},
	}}
	st := newTestStore(t)
	if _, err := st.Bind("note1", store.Fields{RemoteDocID: store.String("docA")}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}
	pl := &recordingPuller{}
	p := newTestPoller(t, svc, st, pl)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(pl.pulled) != 0 {
		t.Errorf("pulled = %v, want nothing for a removed document", pl.pulled)
	}
	b, err := st.Get("note1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !b.AccessLost {
		t.Error("binding not flagged access-lost")
	}
}

func TestTickSurvivesPerChangeFailures(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {
			Changes:     []remote.Change{{RemoteID: "docA"}, {RemoteID: "docB"}},
			ResetCursor: "c1",
		},
	}}
	st := newTestStore(t)
	for note, doc := range map[string]string{"noteA": "docA", "noteB": "docB"} {
		if _, err := st.Bind(note, store.Fields{RemoteDocID: store.String(doc)}); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
	}
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}
	pl := &recordingPuller{errs: map[string]error{"noteA": errors.New("pull exploded")}}
	p := newTestPoller(t, svc, st, pl)

	// A failing change is logged and the remaining changes still apply,
	// but the cursor must not move past the batch.
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(pl.pulled) != 2 {
		t.Errorf("pulled = %v, want both attempts", pl.pulled)
	}
	c, _ := st.Checkpoint()
	if c != "c0" {
		t.Errorf("checkpoint = %q, want c0 held for retry", c)
	}
}

func TestTickKeepsCursorOnTransientFailure(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {
			Changes:     []remote.Change{{RemoteID: "docA"}},
			ResetCursor: "c1",
		},
	}}
	st := newTestStore(t)
	if _, err := st.Bind("note1", store.Fields{RemoteDocID: store.String("docA")}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}
	pl := &recordingPuller{errs: map[string]error{
		"note1": &remote.TransientError{Op: "fetch", Err: errors.New("connection reset")},
	}}
	p := newTestPoller(t, svc, st, pl)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	c, _ := st.Checkpoint()
	if c != "c0" {
		t.Fatalf("checkpoint = %q, want c0 unchanged after transient failure", c)
	}

	// Once the failure clears, the next tick reprocesses the same batch
	// and only then advances the cursor.
	pl.errs = nil
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("retry Tick failed: %v", err)
	}
	if len(pl.pulled) != 2 {
		t.Errorf("pulled = %v, want the change attempted twice", pl.pulled)
	}
	c, _ = st.Checkpoint()
	if c != "c1" {
		t.Errorf("checkpoint = %q, want c1 after successful retry", c)
	}
}

func TestTickEmitsEvents(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {
			Changes:     []remote.Change{{RemoteID: "docA", Removed: true}},
			ResetCursor: "c1",
		},
	}}
	st := newTestStore(t)
	if _, err := st.Bind("note1", store.Fields{RemoteDocID: store.String("docA")}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}

	var events []syncer.Event
	notify := notifierFunc(func(ev syncer.Event) { events = append(events, ev) })
	p, err := New(Config{
		Service:  svc,
		Store:    st,
		Puller:   &recordingPuller{},
		Notifier: notify,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %+v, want access-lost then poll-complete", events)
	}
	if events[0].Type != syncer.EventAccessLost || events[0].NoteID != "note1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Type != syncer.EventPollComplete {
		t.Errorf("second event = %+v", events[1])
	}
}

type notifierFunc func(syncer.Event)

func (f notifierFunc) Notify(ev syncer.Event) { f(ev) }

func TestTickEmptyFeedLeavesCursorAlone(t *testing.T) {
	svc := &feedService{pages: map[string]*remote.ChangePage{
		"c0": {},
	}}
	st := newTestStore(t)
	if err := st.SetCheckpoint("c0"); err != nil {
		t.Fatalf("SetCheckpoint failed: %v", err)
	}
	pl := &recordingPuller{}
	p := newTestPoller(t, svc, st, pl)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	c, _ := st.Checkpoint()
	if c != "c0" {
		t.Errorf("checkpoint = %q, want c0 unchanged", c)
	}
}
