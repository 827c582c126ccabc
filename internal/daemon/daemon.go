package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/quillsync/quill/internal/poller"
	"github.com/quillsync/quill/internal/remote"
	"github.com/quillsync/quill/internal/shadow"
	"github.com/quillsync/quill/internal/store"
	"github.com/quillsync/quill/internal/syncer"
)

// MinPollInterval is the enforced floor for the change-feed poll
// interval. Configured values below it are raised to it.
const MinPollInterval = 15 * time.Second

// Config holds configuration for the daemon.
type Config struct {
	// PollInterval is how often the change feed is drained.
	// Values below MinPollInterval are raised to MinPollInterval.
	PollInterval time.Duration

	// DebounceInterval is how long to wait after the last write to a
	// note file before pushing it. Batches rapid editor saves.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:     time.Minute,
		DebounceInterval: 2 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates file watching, pushes, and feed polling.
//
// The loop is cooperative and single-threaded with respect to any one
// note: no two remote calls run concurrently against the same bound
// tab. A remote call in flight is not interruptible; cancellation
// takes effect at the next suspension point.
type Daemon struct {
	notes  *shadow.Dir
	coord  syncer.Coordinator
	poll   *poller.Poller
	config *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // noteID -> last event time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Daemon.
func New(notes *shadow.Dir, coord syncer.Coordinator, poll *poller.Poller, config *Config) (*Daemon, error) {
	if notes == nil {
		return nil, fmt.Errorf("notes directory cannot be nil")
	}
	if coord == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if poll == nil {
		return nil, fmt.Errorf("poller cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	// Copy before flooring so the caller's config is left alone.
	cfg := *config
	if cfg.PollInterval < MinPollInterval {
		cfg.PollInterval = MinPollInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		notes:       notes,
		coord:       coord,
		poll:        poll,
		config:      &cfg,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation: an initial feed tick, then the
// watch/push and poll loops. Blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.watcher.Add(d.notes.Root()); err != nil {
		return fmt.Errorf("failed to watch notes directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.notes.Root())

	// First tick initializes the cursor when none is stored.
	if err := d.poll.Tick(d.ctx); err != nil {
		if errors.Is(err, remote.ErrAccess) {
			return fmt.Errorf("initial poll failed: %w", err)
		}
		d.config.Logger.Printf("Warning: initial poll failed: %v", err)
	}

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.pollLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")
	d.cancel()
	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}
	d.wg.Wait()
	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents queues note files touched by local edits.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			noteID, ok := d.notes.NoteID(event.Name)
			if !ok {
				continue
			}
			d.changeQueueMu.Lock()
			d.changeQueue[noteID] = time.Now()
			d.changeQueueMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processChangeQueue pushes notes whose debounce window has elapsed.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			for _, noteID := range d.drainReady() {
				d.pushNote(noteID)
			}
		}
	}
}

// drainReady removes and returns queued notes older than the debounce
// window.
func (d *Daemon) drainReady() []string {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	cutoff := time.Now().Add(-d.config.DebounceInterval)
	var ready []string
	for noteID, at := range d.changeQueue {
		if at.Before(cutoff) {
			ready = append(ready, noteID)
			delete(d.changeQueue, noteID)
		}
	}
	return ready
}

// pushNote pushes one note, classifying the failure modes the watch
// loop tolerates: unbound notes are skipped quietly, conflicts are
// surfaced but never retried, everything else is logged.
func (d *Daemon) pushNote(noteID string) {
	result, err := d.coord.Push(d.ctx, noteID)
	switch {
	case err == nil:
		if result.Pushed {
			d.config.Logger.Printf("Pushed %s (revision %s)", noteID, result.Revision)
		}
	case errors.Is(err, remote.ErrRevisionConflict):
		d.config.Logger.Printf("Conflict on %s: remote changed underneath; pull before editing again", noteID)
	case errors.Is(err, syncer.ErrAccessLost):
		d.config.Logger.Printf("Skipping %s: remote access lost", noteID)
	case errors.Is(err, store.ErrNotFound):
		// Note file without a binding; not ours to push.
	default:
		d.config.Logger.Printf("Error pushing %s: %v", noteID, err)
	}
}

// pollLoop drains the change feed at the configured interval. Failures
// are logged and the loop continues with the cursor unchanged.
func (d *Daemon) pollLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.poll.Tick(d.ctx); err != nil {
				d.config.Logger.Printf("Poll failed: %v", err)
			}
		}
	}
}
