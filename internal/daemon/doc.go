// Package daemon provides file system watching and bidirectional sync
// for quill's watch mode.
//
// The daemon monitors the notes directory for local edits and the
// remote change feed for remote edits, keeping both sides current
// without user intervention.
//
// # Architecture
//
// The daemon runs three loops over shared collaborators:
//
//   - File watching: fsnotify events on the notes directory queue note
//     IDs into a debounce map keyed by last event time
//   - Change queue: a ticker drains queued notes whose debounce window
//     elapsed and pushes each through the sync coordinator
//   - Feed polling: a ticker drains the remote change feed through the
//     poller, pulling changed documents back into their note files
//
// # Usage
//
//	notes, _ := shadow.NewDir(cfg.NotesDir)
//	d, err := daemon.New(notes, coord, poll, &daemon.Config{
//	    PollInterval:     time.Minute,
//	    DebounceInterval: 2 * time.Second,
//	    Logger:           logger,
//	})
//	if err != nil {
//	    return err
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	err = d.Start(ctx) // blocks until ctx is cancelled
//
// # Behavior
//
//   - The poll interval never drops below MinPollInterval; lower
//     configured values are raised to the floor
//   - Rapid editor saves within the debounce window collapse into one
//     push
//   - A push rejected by the remote's revision guard is logged as a
//     conflict and never retried; the user resolves by pulling
//   - Poll failures leave the stored cursor unchanged, so the next tick
//     retries the same batch
//   - Stop (or context cancellation) closes the watcher and waits for
//     all three loops to exit
package daemon
