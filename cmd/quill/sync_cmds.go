package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillsync/quill/internal/remote"
	"github.com/quillsync/quill/internal/syncer"
	"github.com/quillsync/quill/internal/ui"
)

var noteFlag string

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Overwrite the local note with the remote document's content",
	Long: `Fetch the bound remote document, reconstruct the note text
from its structure, and overwrite the local note file in full. Local
front matter is preserved.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSyncOp("pull", func(ctx context.Context, coord syncer.Coordinator) error {
			return coord.Pull(ctx, noteFlag)
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Write the local note's content to the remote document",
	Long: `Parse the local note, project it into styled remote content,
and replace the remote document's content in one guarded batch.

Identical content is detected before writing and performs no remote
edit. A push rejected because the remote moved past the last known
revision is reported as a conflict; pull and push again to resolve.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSyncOp("push", func(ctx context.Context, coord syncer.Coordinator) error {
			result, err := coord.Push(ctx, noteFlag)
			if err != nil {
				return err
			}
			if result.Pushed {
				fmt.Printf("%s Pushed %s (revision %s)\n", ui.RenderPass("✓"), noteFlag, result.Revision)
			} else {
				fmt.Printf("%s Remote already current, nothing to push\n", ui.RenderDim("•"))
			}
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull remote changes, then push local ones",
	Long: `Pull when the remote document moved past the last known
revision, then push when the local note still differs.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSyncOp("sync", func(ctx context.Context, coord syncer.Coordinator) error {
			return coord.Sync(ctx, noteFlag)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{pullCmd, pushCmd, syncCmd} {
		c.Flags().StringVar(&noteFlag, "note", "", "note ID (required)")
		_ = c.MarkFlagRequired("note")
	}
}

// runSyncOp wires the coordinator and runs one operation, mapping the
// error taxonomy onto exit messages.
func runSyncOp(name string, op func(context.Context, syncer.Coordinator) error) {
	cfg := loadConfig()

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	coord, _, err := newCoordinator(cfg, st, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := op(context.Background(), coord); err != nil {
		switch {
		case errors.Is(err, remote.ErrRevisionConflict):
			fmt.Fprintf(os.Stderr, "%s Conflict: the remote document changed since the last sync.\n",
				ui.RenderFail("✗"))
			fmt.Fprintf(os.Stderr, "   Run 'quill pull --note %s', review, then push again.\n", noteFlag)
		case errors.Is(err, syncer.ErrAccessLost):
			fmt.Fprintf(os.Stderr, "%s Remote access lost for %s; rebind with 'quill bind'.\n",
				ui.RenderWarn("⚠"), noteFlag)
		default:
			fmt.Fprintf(os.Stderr, "Error during %s: %v\n", name, err)
		}
		os.Exit(1)
	}
}
