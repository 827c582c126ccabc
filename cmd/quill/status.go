package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quillsync/quill/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bindings and the change-feed checkpoint",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		bindings, err := st.All()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading store: %v\n", err)
			os.Exit(1)
		}

		if len(bindings) == 0 {
			fmt.Printf("%s No notes bound yet. Run 'quill bind <doc-id>'.\n", ui.RenderDim("•"))
			return
		}

		ids := make([]string, 0, len(bindings))
		for id := range bindings {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Printf("Bound notes (%d):\n", len(ids))
		for _, id := range ids {
			b := bindings[id]
			marker := ui.RenderPass("✓")
			note := ""
			if b.AccessLost {
				marker = ui.RenderWarn("⚠")
				note = " (access lost)"
			}
			fmt.Printf("  %s %s -> %s", marker, id, b.RemoteDocID)
			if b.RemoteTabID != "" {
				fmt.Printf(" tab=%s", b.RemoteTabID)
			}
			if b.LastKnownRevision != "" {
				fmt.Printf(" rev=%s", b.LastKnownRevision)
			}
			if !b.LastSyncAt.IsZero() {
				fmt.Printf(" synced=%s", b.LastSyncAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Printf("%s\n", note)
		}

		cursor, err := st.Checkpoint()
		if err == nil && cursor != "" {
			fmt.Printf("Change cursor: %s\n", ui.RenderDim(cursor))
		}
	},
}
