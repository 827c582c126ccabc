package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quillsync/quill/internal/shadow"
	"github.com/quillsync/quill/internal/store"
	"github.com/quillsync/quill/internal/ui"
)

var (
	bindTab  string
	bindNote string
)

var bindCmd = &cobra.Command{
	Use:   "bind <remote-doc-id>",
	Short: "Bind a local note to a remote document",
	Long: `Bind a local note to a remote document (and optionally one of
its tabs). The binding is durable: it records the remote identity, the
last known revision, and sync timestamps. Re-binding an already bound
note merges the new remote identity into the existing record and
clears any access-lost flag.

Without --note, a new note ID is minted and an empty note file is
created for it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		docID := args[0]

		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		notes, err := shadow.NewDir(cfg.NotesDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		noteID := bindNote
		if noteID == "" {
			noteID = uuid.NewString()
		}

		if _, err := os.Stat(notes.Path(noteID)); os.IsNotExist(err) {
			if err := notes.Write(noteID, ""); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating note file: %v\n", err)
				os.Exit(1)
			}
		}

		binding, err := st.Bind(noteID, store.Fields{
			RemoteDocID: store.String(docID),
			RemoteTabID: store.String(bindTab),
			AccessLost:  store.Bool(false),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error binding note: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Bound %s -> %s", ui.RenderPass("✓"), noteID, binding.RemoteDocID)
		if binding.RemoteTabID != "" {
			fmt.Printf(" (tab %s)", binding.RemoteTabID)
		}
		fmt.Printf("\n   Note file: %s\n", notes.Path(noteID))
		fmt.Printf("   Run 'quill pull --note %s' to fetch the remote content.\n", noteID)
	},
}

func init() {
	bindCmd.Flags().StringVar(&bindNote, "note", "", "note ID (default: mint a new one)")
	bindCmd.Flags().StringVar(&bindTab, "tab", "", "remote tab ID for multi-tab documents")
}
