package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillsync/quill/internal/config"
	"github.com/quillsync/quill/internal/markdown"
	"github.com/quillsync/quill/internal/remote"
	"github.com/quillsync/quill/internal/shadow"
	"github.com/quillsync/quill/internal/store"
	"github.com/quillsync/quill/internal/syncer"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Sync plain-text notes with rich remote documents",
	Long: `quill keeps a directory of Markdown notes synchronized with
structured, styled remote documents, in both directions.

Local edits are parsed, projected into styled content, and pushed with
an optimistic-concurrency guard. Remote edits are detected through the
change feed and pulled back into the note files.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.quill/config.yaml)")

	rootCmd.AddCommand(bindCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig resolves configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the configured binding store backend.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "", "file":
		return store.NewFileStore(cfg.StorePath)
	case "sqlite":
		return store.OpenSQLite(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want file or sqlite)", cfg.StoreBackend)
	}
}

// newService builds the remote client. Missing credentials are fatal:
// no sync operation proceeds without them.
func newService(cfg *config.Config) (remote.Service, error) {
	token, err := cfg.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", remote.ErrAccess, err)
	}
	return remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.RemoteBaseURL,
		Token:   token,
	})
}

// newCoordinator wires the sync coordinator from configuration.
func newCoordinator(cfg *config.Config, st store.Store, logger *log.Logger) (syncer.Coordinator, *shadow.Dir, error) {
	svc, err := newService(cfg)
	if err != nil {
		return nil, nil, err
	}
	notes, err := shadow.NewDir(cfg.NotesDir)
	if err != nil {
		return nil, nil, err
	}
	coord, err := syncer.New(syncer.Config{
		Service: svc,
		Store:   st,
		Notes:   notes,
		Parse: markdown.Options{
			PromoteTitle:    cfg.PromoteTitle,
			PromoteSubtitle: cfg.PromoteSubtitle,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return coord, notes, nil
}
