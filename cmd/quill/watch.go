package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/quillsync/quill/internal/daemon"
	"github.com/quillsync/quill/internal/dashboard"
	"github.com/quillsync/quill/internal/markdown"
	"github.com/quillsync/quill/internal/poller"
	"github.com/quillsync/quill/internal/shadow"
	"github.com/quillsync/quill/internal/syncer"
	"github.com/quillsync/quill/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync loop: push local edits, poll for remote changes",
	Long: `Watch the notes directory and the remote change feed.

Local note edits are pushed after a short debounce. The remote change
feed is polled at the configured interval (never below the 15 second
floor); changed documents are pulled back into their note files and
removed documents flag their bindings access-lost.

Runs until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		logOut := io.Writer(os.Stderr)
		if cfg.LogFile != "" {
			logOut = &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
			}
		}

		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		svc, err := newService(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		notes, err := shadow.NewDir(cfg.NotesDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var notifier syncer.Notifier
		var dash *dashboard.Server
		if cfg.DashboardEnabled {
			dash = dashboard.NewServer(st, &dashboard.Config{
				Port:   cfg.DashboardPort,
				Logger: log.New(logOut, "[dashboard] ", log.LstdFlags),
			})
			if err := dash.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer dash.Stop()
			notifier = dash
			fmt.Printf("%s Dashboard at http://localhost:%d\n", ui.RenderAccent("▸"), cfg.DashboardPort)
		}

		coord, err := syncer.New(syncer.Config{
			Service: svc,
			Store:   st,
			Notes:   notes,
			Parse: markdown.Options{
				PromoteTitle:    cfg.PromoteTitle,
				PromoteSubtitle: cfg.PromoteSubtitle,
			},
			Notifier: notifier,
			Logger:   log.New(logOut, "[sync] ", log.LstdFlags),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		poll, err := poller.New(poller.Config{
			Service:  svc,
			Store:    st,
			Puller:   coord,
			Notifier: notifier,
			Logger:   log.New(logOut, "[poller] ", log.LstdFlags),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		d, err := daemon.New(notes, coord, poll, &daemon.Config{
			PollInterval:     cfg.PollInterval,
			DebounceInterval: cfg.DebounceInterval,
			Logger:           log.New(logOut, "[daemon] ", log.LstdFlags),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("▸"), cfg.NotesDir)
		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}
