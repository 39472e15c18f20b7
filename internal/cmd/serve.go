package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/spf13/cobra"

	"github.com/chronofs/chronofs/chronofs"
	"github.com/chronofs/chronofs/internal/config"
	"github.com/chronofs/chronofs/journal"
	"github.com/chronofs/chronofs/stream"
	"github.com/chronofs/chronofs/version"
)

// NewServeCmd creates and returns the serve subcommand for the chronofs
// CLI. It mounts the filesystem and exposes the journal API over HTTP.
func NewServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve [BACKING_DIR MOUNTPOINT]",
		Short: "Mount a chronofs filesystem and serve its journal API",
		Long: `Mount a chronofs filesystem and expose its change journal over HTTP.

Paths may be given as arguments or in the config file; arguments win.
The daemon also prunes journal history on the configured interval so a
long-running mount holds a bounded chain in memory. Clients whose
checkpoint falls behind the pruning horizon receive 410 Gone and must
resynchronize.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, args)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to TOML config file")

	return cmd
}

func runServe(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(args) == 2 {
		cfg.BackingDir = args[0]
		cfg.Mountpoint = args[1]
	}
	if cfg.BackingDir == "" || cfg.Mountpoint == "" {
		return fmt.Errorf("backing dir and mountpoint are required (arguments or config file)")
	}
	if pathsOverlap(cfg.BackingDir, cfg.Mountpoint) {
		return fmt.Errorf("backing dir %s and mountpoint %s overlap", cfg.BackingDir, cfg.Mountpoint)
	}

	fmt.Printf("chronofs %s starting...\n", version.GetFullVersion())

	j := journal.New(nil)
	filesystem, err := chronofs.NewFS(cfg.BackingDir, j)
	if err != nil {
		return fmt.Errorf("failed to create filesystem: %w", err)
	}

	srv := stream.NewServer(j, filesystem)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("journal API listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("journal API failed: %v", err)
		}
	}()

	// Background pruning keeps the chain bounded for an always-on mount.
	stopPrune := make(chan struct{})
	go pruneLoop(j, cfg.Journal, stopPrune)

	c, err := fuse.Mount(
		cfg.Mountpoint,
		fuse.FSName("chronofs"),
		fuse.Subtype("chronofs"),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		close(stopPrune)
		srv.Close()
		httpSrv.Close()
		fuse.Unmount(cfg.Mountpoint)
		c.Close()
		log.Println("Shutdown complete")
		os.Exit(0)
	}()

	log.Printf("chronofs %s mounted at %s (backing: %s)", version.GetVersion(), cfg.Mountpoint, cfg.BackingDir)
	return fs.Serve(c, filesystem)
}

// pruneLoop truncates journal history on a ticker so that at most
// retain_entries sequence numbers stay answerable.
func pruneLoop(j *journal.Journal, cfg config.JournalConfig, stop <-chan struct{}) {
	ticker := time.NewTicker(cfg.TruncateInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			latest := j.LatestSequence()
			if uint64(latest) > cfg.RetainEntries {
				j.TruncateBefore(latest - journal.SequenceNumber(cfg.RetainEntries) + 1)
			}
		case <-stop:
			return
		}
	}
}
