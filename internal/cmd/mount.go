package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	_ "bazil.org/fuse/fs/fstestutil"
	"github.com/spf13/cobra"

	"github.com/chronofs/chronofs/chronofs"
	"github.com/chronofs/chronofs/journal"
	"github.com/chronofs/chronofs/version"
)

// NewMountCmd creates and returns the mount subcommand for the chronofs
// CLI. It mounts the filesystem without the journal API; use serve to get
// both.
func NewMountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount BACKING_DIR MOUNTPOINT",
		Short: "Mount a chronofs filesystem",
		Long: `Mount a chronofs filesystem at the specified mountpoint.

BACKING_DIR is the working-copy directory holding the real file content.
MOUNTPOINT is the directory where the filesystem will be mounted.
Mutations made through the mountpoint are recorded in the in-memory
change journal for the lifetime of the mount.`,
		Args: cobra.ExactArgs(2),
		RunE: runMount,
	}
}

func runMount(cmd *cobra.Command, args []string) error {
	backingDir := args[0]
	mountpoint := args[1]

	if pathsOverlap(backingDir, mountpoint) {
		return fmt.Errorf("backing dir %s and mountpoint %s overlap", backingDir, mountpoint)
	}

	fmt.Printf("chronofs %s starting...\n", version.GetFullVersion())

	j := journal.New(nil)
	filesystem, err := chronofs.NewFS(backingDir, j)
	if err != nil {
		return fmt.Errorf("failed to create filesystem: %w", err)
	}

	c, err := fuse.Mount(
		mountpoint,
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
		fuse.Unmount(mountpoint)
		c.Close()
		log.Println("Shutdown complete")
		os.Exit(0)
	}()

	log.Printf("chronofs %s mounted at %s (backing: %s)", version.GetVersion(), mountpoint, backingDir)
	return fs.Serve(c, filesystem)
}

// pathsOverlap reports whether one path contains the other. Mounting over
// the backing directory (or inside it) would make the passthrough recurse
// into itself.
func pathsOverlap(a, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)
	if a == b {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(a, b+sep) || strings.HasPrefix(b, a+sep)
}
