package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chronofs/chronofs/version"
)

// NewRootCmd creates and returns the root cobra command for the chronofs
// CLI. It sets up all subcommands, command groups, and basic configuration.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chronofs",
		Short: "chronofs - a FUSE working-copy filesystem with a streaming change journal",
		Long: `chronofs mounts a working copy through FUSE and records every observed
mutation (creates, writes, removes, renames, checkouts) into an in-memory
change journal. Watchers ask "what changed since sequence N" over HTTP or
follow the live websocket feed instead of rescanning the tree.

Use subcommands to perform different operations:
  - mount: Mount a chronofs filesystem at a specified mountpoint
  - serve: Mount and expose the journal API over HTTP
  - tail:  Follow the change feed of a running daemon
  - churn: Generate write traffic against a mount for testing`,
		Version: version.GetFullVersion(),
	}

	groupFilesystem := "filesystem"
	groupUtilities := "utilities"

	// Add command groups for better organization
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupFilesystem,
		Title: "Filesystem Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	mountCmd := NewMountCmd()
	serveCmd := NewServeCmd()
	tailCmd := NewTailCmd()
	churnCmd := NewChurnCmd()

	mountCmd.GroupID = groupFilesystem
	serveCmd.GroupID = groupFilesystem
	tailCmd.GroupID = groupUtilities
	churnCmd.GroupID = groupUtilities

	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(churnCmd)

	return rootCmd
}
