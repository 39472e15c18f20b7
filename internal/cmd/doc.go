// Package cmd provides the command-line interface implementation for chronofs.
//
// This package contains all the subcommand implementations for the chronofs
// CLI tool. It uses the Cobra library for command structure and Fang for
// beautiful styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and entry point
//   - mount: FUSE filesystem mounting without the journal API
//   - serve: Mounting plus the HTTP/websocket journal API and background
//     journal pruning
//   - tail: Client that follows a running daemon's change feed
//   - churn: Write-traffic generator for exercising the journal
//
// Each command is implemented as a separate file with its own constructor
// function that returns a *cobra.Command.
package cmd
