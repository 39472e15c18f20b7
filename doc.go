// Package main provides the chronofs command-line interface.
//
// chronofs is a FUSE-based filesystem daemon that records every mutation
// into an in-process change journal and exposes that journal to clients
// over HTTP and websockets. Watchman-style tools can ask "what changed
// since sequence N" and receive a single merged summary instead of a
// replay of individual events.
//
// The main binary supports multiple subcommands:
//   - mount: Mount a chronofs filesystem without the journal API
//   - serve: Mount plus the HTTP/websocket journal API and pruning
//   - tail: Follow the change feed of a running daemon
//   - churn: Generate write traffic against a mount
package main
