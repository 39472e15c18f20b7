package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/chronofs/chronofs/stream"
)

// NewTailCmd creates and returns the tail subcommand for the chronofs
// CLI. It follows the change feed of a running daemon and prints each
// batch of changes.
func NewTailCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the change feed of a running chronofs daemon",
		Long: `Subscribe to a running daemon's websocket feed and print the changes
behind every notification. The feed itself carries only sequence numbers;
tail keeps its own checkpoint and asks the daemon for the summary of
everything in between, exactly as a watchman-style client would.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:7474", "Daemon address")

	return cmd
}

func runTail(addr string) error {
	wsURL := url.URL{Scheme: "ws", Host: addr, Path: "/v1/journal/subscribe"}
	ws, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer ws.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		ws.Close()
		os.Exit(0)
	}()

	// The first notification primes the checkpoint; everything before it
	// predates this client and is not replayed.
	var n stream.Notification
	if err := ws.ReadJSON(&n); err != nil {
		return fmt.Errorf("failed to read initial checkpoint: %w", err)
	}
	checkpoint := n.Sequence
	log.Printf("following changes after sequence %d", checkpoint)

	for {
		if err := ws.ReadJSON(&n); err != nil {
			return fmt.Errorf("feed closed: %w", err)
		}
		if n.Sequence <= checkpoint {
			continue
		}
		summary, status, err := fetchChanges(addr, checkpoint)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusOK:
			printSummary(summary)
			checkpoint = summary.ToSequence
		case http.StatusNoContent:
			checkpoint = n.Sequence
		case http.StatusGone:
			// Fell behind the daemon's pruning horizon; restart from now.
			log.Printf("history truncated, resetting checkpoint to %d", n.Sequence)
			checkpoint = n.Sequence
		default:
			return fmt.Errorf("unexpected status %d from changes endpoint", status)
		}
	}
}

func fetchChanges(addr string, since uint64) (stream.ChangeSummary, int, error) {
	var summary stream.ChangeSummary
	u := fmt.Sprintf("http://%s/v1/journal/changes?since=%d", addr, since)
	resp, err := http.Get(u)
	if err != nil {
		return summary, 0, fmt.Errorf("failed to fetch changes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
			return summary, 0, fmt.Errorf("failed to decode changes: %w", err)
		}
	}
	return summary, resp.StatusCode, nil
}

func printSummary(s stream.ChangeSummary) {
	fmt.Printf("[%d-%d]", s.FromSequence, s.ToSequence)
	if s.FromHash != s.ToHash {
		fmt.Printf(" checkout %s -> %s", s.FromHash, s.ToHash)
	}
	fmt.Println()
	for _, p := range s.CreatedFiles {
		fmt.Printf("  A %s\n", p)
	}
	for _, p := range s.ChangedFiles {
		fmt.Printf("  M %s\n", p)
	}
	for _, p := range s.RemovedFiles {
		fmt.Printf("  D %s\n", p)
	}
	for _, p := range s.UncleanPaths {
		fmt.Printf("  ? %s\n", p)
	}
}
