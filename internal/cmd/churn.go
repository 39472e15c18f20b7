package cmd

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewChurnCmd creates and returns the churn subcommand for the chronofs
// CLI. It generates write traffic against a mounted filesystem so the
// journal and its consumers can be exercised under load.
func NewChurnCmd() *cobra.Command {
	var (
		targetPath string
		fileCount  int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "churn",
		Short: "Generate write traffic against a chronofs mount",
		Long: `Generate create/write/rename/remove traffic under the target directory.

Each round creates a uuid-named file, rewrites it, and then either renames
or removes it, so the resulting journal exercises every record type and
the merge algorithm's net-effect rules. Point the target at a chronofs
mountpoint to drive the journal, or at any directory for a dry run.`,
		Run: func(cmd *cobra.Command, args []string) {
			runChurn(targetPath, fileCount, verbose)
		},
	}

	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "Directory to churn (required)")
	cmd.Flags().IntVarP(&fileCount, "count", "c", 1000, "Number of churn rounds")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("target")

	return cmd
}

func runChurn(targetPath string, fileCount int, verbose bool) {
	if verbose {
		fmt.Printf("Running %d churn rounds in %s\n", fileCount, targetPath)
	}

	if err := os.MkdirAll(targetPath, 0755); err != nil {
		log.Fatalf("Failed to create target directory: %v", err)
	}

	for i := 0; i < fileCount; i++ {
		name := uuid.New().String() + ".txt"
		path := filepath.Join(targetPath, name)

		if err := os.WriteFile(path, []byte(uuid.New().String()+"\n"), 0644); err != nil {
			log.Fatalf("Failed to create %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(uuid.New().String()+"\n"), 0644); err != nil {
			log.Fatalf("Failed to rewrite %s: %v", path, err)
		}

		roll, _ := rand.Int(rand.Reader, big.NewInt(2))
		if roll.Int64() == 0 {
			renamed := filepath.Join(targetPath, uuid.New().String()+".txt")
			if err := os.Rename(path, renamed); err != nil {
				log.Fatalf("Failed to rename %s: %v", path, err)
			}
		} else {
			if err := os.Remove(path); err != nil {
				log.Fatalf("Failed to remove %s: %v", path, err)
			}
		}

		if verbose && (i+1)%100 == 0 {
			fmt.Printf("completed %d rounds\n", i+1)
		}
	}

	if verbose {
		fmt.Println("churn complete")
	}
}
