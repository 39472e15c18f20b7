package util

import (
	"sync"
	"testing"
)

func TestGetNewInode(t *testing.T) {
	first := GetNewInode()
	second := GetNewInode()

	if second <= first {
		t.Errorf("inodes not increasing: %d then %d", first, second)
	}
	if first <= 1 {
		t.Errorf("inode %d collides with the reserved root inode", first)
	}
}

func TestSetInode(t *testing.T) {
	floor := GetNewInode() + 1000
	SetInode(floor)
	if got := GetNewInode(); got <= floor {
		t.Errorf("expected inode above floor %d, got %d", floor, got)
	}

	// Lowering the floor is a no-op.
	SetInode(1)
	if got := GetNewInode(); got <= floor {
		t.Errorf("SetInode(1) lowered the floor: got %d", got)
	}
}

func TestGetNewInode_Concurrent(t *testing.T) {
	const workers = 50
	const perWorker = 100

	var wg sync.WaitGroup
	results := make(chan uint64, workers*perWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results <- GetNewInode()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool, workers*perWorker)
	for inode := range results {
		if seen[inode] {
			t.Fatalf("inode %d allocated twice", inode)
		}
		seen[inode] = true
	}
}
