package chronofs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bazil.org/fuse"

	"github.com/chronofs/chronofs/journal"
	"github.com/chronofs/chronofs/util"
)

func newTestFS(t *testing.T) (*FS, *journal.Journal) {
	t.Helper()
	j := journal.New(util.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	f, err := NewFS(t.TempDir(), j)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return f, j
}

func rootDir(t *testing.T, f *FS) *Dir {
	t.Helper()
	node, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	return node.(*Dir)
}

func createFile(t *testing.T, d *Dir, name string) *File {
	t.Helper()
	node, _, err := d.Create(context.Background(), &fuse.CreateRequest{Name: name, Mode: 0644}, &fuse.CreateResponse{})
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return node.(*File)
}

func writeAndFlush(t *testing.T, f *File, content string) {
	t.Helper()
	ctx := context.Background()
	resp := &fuse.WriteResponse{}
	if err := f.Write(ctx, &fuse.WriteRequest{Data: []byte(content)}, resp); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if resp.Size != len(content) {
		t.Fatalf("Write reported %d bytes, want %d", resp.Size, len(content))
	}
	if err := f.Flush(ctx, &fuse.FlushRequest{}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestFS_CreateRecordsCreation(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	createFile(t, root, "a.txt")

	d, err := j.AccumulateRange(0)
	if err != nil || d == nil {
		t.Fatalf("AccumulateRange(0) = (%+v, %v)", d, err)
	}
	if !d.CreatedFiles.Contains("a.txt") {
		t.Errorf("CreatedFiles = %v, want a.txt", d.CreatedFiles.Strings())
	}

	if _, err := os.Stat(filepath.Join(f.BackingDir, "a.txt")); err != nil {
		t.Errorf("backing file missing: %v", err)
	}
}

func TestFS_WriteFlushRecordsChange(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	file := createFile(t, root, "a.txt")
	writeAndFlush(t, file, "hello")

	since := journal.SequenceNumber(1) // skip the creation record
	d, err := j.AccumulateRange(since)
	if err != nil || d == nil {
		t.Fatalf("AccumulateRange(%d) = (%+v, %v)", since, d, err)
	}
	if !d.ChangedFiles.Contains("a.txt") {
		t.Errorf("ChangedFiles = %v, want a.txt", d.ChangedFiles.Strings())
	}

	got, err := os.ReadFile(filepath.Join(f.BackingDir, "a.txt"))
	if err != nil || string(got) != "hello" {
		t.Errorf("backing content = (%q, %v), want %q", got, err, "hello")
	}
}

func TestFS_IdenticalRewriteNotJournaled(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	file := createFile(t, root, "a.txt")
	writeAndFlush(t, file, "hello")

	before := j.LatestSequence()
	writeAndFlush(t, file, "hello")
	if after := j.LatestSequence(); after != before {
		t.Errorf("identical rewrite advanced the journal from %d to %d", before, after)
	}

	writeAndFlush(t, file, "hello world")
	if after := j.LatestSequence(); after != before+1 {
		t.Errorf("real change should advance the journal exactly once, %d -> %d", before, after)
	}
}

func TestFS_FlushStagesContent(t *testing.T) {
	f, _ := newTestFS(t)
	root := rootDir(t, f)

	file := createFile(t, root, "a.txt")
	writeAndFlush(t, file, "hello")

	hash := util.HashBytes([]byte("hello"))
	staged := filepath.Join(f.WorkDir, util.HashPath(hash))
	got, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("staged copy missing: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("staged content = %q, want %q", got, "hello")
	}
}

func TestFS_RemoveRecordsRemoval(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	createFile(t, root, "a.txt")
	if err := root.Remove(context.Background(), &fuse.RemoveRequest{Name: "a.txt"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// Net effect across the whole history: created then removed cancels.
	d, err := j.AccumulateRange(0)
	if err != nil || d == nil {
		t.Fatalf("AccumulateRange(0) = (%+v, %v)", d, err)
	}
	if d.CreatedFiles.Len() != 0 || d.RemovedFiles.Len() != 0 {
		t.Errorf("created=%v removed=%v, want both empty after cancellation",
			d.CreatedFiles.Strings(), d.RemovedFiles.Strings())
	}

	if _, err := os.Stat(filepath.Join(f.BackingDir, "a.txt")); !os.IsNotExist(err) {
		t.Errorf("backing file should be gone, stat err = %v", err)
	}
}

func TestFS_RenameRecordsRename(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	file := createFile(t, root, "a.txt")
	writeAndFlush(t, file, "hello")

	err := root.Rename(context.Background(), &fuse.RenameRequest{OldName: "a.txt", NewName: "b.txt"}, root)
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}

	d, err := j.AccumulateRange(0)
	if err != nil || d == nil {
		t.Fatalf("AccumulateRange(0) = (%+v, %v)", d, err)
	}
	if !d.CreatedFiles.Contains("b.txt") || d.CreatedFiles.Len() != 1 {
		t.Errorf("CreatedFiles = %v, want only b.txt", d.CreatedFiles.Strings())
	}
	if d.RemovedFiles.Len() != 0 {
		t.Errorf("RemovedFiles = %v, want empty (a.txt never outlived the span)", d.RemovedFiles.Strings())
	}

	if _, err := os.Stat(filepath.Join(f.BackingDir, "b.txt")); err != nil {
		t.Errorf("renamed backing file missing: %v", err)
	}
}

func TestFS_MkdirAndLookup(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	node, err := root.Mkdir(context.Background(), &fuse.MkdirRequest{Name: "sub"})
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	sub := node.(*Dir)

	createFile(t, sub, "nested.txt")

	d, err := j.AccumulateRange(0)
	if err != nil || d == nil {
		t.Fatalf("AccumulateRange(0) = (%+v, %v)", d, err)
	}
	if !d.CreatedFiles.Contains("sub") || !d.CreatedFiles.Contains("sub/nested.txt") {
		t.Errorf("CreatedFiles = %v, want sub and sub/nested.txt", d.CreatedFiles.Strings())
	}

	if _, err := root.Lookup(context.Background(), "sub"); err != nil {
		t.Errorf("Lookup(sub): %v", err)
	}
	if _, err := sub.Lookup(context.Background(), "nested.txt"); err != nil {
		t.Errorf("Lookup(sub/nested.txt): %v", err)
	}
}

func TestFS_WorkDirHidden(t *testing.T) {
	f, _ := newTestFS(t)
	root := rootDir(t, f)
	ctx := context.Background()

	if _, err := root.Lookup(ctx, util.WorkDir); err == nil {
		t.Error("Lookup must not expose the work directory")
	}

	dirents, err := root.ReadDirAll(ctx)
	if err != nil {
		t.Fatalf("ReadDirAll: %v", err)
	}
	for _, de := range dirents {
		if de.Name == util.WorkDir {
			t.Errorf("ReadDirAll leaked %s", util.WorkDir)
		}
	}
}

func TestFS_CheckoutReportsUnclean(t *testing.T) {
	f, j := newTestFS(t)
	root := rootDir(t, f)

	file := createFile(t, root, "a.txt")
	writeAndFlush(t, file, "hello")

	unclean, err := f.Checkout("deadbeef")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !unclean.Contains("a.txt") {
		t.Errorf("unclean = %v, want a.txt", unclean.Strings())
	}
	if got := j.CurrentHash(); got != "deadbeef" {
		t.Errorf("CurrentHash = %q, want deadbeef", got)
	}

	// A second checkout with no intervening writes reports nothing.
	unclean, err = f.Checkout("cafebabe")
	if err != nil {
		t.Fatalf("second Checkout: %v", err)
	}
	if unclean.Len() != 0 {
		t.Errorf("unclean after quiet period = %v, want empty", unclean.Strings())
	}

	d, err := j.AccumulateRange(0)
	if err != nil || d == nil {
		t.Fatalf("AccumulateRange(0) = (%+v, %v)", d, err)
	}
	if d.ToHash != "cafebabe" {
		t.Errorf("merged ToHash = %q, want cafebabe", d.ToHash)
	}
	if !d.UncleanPaths.Contains("a.txt") {
		t.Errorf("UncleanPaths = %v, want a.txt", d.UncleanPaths.Strings())
	}
}

func TestFS_AttrConcurrentStableInode(t *testing.T) {
	f, _ := newTestFS(t)
	root := rootDir(t, f)
	ctx := context.Background()

	createFile(t, root, "a.txt")
	if _, err := root.Mkdir(ctx, &fuse.MkdirRequest{Name: "sub"}); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	for _, name := range []string{"a.txt", "sub"} {
		node, err := root.Lookup(ctx, name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}

		// Attr must be read-only on the node: concurrent callers all see
		// the same inode assigned at construction.
		const callers = 4
		inodes := make(chan uint64, callers)
		var wg sync.WaitGroup
		wg.Add(callers)
		for i := 0; i < callers; i++ {
			go func() {
				defer wg.Done()
				var a fuse.Attr
				if err := node.Attr(ctx, &a); err != nil {
					t.Errorf("Attr(%s): %v", name, err)
					return
				}
				inodes <- a.Inode
			}()
		}
		wg.Wait()
		close(inodes)

		first := uint64(0)
		for inode := range inodes {
			if inode == 0 {
				t.Errorf("Attr(%s) returned a zero inode", name)
			}
			if first == 0 {
				first = inode
			} else if inode != first {
				t.Errorf("Attr(%s) inode changed across calls: %d then %d", name, first, inode)
			}
		}
	}
}

func TestFS_SetattrTruncate(t *testing.T) {
	f, _ := newTestFS(t)
	root := rootDir(t, f)

	file := createFile(t, root, "a.txt")
	writeAndFlush(t, file, "hello world")

	ctx := context.Background()
	resp := &fuse.SetattrResponse{}
	req := &fuse.SetattrRequest{Valid: fuse.SetattrSize, Size: 5}
	if err := file.Setattr(ctx, req, resp); err != nil {
		t.Fatalf("Setattr: %v", err)
	}
	if resp.Attr.Size != 5 {
		t.Errorf("size after truncate = %d, want 5", resp.Attr.Size)
	}

	if err := file.Flush(ctx, &fuse.FlushRequest{}); err != nil {
		t.Fatalf("Flush after truncate: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(f.BackingDir, "a.txt"))
	if err != nil || string(got) != "hello" {
		t.Errorf("backing content = (%q, %v), want %q", got, err, "hello")
	}
}
