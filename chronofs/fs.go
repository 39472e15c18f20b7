package chronofs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/chronofs/chronofs/journal"
	"github.com/chronofs/chronofs/util"
)

// FS implements the chronofs FUSE filesystem: a passthrough over a backing
// working-copy directory that records every observed mutation into the
// journal. Written content is staged into a content-addressed work
// directory so identical rewrites can be detected and skipped.
type FS struct {
	BackingDir string           // Checked-out working copy on disk
	WorkDir    string           // Content-addressed staging area
	Journal    *journal.Journal // Change log fed by every mutation

	mu       sync.RWMutex
	hashes   map[util.RelativePath]util.Hash // Last flushed content hash per path
	modified util.PathSet                    // Paths touched since the last checkout
}

// NewFS creates a chronofs filesystem over backingDir, journaling into j.
func NewFS(backingDir string, j *journal.Journal) (*FS, error) {
	if err := os.MkdirAll(backingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backing directory: %w", err)
	}
	workDir := filepath.Join(backingDir, util.WorkDir)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return &FS{
		BackingDir: backingDir,
		WorkDir:    workDir,
		Journal:    j,
		hashes:     make(map[util.RelativePath]util.Hash),
		modified:   util.PathSet{},
	}, nil
}

// Root returns the root directory node.
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: "", inode: 1}, nil
}

// Checkout records a snapshot switch to the given hash. Paths modified
// through the mount since the previous checkout are reported as unclean,
// since their on-disk state no longer matches any recorded snapshot.
func (f *FS) Checkout(to util.Hash) (util.PathSet, error) {
	f.mu.Lock()
	unclean := f.modified.Clone()
	f.modified = util.PathSet{}
	f.mu.Unlock()

	from := f.Journal.CurrentHash()
	if err := f.Journal.RecordHashTransition(from, to, unclean); err != nil {
		return nil, err
	}
	return unclean, nil
}

// abs maps a mount-relative path onto the backing directory.
func (f *FS) abs(p util.RelativePath) string {
	return filepath.Join(f.BackingDir, filepath.FromSlash(string(p)))
}

func (f *FS) lastHash(p util.RelativePath) (util.Hash, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h, ok := f.hashes[p]
	return h, ok
}

// markTouched updates the per-path hash record and the dirty-since-checkout
// set. A zero hash clears the record (removal).
func (f *FS) markTouched(p util.RelativePath, h util.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.IsZero() {
		delete(f.hashes, p)
	} else {
		f.hashes[p] = h
	}
	f.modified.Add(p)
}

// stage writes a content-addressed copy of data into the work directory.
// Identical content is written only once.
func (f *FS) stage(h util.Hash, data []byte) error {
	target := filepath.Join(f.WorkDir, util.HashPath(h))
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	return os.WriteFile(target, data, 0644)
}

// join resolves a child name against a directory path, validating it.
func join(dir util.RelativePath, name string) (util.RelativePath, error) {
	if dir == "" {
		return util.NewRelativePath(name)
	}
	return util.NewRelativePath(string(dir) + "/" + name)
}

// Dir implements Node and Handle for directories. The empty path is the
// mount root.
type Dir struct {
	fs    *FS
	path  util.RelativePath
	inode uint64
}

// Attr returns directory attributes. The inode is fixed at construction
// so Attr never writes node state.
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = d.inode
	a.Mode = os.ModeDir | 0o755
	if info, err := os.Stat(d.fs.abs(d.path)); err == nil {
		a.Mtime = info.ModTime()
		a.Ctime = info.ModTime()
	} else {
		a.Mtime = time.Now()
		a.Ctime = a.Mtime
	}
	return nil
}

// Lookup resolves file and directory names to nodes.
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	if d.path == "" && name == util.WorkDir {
		// The staging area is an implementation detail, not part of the
		// working copy.
		return nil, syscall.ENOENT
	}
	rel, err := join(d.path, name)
	if err != nil {
		return nil, syscall.ENOENT
	}

	info, err := os.Stat(d.fs.abs(rel))
	if err != nil {
		return nil, syscall.ENOENT
	}
	if info.IsDir() {
		return &Dir{fs: d.fs, path: rel, inode: util.GetNewInode()}, nil
	}
	return &File{fs: d.fs, path: rel, modified: info.ModTime(), inode: util.GetNewInode()}, nil
}

// ReadDirAll lists directory contents from the backing store.
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := os.ReadDir(d.fs.abs(d.path))
	if err != nil {
		return nil, err
	}

	var dirents []fuse.Dirent
	for _, entry := range entries {
		if d.path == "" && entry.Name() == util.WorkDir {
			continue
		}
		de := fuse.Dirent{
			Inode: util.GetNewInode(),
			Name:  entry.Name(),
			Type:  fuse.DT_File,
		}
		if entry.IsDir() {
			de.Type = fuse.DT_Dir
		}
		dirents = append(dirents, de)
	}
	return dirents, nil
}

// Create creates a new file and records the creation.
func (d *Dir) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	rel, err := join(d.path, req.Name)
	if err != nil {
		return nil, nil, syscall.EINVAL
	}

	if err := os.WriteFile(d.fs.abs(rel), nil, 0644); err != nil {
		return nil, nil, err
	}

	d.fs.markTouched(rel, util.HashBytes(nil))
	if err := d.fs.Journal.RecordCreated(rel); err != nil {
		return nil, nil, err
	}

	file := &File{
		fs:       d.fs,
		path:     rel,
		data:     []byte{},
		loaded:   true,
		modified: time.Now(),
		inode:    util.GetNewInode(),
	}

	resp.Attr.Inode = file.inode
	resp.Attr.Mode = req.Mode
	resp.Attr.Size = 0
	resp.Attr.Mtime = file.modified
	resp.Attr.Ctime = file.modified
	resp.Attr.Atime = file.modified

	return file, file, nil
}

// Mkdir creates a directory and records the creation.
func (d *Dir) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	rel, err := join(d.path, req.Name)
	if err != nil {
		return nil, syscall.EINVAL
	}
	if err := os.Mkdir(d.fs.abs(rel), 0755); err != nil {
		return nil, err
	}
	if err := d.fs.Journal.RecordCreated(rel); err != nil {
		return nil, err
	}
	return &Dir{fs: d.fs, path: rel, inode: util.GetNewInode()}, nil
}

// Remove deletes a file or empty directory and records the removal.
func (d *Dir) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	rel, err := join(d.path, req.Name)
	if err != nil {
		return syscall.EINVAL
	}
	if err := os.Remove(d.fs.abs(rel)); err != nil {
		return err
	}
	d.fs.markTouched(rel, "")
	return d.fs.Journal.RecordRemoved(rel)
}

// Rename moves an entry, recording it as remove-old plus create-new.
func (d *Dir) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fs.Node) error {
	target, ok := newDir.(*Dir)
	if !ok {
		return syscall.EINVAL
	}
	oldRel, err := join(d.path, req.OldName)
	if err != nil {
		return syscall.EINVAL
	}
	newRel, err := join(target.path, req.NewName)
	if err != nil {
		return syscall.EINVAL
	}

	if err := os.Rename(d.fs.abs(oldRel), d.fs.abs(newRel)); err != nil {
		return err
	}

	d.fs.mu.Lock()
	if h, ok := d.fs.hashes[oldRel]; ok {
		delete(d.fs.hashes, oldRel)
		d.fs.hashes[newRel] = h
	}
	d.fs.modified.Add(oldRel)
	d.fs.modified.Add(newRel)
	d.fs.mu.Unlock()

	return d.fs.Journal.RecordRenamed(oldRel, newRel)
}

// File implements Node and Handle for files.
type File struct {
	fs       *FS
	path     util.RelativePath
	mu       sync.RWMutex
	data     []byte
	loaded   bool // data holds the file content
	dirty    bool // data differs from what Flush last observed
	modified time.Time
	inode    uint64
}

// Attr returns file attributes.
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	a.Inode = f.inode
	a.Mode = 0o644
	if f.loaded {
		a.Size = uint64(len(f.data))
	} else if info, err := os.Stat(f.fs.abs(f.path)); err == nil {
		a.Size = uint64(info.Size())
	}
	a.Mtime = f.modified
	a.Ctime = f.modified
	a.Atime = time.Now()
	return nil
}

// load pulls the backing file content into memory. Caller holds f.mu.
func (f *File) load() error {
	if f.loaded {
		return nil
	}
	data, err := os.ReadFile(f.fs.abs(f.path))
	if err != nil {
		return err
	}
	f.data = data
	f.loaded = true
	return nil
}

// ReadAll reads the entire file content.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return nil, err
	}
	return f.data, nil
}

// Write buffers data at the requested offset. Content reaches the backing
// store and the journal on Flush.
func (f *File) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}

	newLen := int(req.Offset) + len(req.Data)
	if newLen > len(f.data) {
		newData := make([]byte, newLen)
		copy(newData, f.data)
		f.data = newData
	}
	copy(f.data[req.Offset:], req.Data)
	resp.Size = len(req.Data)

	f.modified = time.Now()
	f.dirty = true
	return nil
}

// Flush writes buffered content through to the backing store, stages a
// content-addressed copy and records the change. A rewrite with identical
// content produces no journal record.
func (f *File) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.dirty {
		return nil
	}

	hash := util.HashBytes(f.data)
	if prev, ok := f.fs.lastHash(f.path); ok && prev == hash {
		f.dirty = false
		return nil
	}

	if err := os.WriteFile(f.fs.abs(f.path), f.data, 0644); err != nil {
		return fmt.Errorf("failed to write backing file: %w", err)
	}
	if err := f.fs.stage(hash, f.data); err != nil {
		return fmt.Errorf("failed to stage content: %w", err)
	}

	f.fs.markTouched(f.path, hash)
	f.dirty = false

	// Creation was recorded by Create; everything after that, including
	// the first write to a file that predates the mount, is a change.
	return f.fs.Journal.RecordChanged(util.NewPathSet(f.path))
}

// Fsync forces synchronization.
func (f *File) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	return f.Flush(ctx, &fuse.FlushRequest{})
}

// Setattr sets file attributes.
func (f *File) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	f.mu.Lock()

	if req.Valid.Size() {
		if err := f.load(); err != nil {
			f.mu.Unlock()
			return err
		}
		if req.Size < uint64(len(f.data)) {
			f.data = f.data[:req.Size]
		} else if req.Size > uint64(len(f.data)) {
			newData := make([]byte, req.Size)
			copy(newData, f.data)
			f.data = newData
		}
		f.modified = time.Now()
		f.dirty = true
	}
	if req.Valid.Mtime() {
		f.modified = req.Mtime
	}
	f.mu.Unlock()

	return f.Attr(ctx, &resp.Attr)
}
