// Package util provides the primitive value types shared across chronofs.
//
// The journal and the filesystem layer both consume these types:
//
// Paths:
//   - RelativePath, a validated slash-separated path relative to the
//     mount root
//   - PathSet, an unordered unique set of relative paths
//
// Hashes:
//   - Hash, identifying a snapshot/commit or a file's SHA-256 content hash
//   - HashFile/HashReader/HashBytes for computing content hashes
//   - HashPath for bucketed content-addressed work-directory names
//
// Time:
//   - Clock, a monotonic time source with a real and a fake implementation
//     so journal timestamps are testable
//
// Inodes:
//   - GetNewInode/SetInode, a process-wide inode allocator for the FUSE
//     layer
package util
