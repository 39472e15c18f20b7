// Package journal implements the in-memory change log of a mounted
// working copy.
//
// The journal is an append-only chain of immutable Delta records. Every
// observed mutation (create, remove, rename, content change, checkout)
// appends one record carrying a monotonic sequence number. Clients ask
// "what changed since sequence N" and get back a single summary delta
// folded from the matching suffix of the chain, without rescanning the
// filesystem.
//
// Concurrency model: producers and readers share only the chain head and
// the sequence counter, guarded by one mutex scoped to "allocate sequence,
// build delta, publish head". Deltas themselves are immutable after
// publication, so a reader that captures the head can traverse and merge
// the chain without any lock, concurrently with further appends and with
// truncation.
//
// Memory is bounded by TruncateBefore, which collapses old history into a
// single detached summary. Queries whose checkpoint predates the retained
// history fail with ErrTruncatedHistory rather than silently returning a
// partial answer, so clients know to resynchronize.
package journal
