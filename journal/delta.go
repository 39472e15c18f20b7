package journal

import (
	"time"

	"github.com/chronofs/chronofs/util"
)

// SequenceNumber identifies a point in the journal's history. Numbers are
// assigned monotonically starting at 1; zero is a sentinel meaning
// "beginning of time / no limit" and is never assigned to a delta.
type SequenceNumber uint64

// Delta is one record in the journal: a single observed change, or a
// merged summary of a contiguous range of changes.
//
// A Delta is immutable once published. Readers holding a reference may
// traverse Previous links without locking; appends only ever create new
// heads and truncation only detaches links on newly built nodes, so a
// captured chain never changes underneath its holder.
type Delta struct {
	// Previous is the prior delta in the chain, or nil at the oldest
	// retained record.
	Previous *Delta

	// The inclusive sequence range this record covers. Equal for a single
	// raw event; a range after merging.
	FromSequence SequenceNumber
	ToSequence   SequenceNumber

	// The time at which the covered change(s) were recorded.
	FromTime time.Time
	ToTime   time.Time

	// The snapshot hash the working copy started and ended on. These are
	// the same unless the range covers a checkout.
	FromHash util.Hash
	ToHash   util.Hash

	// ChangedFiles are paths whose content changed in place.
	ChangedFiles util.PathSet
	// CreatedFiles are paths that came into existence.
	CreatedFiles util.PathSet
	// RemovedFiles are paths that ceased to exist.
	RemovedFiles util.PathSet
	// UncleanPaths are paths whose on-disk state disagreed with the
	// recorded snapshot after an operation such as a checkout. Clients
	// must re-verify these regardless of anything else in the record.
	UncleanPaths util.PathSet
}

// newChangedDelta describes an in-place content change of one or more paths.
// The caller's set is cloned so later mutation cannot leak into the chain.
func newChangedDelta(paths util.PathSet) *Delta {
	return &Delta{
		ChangedFiles: paths.Clone(),
		CreatedFiles: util.PathSet{},
		RemovedFiles: util.PathSet{},
		UncleanPaths: util.PathSet{},
	}
}

// newCreatedDelta describes a path coming into existence.
func newCreatedDelta(path util.RelativePath) *Delta {
	return &Delta{
		ChangedFiles: util.PathSet{},
		CreatedFiles: util.NewPathSet(path),
		RemovedFiles: util.PathSet{},
		UncleanPaths: util.PathSet{},
	}
}

// newRemovedDelta describes a path ceasing to exist.
func newRemovedDelta(path util.RelativePath) *Delta {
	return &Delta{
		ChangedFiles: util.PathSet{},
		CreatedFiles: util.PathSet{},
		RemovedFiles: util.NewPathSet(path),
		UncleanPaths: util.PathSet{},
	}
}

// newRenamedDelta describes a rename. There is no separate "moved"
// category: the old name is recorded as removed and the new name as
// created, and merging resolves the pair like any other remove/create.
func newRenamedDelta(oldPath, newPath util.RelativePath) *Delta {
	return &Delta{
		ChangedFiles: util.PathSet{},
		CreatedFiles: util.NewPathSet(newPath),
		RemovedFiles: util.NewPathSet(oldPath),
		UncleanPaths: util.PathSet{},
	}
}

// newHashTransitionDelta describes a checkout or snapshot switch. Paths
// whose on-disk state disagreed with the target snapshot are carried as
// unclean.
func newHashTransitionDelta(from, to util.Hash, unclean util.PathSet) *Delta {
	return &Delta{
		FromHash:     from,
		ToHash:       to,
		ChangedFiles: util.PathSet{},
		CreatedFiles: util.PathSet{},
		RemovedFiles: util.PathSet{},
		UncleanPaths: unclean.Clone(),
	}
}
