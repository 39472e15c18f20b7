package journal

import (
	"sync"

	"github.com/chronofs/chronofs/util"
)

// Journal is the append-only change log of one mounted working copy. It
// owns the head of the delta chain and the sequence counter; everything it
// publishes is immutable.
//
// One Journal is created per mount and discarded on unmount. Nothing is
// persisted: after a restart clients must resynchronize.
type Journal struct {
	// mu guards head, nextSequence, truncatedBefore and currentHash. The
	// critical section is exactly "allocate sequence + build delta +
	// publish head"; subscriber callbacks run outside it.
	mu              sync.Mutex
	head            *Delta
	nextSequence    SequenceNumber
	truncatedBefore SequenceNumber
	currentHash     util.Hash
	clock           util.Clock

	subMu       sync.Mutex
	subscribers map[uint64]func(SequenceNumber)
	nextSubID   uint64
}

// New creates an empty journal. A nil clock defaults to the real clock.
func New(clock util.Clock) *Journal {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Journal{
		nextSequence: 1,
		clock:        clock,
		subscribers:  make(map[uint64]func(SequenceNumber)),
	}
}

// RecordChanged records an in-place content change of the given paths.
// An empty set records nothing.
func (j *Journal) RecordChanged(paths util.PathSet) error {
	if paths.Len() == 0 {
		return nil
	}
	for p := range paths {
		if p == "" {
			return ErrEmptyPath
		}
	}
	j.publish(newChangedDelta(paths), false)
	return nil
}

// RecordCreated records a path coming into existence.
func (j *Journal) RecordCreated(path util.RelativePath) error {
	if path == "" {
		return ErrEmptyPath
	}
	j.publish(newCreatedDelta(path), false)
	return nil
}

// RecordRemoved records a path ceasing to exist.
func (j *Journal) RecordRemoved(path util.RelativePath) error {
	if path == "" {
		return ErrEmptyPath
	}
	j.publish(newRemovedDelta(path), false)
	return nil
}

// RecordRenamed records a rename as a removal of the old name plus a
// creation of the new name.
func (j *Journal) RecordRenamed(oldPath, newPath util.RelativePath) error {
	if oldPath == "" || newPath == "" {
		return ErrEmptyPath
	}
	j.publish(newRenamedDelta(oldPath, newPath), false)
	return nil
}

// RecordHashTransition records a checkout or snapshot switch from one
// working-copy hash to another, carrying the paths whose on-disk state
// disagreed with the target snapshot. The transition gets its own sequence
// number like any other event.
func (j *Journal) RecordHashTransition(from, to util.Hash, unclean util.PathSet) error {
	for p := range unclean {
		if p == "" {
			return ErrEmptyPath
		}
	}
	j.publish(newHashTransitionDelta(from, to, unclean), true)
	return nil
}

// publish assigns the next sequence number to d, stamps it, links it to
// the current head and makes it the new head. Subscribers are notified
// after the lock is released so delivery never blocks producers.
func (j *Journal) publish(d *Delta, isTransition bool) {
	j.mu.Lock()
	seq := j.nextSequence
	j.nextSequence++
	now := j.clock.Now()
	d.FromSequence = seq
	d.ToSequence = seq
	d.FromTime = now
	d.ToTime = now
	if isTransition {
		j.currentHash = d.ToHash
	} else {
		d.FromHash = j.currentHash
		d.ToHash = j.currentHash
	}
	d.Previous = j.head
	j.head = d
	j.mu.Unlock()

	j.notify(seq)
}

// LatestSequence returns the newest assigned sequence number, or 0 when
// nothing has been recorded yet. Derived from the sequence counter, not
// the head: truncation may empty the chain, but an assigned number stays
// a valid checkpoint.
func (j *Journal) LatestSequence() SequenceNumber {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextSequence - 1
}

// CurrentHash returns the snapshot hash the working copy is currently on,
// as of the last recorded hash transition.
func (j *Journal) CurrentHash() util.Hash {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.currentHash
}

// AccumulateRange summarizes everything that changed after the given
// checkpoint. A nil result with a nil error means nothing changed; callers
// must treat that differently from ErrTruncatedHistory, which means the
// checkpoint predates retained history and an incremental answer is no
// longer possible.
func (j *Journal) AccumulateRange(since SequenceNumber) (*Delta, error) {
	j.mu.Lock()
	head := j.head
	truncated := j.truncatedBefore
	latest := j.nextSequence - 1
	j.mu.Unlock()

	if since > latest {
		return nil, ErrFutureSequence
	}
	if truncated != 0 && since+1 < truncated {
		return nil, ErrTruncatedHistory
	}
	// Merge walks the captured head only; concurrent appends publish new
	// heads and never alter the chain this snapshot can reach.
	return head.Merge(since+1, false), nil
}

// TruncateBefore prunes history older than minSequence, bounding chain
// length. The retained suffix is collapsed into a single summary delta
// whose backward link is dropped. Afterwards AccumulateRange answers
// exactly at checkpoint minSequence-1, conservatively (a wider summary)
// above it, and with ErrTruncatedHistory below it.
func (j *Journal) TruncateBefore(minSequence SequenceNumber) {
	if minSequence == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if minSequence > j.truncatedBefore {
		j.truncatedBefore = minSequence
	}
	if j.head == nil {
		return
	}
	// Merge returns nil when every retained delta predates minSequence;
	// the chain empties entirely in that case.
	j.head = j.head.Merge(minSequence, true)
}

// Subscribe registers a callback invoked with the newest sequence number
// after every head publication. Callbacks run on the producer's goroutine
// outside the journal lock, so they must not block; push the value onto a
// channel and return. The returned id cancels the subscription via
// Unsubscribe.
func (j *Journal) Subscribe(fn func(SequenceNumber)) uint64 {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	j.nextSubID++
	id := j.nextSubID
	j.subscribers[id] = fn
	return id
}

// Unsubscribe cancels a subscription created by Subscribe.
func (j *Journal) Unsubscribe(id uint64) {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	delete(j.subscribers, id)
}

func (j *Journal) notify(seq SequenceNumber) {
	j.subMu.Lock()
	fns := make([]func(SequenceNumber), 0, len(j.subscribers))
	for _, fn := range j.subscribers {
		fns = append(fns, fn)
	}
	j.subMu.Unlock()
	for _, fn := range fns {
		fn(seq)
	}
}
