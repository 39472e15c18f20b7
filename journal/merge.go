package journal

import "github.com/chronofs/chronofs/util"

// Merge folds this delta and every ancestor whose ToSequence is at least
// limit into a single summarizing delta. A limit of 0 is never assigned by
// the journal and means the entire chain is merged. Returns nil when no
// delta qualifies.
//
// The result's sequence, time and hash ranges run from the oldest
// qualifying delta to this one. Path sets are unioned with net-effect
// resolution: a path created and later removed within the span vanishes
// from both sets; a path removed and later re-created ends up in
// ChangedFiles, since its content relative to the span's start cannot be
// trusted. Unclean paths are a plain union and are never cancelled out.
//
// The result's Previous is the oldest qualifying delta's Previous, so the
// summary splices over the folded span. If the walk stopped at the limit
// and pruneAfterLimit is set, Previous is forced to nil instead,
// permanently detaching the result from older history.
//
// Merge takes no locks and mutates no existing node; it is safe to call
// concurrently from readers holding independent head references.
func (d *Delta) Merge(limit SequenceNumber, pruneAfterLimit bool) *Delta {
	if d == nil || d.ToSequence < limit {
		return nil
	}

	// Collect the qualifying suffix, newest first.
	var span []*Delta
	stoppedAtLimit := false
	for cur := d; cur != nil; cur = cur.Previous {
		if cur.ToSequence < limit {
			stoppedAtLimit = true
			break
		}
		span = append(span, cur)
	}
	oldest := span[len(span)-1]

	merged := &Delta{
		FromSequence: oldest.FromSequence,
		ToSequence:   d.ToSequence,
		FromTime:     oldest.FromTime,
		ToTime:       d.ToTime,
		FromHash:     oldest.FromHash,
		ToHash:       d.ToHash,
		ChangedFiles: util.PathSet{},
		CreatedFiles: util.PathSet{},
		RemovedFiles: util.PathSet{},
		UncleanPaths: util.PathSet{},
	}
	if stoppedAtLimit && pruneAfterLimit {
		merged.Previous = nil
	} else {
		merged.Previous = oldest.Previous
	}

	// Fold oldest to newest so existence toggles resolve in event order.
	for i := len(span) - 1; i >= 0; i-- {
		cur := span[i]
		for p := range cur.ChangedFiles {
			merged.ChangedFiles.Add(p)
		}
		for p := range cur.CreatedFiles {
			if merged.RemovedFiles.Contains(p) {
				// Existed at the span start, was removed, now back: the
				// net effect is a content change, not a creation.
				merged.RemovedFiles.Remove(p)
				merged.ChangedFiles.Add(p)
			} else {
				merged.CreatedFiles.Add(p)
			}
		}
		for p := range cur.RemovedFiles {
			if merged.CreatedFiles.Contains(p) {
				// Created and removed within the span: net no-op for
				// existence. Any content change stays in ChangedFiles.
				merged.CreatedFiles.Remove(p)
			} else {
				merged.RemovedFiles.Add(p)
			}
		}
		for p := range cur.UncleanPaths {
			merged.UncleanPaths.Add(p)
		}
	}

	// A net creation or removal subsumes any content change of the same
	// path within the span.
	for p := range merged.CreatedFiles {
		merged.ChangedFiles.Remove(p)
	}
	for p := range merged.RemovedFiles {
		merged.ChangedFiles.Remove(p)
	}

	return merged
}
