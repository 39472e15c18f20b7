package journal

import "errors"

// Sentinel errors for package journal.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// ErrTruncatedHistory means a query's checkpoint predates the oldest
	// retained delta. The caller cannot be given an incremental answer and
	// must resynchronize from scratch. Distinct from a nil accumulate
	// result, which means nothing changed in the requested range.
	ErrTruncatedHistory = errors.New("journal history truncated before requested sequence")

	// ErrFutureSequence means a query named a checkpoint beyond the latest
	// assigned sequence number. This is a protocol error on the caller's
	// side, never a transient state.
	ErrFutureSequence = errors.New("requested sequence is ahead of the journal")

	// ErrEmptyPath means a record call was given an empty path.
	ErrEmptyPath = errors.New("cannot record an empty path")
)
