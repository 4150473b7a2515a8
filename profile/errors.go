package profile

import "errors"

// Sentinel errors for profile loading. Per the module's error policy,
// these are never stringified with parameters; callers attach context with
// fmt.Errorf("...: %w", ...) and branch with errors.Is.
var (
	// ErrMalformedHeader indicates the profile's 12-byte header could not
	// be read in full. The declared counts are not checked against the
	// stream: an edge_count larger than the records present surfaces as
	// ErrTruncatedRecord.
	ErrMalformedHeader = errors.New("profile: malformed header")

	// ErrTruncatedRecord indicates the stream ended mid-record.
	ErrTruncatedRecord = errors.New("profile: truncated record")

	// ErrDuplicateEdge indicates the same (src history, snk) pair was
	// observed twice; the profile is assumed edge-unique.
	ErrDuplicateEdge = errors.New("profile: duplicate edge")

	// ErrHotCodeRequiresOrder1 is raised only when a downstream hot-code
	// pass (HotBlocks) is invoked against a profile with Markov order != 1.
	ErrHotCodeRequiresOrder1 = errors.New("profile: hot-code pass requires markov order 1")

	// ErrInvalidMarkovOrder indicates k == 0, which cannot form a history.
	ErrInvalidMarkovOrder = errors.New("profile: markov order must be >= 1")
)
