package classify

import "errors"

var (
	// ErrUnresolvableCallee is returned when a call site's callee cannot be
	// determined either statically (known, non-empty callee) or dynamically
	// (via the BlockCallers observation map).
	ErrUnresolvableCallee = errors.New("classify: call site has no resolvable callee")

	// ErrCallEdgeMissingCaller names the case where a call site is identified
	// in the IR but no matching raw profile edge connects the caller block's
	// node to the callee entry node. Run does not return it: such a
	// caller/callee node pair is skipped and left as it is.
	ErrCallEdgeMissingCaller = errors.New("classify: no profile edge observed for call site")

	// ErrDeadFunctionReferenced is returned when a call instruction names a
	// callee function that the IR provider does not define. A defined callee
	// that owns no nodes in the profile graph (never observed executing) is
	// not an error: its call sites are simply left un-upgraded.
	ErrDeadFunctionReferenced = errors.New("classify: call site references a function the IR does not define")

	// ErrTerminatorOutsideMain is returned when program termination (a
	// terminal node with no successors) is found outside the main function,
	// which this classifier does not yet support.
	ErrTerminatorOutsideMain = errors.New("classify: program terminator found outside main")
)
