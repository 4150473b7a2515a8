package virtualize

import "errors"

// ErrMissingReturns is returned when a Call edge's Returns record was never
// populated (i.e. the edge classifier did not run, or failed silently).
var ErrMissingReturns = errors.New("virtualize: call edge has no Returns record")
