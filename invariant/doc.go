// Package invariant holds the post-transform check pass: the properties a
// graph must still satisfy after the edge classifier, function
// virtualizer, CFG rewriter, or cycle segmenter has touched it. A failed
// check aborts the run with a *ViolationError naming the offending
// property and the transform most recently applied.
//
// Checks never mutate the graph they inspect.
package invariant
