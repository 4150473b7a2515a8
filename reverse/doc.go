// Package reverse produces a read-only, expanded view of a graph that the
// CFG rewriter and cycle segmenter have collapsed into Virtual and MLCycle
// nodes — used when exporting results, since downstream consumers (the
// kernel-file writer, DOT rendering) want to see real program structure,
// not the analyzer's internal virtual closures.
//
// Two modes control how far expansion goes:
//
//   - Full expands every Virtual and MLCycle node until none remain, down
//     to the Control/Imaginary nodes and original edges the edge classifier
//     produced.
//   - UpToTask expands Virtual nodes but leaves the parent-most layer of
//     MLCycle nodes intact, so a caller sees task boundaries rather than
//     their internal structure.
//
// Expand never mutates the Graph it reads: it walks ArchivedNode/
// ArchivedEdge, which keep collapsed content reachable after RemoveNode/
// RemoveEdge archived it, and returns a View naming the surviving IDs.
package reverse
