// Package transform rewrites a classified, virtualized dCFG by collapsing
// recognizable control-flow idioms into single Virtual nodes: straight-line
// chains, branch/select diamonds, general acyclic bottleneck regions, and
// low-frequency noise loops, plus a Kirchhoff current-law pass that patches
// local flow-conservation mismatches left by an under- or over-counting
// profile.
//
// Run interleaves five transforms and Kirchhoff balancing in a fixpoint
// loop that exits once a full pass makes no further change:
//
//  1. Trivial merge     — A->B chains with no other traffic.
//  2. Branch-to-select  — an n-way branch that reconverges at one exit.
//  3. General bottleneck — a maximal acyclic region fully dominated by one
//     entrance and drained by one exit, found by a four-color forward
//     sweep from the entrance.
//  4. Fan-in/fan-out    — validates and prunes a bottleneck candidate.
//  5. Low-frequency loop — collapses cold cycles (anchor < MinAnchor) out
//     of the way before the cycle segmenter looks for real tasks.
//  6. Kirchhoff balancing — patches single-predecessor/single-successor
//     nodes whose two edge frequencies disagree.
//
// A transform's candidate subgraph that fails a structural check (a cycle
// where an acyclic region was expected, a stray boundary edge, a dead-end
// left after pruning) is silently skipped; only the outer loop's own graph
// mutations can return an error, and only if the graph itself is malformed.
package transform
