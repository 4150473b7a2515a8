// Package segment discovers the task structure of a graph that has already
// reached CFG-rewriter fixpoint: recurring control-flow cycles ("tasks"),
// wrapped into MLCycle nodes and assembled into a parent/child hierarchy.
//
// Segment repeats, until no new task is accepted:
//
//  1. Candidate enumeration — run a maximum-likelihood cycle search from
//     every node, deduplicating candidates that describe the same node set.
//  2. Validation — reject a candidate that bundles more than one cycle
//     through its pivot, whose anchor falls below MinAnchor, that has no
//     entrance or no exit, or whose node set was already accepted earlier.
//  3. Selection — among candidates that share a node, keep only the one
//     with the lowest entrance-plus-exit count (ties broken toward the
//     lower recurrence probability); the rest wait for a later round.
//  4. Virtualization — wrap every selected candidate into an MLCycle node,
//     linking it to any MLCycle nodes absorbed into its subgraph as
//     children, then re-run the CFG rewriter in segmentation mode (the
//     probability-sum invariant is relaxed while tasks are still being
//     discovered).
//
// A final hierarchy-sanity pass revokes any outermost MLCycle that has at
// least two children, each of which has at least one child of its own,
// unless it has at least MinChildKernelException children.
package segment
