// Package dijkstra finds the maximum-likelihood cycle through a given node
// of a dCFG: the cycle whose edge weights (interpreted as branch
// probabilities) multiply to the largest value, found by running
// Dijkstra's algorithm with -log(weight) as edge length and looking for
// the shortest path back to the start node.
//
// Overview:
//
//   - ShortestCycle(g, start) runs a single-source Dijkstra seeded from
//     start's own outgoing edges (rather than from start at distance
//     zero), so start itself is only finalized once a path has actually
//     looped back to it. The first time start is popped off the heap,
//     the edge weights along the path that reached it multiply to the
//     largest probability of any cycle through start.
//   - Two callers share this search: the low-frequency-loop control-flow
//     transform, which discards any such cycle whose anchor (max incoming
//     frequency over its nodes) falls below a hotness floor, and the
//     cycle segmenter, which enumerates one candidate cycle per node of
//     the graph on every pass.
//
// Edge cost:
//
//   - Deterministic edges (Unconditional, Imaginary) carry no probability
//     field in the data model but represent a certain transition, so they
//     cost 0 rather than -log(0).
//   - A probabilistic edge (Conditional, Call, Return, Virtual) with
//     weight 0 — for example a Conditional edge whose recorded frequency is
//     0 — is never taken at runtime and is treated as impassable.
//
// Complexity:
//
//   - Time:  O((V + E) log V), one min-heap extraction per vertex and one
//     push per edge relaxation, exactly as in a standard single-source
//     Dijkstra run.
//   - Space: O(V + E) for the distance/predecessor maps and the heap.
package dijkstra
