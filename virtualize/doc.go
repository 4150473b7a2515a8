// Package virtualize inlines the call sites of each non-recursive function
// that has more than one call site into the dCFG (a function with a single
// call site is left as is): the callee's subgraph is duplicated once per
// call site, wrapped
// node-by-node in fresh Virtual nodes, and wired back in with VirtualEdges,
// so every later transform sees a private copy of the callee per calling
// context instead of one shared copy with fan-in from every caller.
//
// Recursive functions (direct self-calls, or members of an indirect-
// recursion cycle in the dynamic call graph) are left un-inlined: the cycle
// segmenter discovers them later as task cycles instead.
package virtualize
