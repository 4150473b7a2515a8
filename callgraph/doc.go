// Package callgraph builds the dynamic call graph — one node per function
// observed on either end of a call, one edge per observed caller/callee
// relationship — from the Call edges the classify package recovers, and
// classifies each function as directly recursive, indirectly recursive (as
// part of a cycle), or non-recursive.
//
// This is the CallGraph/CallGraphNode/CallGraphEdge layer of the original
// design, generalized: rather than a static llvm::CallGraph, it is built
// directly from the Call edges the edge classifier already produced, so it
// only contains functions actually observed at runtime.
package callgraph
