// Package core defines the dCFG data model shared by every analysis stage:
// a tagged Node/Edge union, a Graph container that owns them, and the
// NodeID/EdgeID identifier arenas the rest of the pipeline threads through.
//
// Nodes are one of Control, Imaginary, Virtual, or MLCycle; edges are one of
// Unconditional, Conditional, Call, Return, Imaginary, or Virtual. Go has no
// sum types, so both are modeled as a single struct carrying a Kind tag plus
// the union of fields each variant needs — behavior lives in free functions
// and methods that switch on Kind, per the flattened-hierarchy approach the
// rest of this module follows.
//
// A node's or edge's kind never changes once created: a transform that
// changes a node's role removes the old node/edges from the Graph's visible
// index and adds new ones, so stale references obtained before a transform
// must not be dereferenced after it runs (see VirtualNode ownership in the
// virtualize and transform packages). Numeric fields are updated in place:
// edge frequencies and weights (SetFreq, SetWeight,
// NormalizeOutgoingWeights) and a Virtual-like node's anchor and label.
//
// Concurrency: Graph guards its node/edge index with a sync.RWMutex so a
// caller embedding the pipeline in a service can safely read a finished
// Graph from multiple goroutines, but the analysis stages themselves run
// single-threaded and take exclusive access while they run.
package core
