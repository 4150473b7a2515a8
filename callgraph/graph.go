package callgraph

import (
	"sort"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// Node is one function observed as the caller or the callee of at least one
// Call edge.
type Node struct {
	Function ir.FunctionID
	children map[ir.FunctionID]*Edge
	parents  map[ir.FunctionID]*Edge
}

// Edge is a observed caller->callee relationship, covering every call site
// between the two functions.
type Edge struct {
	Caller, Callee ir.FunctionID
	// CallSites lists the dCFG Call EdgeIDs that realize this relationship.
	CallSites []core.EdgeID
}

// Graph is the dynamic call graph.
type Graph struct {
	nodes   map[ir.FunctionID]*Node
	main    ir.FunctionID
	hasMain bool
}

// Build scans every Call edge in g and groups them by (caller function,
// callee function), resolving the caller function via the IR provider.
func Build(g *core.Graph, prov ir.Provider) (*Graph, error) {
	cg := &Graph{nodes: make(map[ir.FunctionID]*Node)}
	if m, ok := prov.MainFunction(); ok {
		cg.main, cg.hasMain = m, true
	}

	for _, eid := range g.Edges() {
		e, _ := g.Edge(eid)
		if e.Kind() != core.EdgeCall {
			continue
		}
		rets := e.Returns()
		srcNode, ok := g.Node(e.Src())
		if !ok || srcNode.Kind() != core.NodeControl {
			continue
		}
		var callerFn ir.FunctionID
		found := false
		for b := range srcNode.Blocks() {
			if fn, ok := prov.FunctionForBlock(b); ok {
				callerFn = fn
				found = true
				break
			}
		}
		if !found {
			continue
		}
		calleeFn := rets.FunctionID

		cg.ensureNode(callerFn)
		cg.ensureNode(calleeFn)

		cn := cg.nodes[callerFn]
		edge, ok := cn.children[calleeFn]
		if !ok {
			edge = &Edge{Caller: callerFn, Callee: calleeFn}
			cn.children[calleeFn] = edge
			cg.nodes[calleeFn].parents[callerFn] = edge
		}
		edge.CallSites = append(edge.CallSites, eid)
	}
	return cg, nil
}

func (cg *Graph) ensureNode(fn ir.FunctionID) {
	if _, ok := cg.nodes[fn]; !ok {
		cg.nodes[fn] = &Node{
			Function: fn,
			children: make(map[ir.FunctionID]*Edge),
			parents:  make(map[ir.FunctionID]*Edge),
		}
	}
}

// Node looks up a function's call graph node.
func (cg *Graph) Node(fn ir.FunctionID) (*Node, bool) {
	n, ok := cg.nodes[fn]
	return n, ok
}

// Main returns the program's entry function, if the IR named one. It is
// reported whether or not main appears as a node in the call graph.
func (cg *Graph) Main() (ir.FunctionID, bool) {
	return cg.main, cg.hasMain
}

// Functions returns every function ID in the call graph, sorted ascending
// for deterministic scheduling.
func (cg *Graph) Functions() []ir.FunctionID {
	out := make([]ir.FunctionID, 0, len(cg.nodes))
	for fn := range cg.nodes {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Children returns the sorted callee function IDs of fn.
func (n *Node) Children() []ir.FunctionID {
	out := make([]ir.FunctionID, 0, len(n.children))
	for fn := range n.children {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ChildEdge returns the call edge from n to callee, if any.
func (n *Node) ChildEdge(callee ir.FunctionID) (*Edge, bool) {
	e, ok := n.children[callee]
	return e, ok
}

// Parents returns the sorted caller function IDs of fn.
func (n *Node) Parents() []ir.FunctionID {
	out := make([]ir.FunctionID, 0, len(n.parents))
	for fn := range n.parents {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
