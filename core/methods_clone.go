package core

import "github.com/opcycle/taskgraph/ir"

// Clone returns a deep copy of the Graph, including its NodeID/EdgeID
// counters (so future IDs minted on the clone never collide with the
// original). Used by the invariant package to snapshot the pre-transform
// graph before applying a candidate rewrite, so that if the transform's
// invariant check fails, the snapshot can be dumped as a debug DOT artifact
// alongside the candidate subgraph.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := New()
	clone.nextNodeID = g.nextNodeID
	clone.nextEdgeID = g.nextEdgeID

	for id, n := range g.nodes {
		clone.nodes[id] = cloneNode(n)
	}
	for id, e := range g.edges {
		clone.edges[id] = cloneEdge(e)
	}
	for id, n := range g.archivedNodes {
		clone.archivedNodes[id] = cloneNode(n)
	}
	for id, e := range g.archivedEdges {
		clone.archivedEdges[id] = cloneEdge(e)
	}
	for k, v := range g.nidMap {
		clone.nidMap[k] = v
	}
	return clone
}

func cloneNode(n *Node) *Node {
	c := &Node{
		id:           n.id,
		kind:         n.kind,
		anchor:       n.anchor,
		kid:          n.kid,
		label:        n.label,
		predecessors: cloneEdgeSet(n.predecessors),
		successors:   cloneEdgeSet(n.successors),
	}
	if n.originalBlocks != nil {
		c.originalBlocks = append([]ir.BlockID(nil), n.originalBlocks...)
	}
	c.blocks = cloneBlockSet(n.blocks)
	c.subgraph = cloneNodeSet(n.subgraph)
	c.subEdges = cloneEdgeSet(n.subEdges)
	c.children = cloneTaskSet(n.children)
	c.parents = cloneTaskSet(n.parents)
	return c
}

func cloneEdge(e *Edge) *Edge {
	c := &Edge{
		id:     e.id,
		kind:   e.kind,
		src:    e.src,
		snk:    e.snk,
		freq:   e.freq,
		weight: e.weight,
		call:   e.call,
	}
	if e.returns != nil {
		r := *e.returns
		r.FunctionNodes = cloneNodeSet(e.returns.FunctionNodes)
		r.StaticExits = cloneNodeSet(e.returns.StaticExits)
		r.StaticRets = cloneEdgeSet(e.returns.StaticRets)
		r.DynamicExits = cloneNodeSet(e.returns.DynamicExits)
		r.DynamicRets = cloneEdgeSet(e.returns.DynamicRets)
		c.returns = &r
	}
	c.underlying = cloneEdgeSet(e.underlying)
	return c
}

func cloneNodeSet(s map[NodeID]struct{}) map[NodeID]struct{} {
	if s == nil {
		return nil
	}
	out := make(map[NodeID]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func cloneEdgeSet(s map[EdgeID]struct{}) map[EdgeID]struct{} {
	if s == nil {
		return nil
	}
	out := make(map[EdgeID]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func cloneTaskSet(s map[TaskID]struct{}) map[TaskID]struct{} {
	if s == nil {
		return nil
	}
	out := make(map[TaskID]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func cloneBlockSet(s map[ir.BlockID]struct{}) map[ir.BlockID]struct{} {
	if s == nil {
		return nil
	}
	out := make(map[ir.BlockID]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
