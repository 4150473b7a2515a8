package transform

import "github.com/opcycle/taskgraph/core"

// isCertain reports whether an edge represents a transition taken with
// effective certainty: Unconditional/Imaginary edges carry no probability
// field at all, and a Conditional-like edge counts once its weight clears
// the trivial-merge threshold.
func isCertain(e *core.Edge) bool {
	switch e.Kind() {
	case core.EdgeUnconditional, core.EdgeImaginary:
		return true
	default:
		return e.Weight() >= 0.9999
	}
}

// maxIncomingFreqSum returns the largest per-node incoming-frequency total
// across nodes — a subgraph's anchor, the hotness proxy every transform
// stamps onto the VirtualNode it produces.
func maxIncomingFreqSum(g *core.Graph, nodes map[core.NodeID]struct{}) uint64 {
	var max uint64
	for n := range nodes {
		var sum uint64
		for _, eid := range g.Predecessors(n) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			sum += e.Freq()
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

// collectSubgraphEdges partitions every edge incident to nodes into
// interior (both endpoints inside nodes) and boundary-in/boundary-out (one
// endpoint outside), in deterministic ID order.
func collectSubgraphEdges(g *core.Graph, nodes map[core.NodeID]struct{}) (interior map[core.EdgeID]struct{}, boundaryIn, boundaryOut []core.EdgeID) {
	interior = make(map[core.EdgeID]struct{})
	for _, n := range core.SortedNodeIDs(nodes) {
		for _, eid := range g.Predecessors(n) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if _, inside := nodes[e.Src()]; inside {
				interior[eid] = struct{}{}
				continue
			}
			boundaryIn = append(boundaryIn, eid)
		}
		for _, eid := range g.Successors(n) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if _, inside := nodes[e.Snk()]; inside {
				interior[eid] = struct{}{}
				continue
			}
			boundaryOut = append(boundaryOut, eid)
		}
	}
	return interior, boundaryIn, boundaryOut
}

// virtualizeSubgraph wraps nodes into a single fresh VirtualNode: edges
// wholly inside nodes become its private interior (removed from the top
// level, archived under the node's SubEdges), and every edge crossing the
// boundary becomes a VirtualEdge pointing to/from the new node, preserving
// frequency. Outgoing weights at the new node and at every rewired
// boundary-in source are then re-normalized.
func virtualizeSubgraph(g *core.Graph, nodes map[core.NodeID]struct{}) (*core.Node, error) {
	interior, boundaryIn, boundaryOut := collectSubgraphEdges(g, nodes)

	vnode := g.AddVirtualNode(nodes, interior, maxIncomingFreqSum(g, nodes))

	renormalize := make(map[core.NodeID]struct{})
	for _, eid := range boundaryIn {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if _, err := g.AddVirtualEdge(e.Src(), vnode.ID(), e.Freq(), e.Weight(), map[core.EdgeID]struct{}{eid: {}}); err != nil {
			return nil, err
		}
		renormalize[e.Src()] = struct{}{}
		if err := g.RemoveEdge(eid); err != nil {
			return nil, err
		}
	}
	for _, eid := range boundaryOut {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if _, err := g.AddVirtualEdge(vnode.ID(), e.Snk(), e.Freq(), e.Weight(), map[core.EdgeID]struct{}{eid: {}}); err != nil {
			return nil, err
		}
		if err := g.RemoveEdge(eid); err != nil {
			return nil, err
		}
	}
	for eid := range interior {
		if _, live := g.Edge(eid); live {
			if err := g.RemoveEdge(eid); err != nil {
				return nil, err
			}
		}
	}
	for _, n := range core.SortedNodeIDs(nodes) {
		if err := g.RemoveNode(n); err != nil {
			return nil, err
		}
	}

	for _, src := range core.SortedNodeIDs(renormalize) {
		g.NormalizeOutgoingWeights(src)
	}
	g.NormalizeOutgoingWeights(vnode.ID())
	return vnode, nil
}

// hasInteriorCycle reports whether the edges wholly inside nodes form a
// cycle, via a standard white/gray/black DFS restricted to that edge set.
// The general-bottleneck sweep relies on this to reject any candidate region
// that closes a loop back on itself: genuine cycles — hot or cold — are left
// for the low-frequency-loop pass and the cycle segmenter to handle, never
// silently absorbed here.
func hasInteriorCycle(g *core.Graph, nodes map[core.NodeID]struct{}) bool {
	const (
		white = iota
		gray
		black
	)
	color := make(map[core.NodeID]int, len(nodes))

	var visit func(core.NodeID) bool
	visit = func(n core.NodeID) bool {
		color[n] = gray
		for _, eid := range g.Successors(n) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if _, inside := nodes[e.Snk()]; !inside {
				continue
			}
			switch color[e.Snk()] {
			case gray:
				return true
			case white:
				if visit(e.Snk()) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}

	for _, n := range core.SortedNodeIDs(nodes) {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}
