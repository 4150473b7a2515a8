package transform

import "github.com/opcycle/taskgraph/core"

// validateFanInFanOut re-checks a general-bottleneck candidate against the
// structural conditions 4.4.d requires: after pruning dead-end interior
// nodes (no predecessor, or no successor, other than at the entrance/sink
// themselves), the region must still have at least 3 nodes, and the only
// edges crossing its boundary must enter at s and leave at sink.
func validateFanInFanOut(g *core.Graph, nodes map[core.NodeID]struct{}, s, sink core.NodeID) (map[core.NodeID]struct{}, bool) {
	for {
		pruned := false
		for _, nid := range core.SortedNodeIDs(nodes) {
			if nid == s || nid == sink {
				continue
			}
			if len(g.Predecessors(nid)) == 0 || len(g.Successors(nid)) == 0 {
				delete(nodes, nid)
				pruned = true
			}
		}
		if !pruned {
			break
		}
	}

	if len(nodes) < 3 {
		return nil, false
	}
	if _, stillIn := nodes[s]; !stillIn {
		return nil, false
	}
	if _, stillIn := nodes[sink]; !stillIn {
		return nil, false
	}

	_, boundaryIn, boundaryOut := collectSubgraphEdges(g, nodes)
	for _, eid := range boundaryIn {
		e, ok := g.Edge(eid)
		if !ok || e.Snk() != s {
			return nil, false
		}
	}
	for _, eid := range boundaryOut {
		e, ok := g.Edge(eid)
		if !ok || e.Src() != sink {
			return nil, false
		}
	}
	return nodes, true
}
