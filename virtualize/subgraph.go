package virtualize

import "github.com/opcycle/taskgraph/core"

// callSubgraph is the interior of one call site's callee subgraph, already
// tailored to this specific call's dynamic exits.
type callSubgraph struct {
	nodes map[core.NodeID]struct{}
	edges map[core.EdgeID]struct{}
}

// selectSubgraph walks forward from entry, following every edge except
// Return-kind edges. A Return edge always crosses back out of the callee
// to some caller context by construction (populateReturns never creates
// one any other way), so it is a subgraph exit regardless of which call
// site it happens to close — including one belonging to a different call
// site sharing the same callee node.
func selectSubgraph(g *core.Graph, entry core.NodeID) callSubgraph {
	nodes := map[core.NodeID]struct{}{entry: {}}
	edges := make(map[core.EdgeID]struct{})
	queue := []core.NodeID{entry}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, eid := range g.Successors(cur) {
			e, ok := g.Edge(eid)
			if !ok || e.Kind() == core.EdgeReturn {
				continue
			}
			edges[eid] = struct{}{}
			if _, seen := nodes[e.Snk()]; !seen {
				nodes[e.Snk()] = struct{}{}
				queue = append(queue, e.Snk())
			}
		}
	}
	return callSubgraph{nodes: nodes, edges: edges}
}

// tailor prunes sub down to the nodes backward-reachable (within sub) from
// activeExits — the static exits that actually produced an observed
// dynamic return for this call site. If activeExits is empty (the call
// never observably returned), sub is left unpruned.
func tailor(g *core.Graph, sub callSubgraph, activeExits map[core.NodeID]struct{}) callSubgraph {
	if len(activeExits) == 0 {
		return sub
	}
	keep := make(map[core.NodeID]struct{})
	queue := make([]core.NodeID, 0, len(activeExits))
	for n := range activeExits {
		if _, in := sub.nodes[n]; in {
			keep[n] = struct{}{}
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, eid := range g.Predecessors(cur) {
			if _, inSub := sub.edges[eid]; !inSub {
				continue
			}
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if _, seen := keep[e.Src()]; !seen {
				keep[e.Src()] = struct{}{}
				queue = append(queue, e.Src())
			}
		}
	}

	edges := make(map[core.EdgeID]struct{})
	for eid := range sub.edges {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		_, srcKept := keep[e.Src()]
		_, snkKept := keep[e.Snk()]
		if srcKept && snkKept {
			edges[eid] = struct{}{}
		}
	}
	return callSubgraph{nodes: keep, edges: edges}
}
