package transform

import (
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/dijkstra"
)

// lowFrequencyLoopPass collapses cycles whose anchor falls below minAnchor
// — noise loops not worth surfacing as tasks — out of the graph before the
// cycle segmenter runs. It repeats a full sweep (every node tried as a
// cycle start, candidates claiming their nodes so two overlapping
// candidates in the same sweep don't both get virtualized) until a sweep
// finds nothing left to collapse.
func lowFrequencyLoopPass(g *core.Graph, minAnchor uint64) (bool, error) {
	changed := false
	for {
		claimed := make(map[core.NodeID]struct{})
		var batch []map[core.NodeID]struct{}

		for _, nid := range g.Nodes() {
			if _, taken := claimed[nid]; taken {
				continue
			}
			n, ok := g.Node(nid)
			if !ok || n.Kind() == core.NodeImaginary {
				continue
			}
			cyc, found := dijkstra.ShortestCycle(g, nid)
			if !found {
				continue
			}

			nodes := make(map[core.NodeID]struct{}, len(cyc.Nodes))
			overlap := false
			for _, id := range cyc.Nodes {
				if _, taken := claimed[id]; taken {
					overlap = true
				}
				nodes[id] = struct{}{}
			}
			if overlap {
				continue
			}
			if maxIncomingFreqSum(g, nodes) >= minAnchor {
				continue
			}
			if !singleEntranceExit(g, nodes) {
				continue
			}

			for id := range nodes {
				claimed[id] = struct{}{}
			}
			batch = append(batch, nodes)
		}

		if len(batch) == 0 {
			return changed, nil
		}
		for _, nodes := range batch {
			if _, err := virtualizeSubgraph(g, nodes); err != nil {
				return changed, err
			}
			changed = true
		}
	}
}

// singleEntranceExit reports whether at most one edge enters nodes from
// outside and at most one leaves it — zero of either is the degenerate case
// of a loop that is the entire reachable graph, with no outside entrance or
// exit at all.
func singleEntranceExit(g *core.Graph, nodes map[core.NodeID]struct{}) bool {
	_, boundaryIn, boundaryOut := collectSubgraphEdges(g, nodes)
	return len(boundaryIn) <= 1 && len(boundaryOut) <= 1
}
