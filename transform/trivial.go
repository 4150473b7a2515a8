package transform

import "github.com/opcycle/taskgraph/core"

// trivialMergePass repeatedly merges A->B chains until none remain,
// reporting whether it merged anything at all.
func trivialMergePass(g *core.Graph) (bool, error) {
	changed := false
	for {
		merged := false
		for _, nid := range g.Nodes() {
			n, ok := g.Node(nid)
			if !ok || n.Kind() == core.NodeImaginary {
				continue
			}
			pair, ok := trivialMergeCandidate(g, nid)
			if !ok {
				continue
			}
			if _, err := virtualizeSubgraph(g, pair); err != nil {
				return changed, err
			}
			merged, changed = true, true
			break // graph mutated mid-scan: restart from a fresh node list
		}
		if !merged {
			return changed, nil
		}
	}
}

// trivialMergeCandidate reports the {a, b} pair if a is a source node with
// exactly one near-certain successor b, b has no other incoming traffic
// and exactly one outgoing edge, the chain doesn't loop back to a, and
// both ends still have outside traffic of their own. Neither end may be an
// MLCycle (a discovered task).
func trivialMergeCandidate(g *core.Graph, a core.NodeID) (map[core.NodeID]struct{}, bool) {
	if an, ok := g.Node(a); !ok || an.Kind() == core.NodeMLCycle {
		return nil, false
	}
	predsA := g.Predecessors(a)
	succsA := g.Successors(a)
	if len(succsA) != 1 || len(predsA) == 0 {
		return nil, false
	}

	eAB, ok := g.Edge(succsA[0])
	if !ok || !isCertain(eAB) {
		return nil, false
	}

	b := eAB.Snk()
	if b == a {
		return nil, false
	}
	bn, ok := g.Node(b)
	if !ok || bn.Kind() == core.NodeImaginary || bn.Kind() == core.NodeMLCycle {
		return nil, false
	}

	predsB := g.Predecessors(b)
	if len(predsB) != 1 || predsB[0] != eAB.ID() {
		return nil, false
	}
	succsB := g.Successors(b)
	if len(succsB) != 1 {
		return nil, false
	}
	eBC, ok := g.Edge(succsB[0])
	if !ok || eBC.Snk() == a {
		return nil, false
	}

	return map[core.NodeID]struct{}{a: {}, b: {}}, true
}
