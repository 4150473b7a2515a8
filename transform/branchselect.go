package transform

import "github.com/opcycle/taskgraph/core"

// branchToSelectPass repeatedly collapses n-way branches that reconverge at
// a single exit node until none remain.
func branchToSelectPass(g *core.Graph) (bool, error) {
	changed := false
	for {
		applied := false
		for _, nid := range g.Nodes() {
			n, ok := g.Node(nid)
			if !ok || n.Kind() == core.NodeImaginary {
				continue
			}
			nodes, ok := branchToSelectCandidate(g, nid)
			if !ok {
				continue
			}
			if _, err := virtualizeSubgraph(g, nodes); err != nil {
				return changed, err
			}
			applied, changed = true, true
			break
		}
		if !applied {
			return changed, nil
		}
	}
}

// branchToSelectCandidate looks for a node s with n>=2 successors that all
// reach a single exit node e: either directly (s->e), or through a midnode
// whose only predecessor is s and whose only successor is e. Covers both
// the "S has a direct edge to E" and the "every midnode lies strictly
// between" cases from a single uniform rule.
func branchToSelectCandidate(g *core.Graph, s core.NodeID) (map[core.NodeID]struct{}, bool) {
	succs := g.Successors(s)
	if len(succs) < 2 {
		return nil, false
	}
	targets := make([]core.NodeID, len(succs))
	for i, eid := range succs {
		e, ok := g.Edge(eid)
		if !ok {
			return nil, false
		}
		targets[i] = e.Snk()
	}

	for _, exit := range targets {
		if exit == s {
			continue
		}
		nodes := map[core.NodeID]struct{}{s: {}, exit: {}}
		ok := true
		for i, t := range targets {
			if t == exit {
				continue
			}
			if t == s {
				ok = false
				break
			}
			if _, dup := nodes[t]; dup {
				ok = false
				break
			}
			preds := g.Predecessors(t)
			if len(preds) != 1 || preds[0] != succs[i] {
				ok = false
				break
			}
			midSuccs := g.Successors(t)
			if len(midSuccs) != 1 {
				ok = false
				break
			}
			me, mok := g.Edge(midSuccs[0])
			if !mok || me.Snk() != exit {
				ok = false
				break
			}
			nodes[t] = struct{}{}
		}
		if ok && len(nodes) >= 3 {
			return nodes, true
		}
	}
	return nil, false
}
