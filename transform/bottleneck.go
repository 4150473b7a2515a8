package transform

import "github.com/opcycle/taskgraph/core"

// bottleneckPass repeatedly finds and collapses general acyclic bottleneck
// regions (4.4.c's FindNewSubgraph, validated and pruned by 4.4.d's
// fan-in/fan-out check) until none remain.
func bottleneckPass(g *core.Graph, maxSize int) (bool, error) {
	changed := false
	for {
		applied := false
		for _, nid := range g.Nodes() {
			n, ok := g.Node(nid)
			if !ok || n.Kind() == core.NodeImaginary {
				continue
			}
			if len(g.Successors(nid)) < 2 {
				continue // a bottleneck entrance needs a genuine branch
			}
			nodes, sink, ok := findBottleneckCandidate(g, nid, maxSize)
			if !ok {
				continue
			}
			nodes, ok = validateFanInFanOut(g, nodes, nid, sink)
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

// findBottleneckCandidate runs the four-color sweep from entrance s: a
// pending (Yellow) node is promoted into the committed (Red/Blue) set only
// once every one of its predecessors is already committed — the dominance
// condition behind the color upgrade rule — and its own successors then
// join the pending frontier (Green candidates). The sweep is a monotone
// fixpoint bounded by maxSize; it fails if some pending node never gets
// fully dominated (an outside entrance reaches into the region) or if more
// than one committed node drains edges outside the region (no unique
// Green sink).
func findBottleneckCandidate(g *core.Graph, s core.NodeID, maxSize int) (map[core.NodeID]struct{}, core.NodeID, bool) {
	committed := map[core.NodeID]struct{}{s: {}}
	pending := make(map[core.NodeID]struct{})
	for _, eid := range g.Successors(s) {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if e.Snk() != s {
			pending[e.Snk()] = struct{}{}
		}
	}

	for {
		progressed := false
		for nid := range pending {
			preds := g.Predecessors(nid)
			allInside := len(preds) > 0
			for _, eid := range preds {
				e, ok := g.Edge(eid)
				if !ok {
					continue
				}
				if _, in := committed[e.Src()]; !in {
					allInside = false
					break
				}
			}
			if !allInside {
				continue // still waiting on another branch to dominate it
			}
			delete(pending, nid)
			committed[nid] = struct{}{}
			progressed = true
			if len(committed) > maxSize {
				return nil, 0, false
			}
			for _, eid := range g.Successors(nid) {
				e, ok := g.Edge(eid)
				if !ok {
					continue
				}
				if _, in := committed[e.Snk()]; !in {
					pending[e.Snk()] = struct{}{}
				}
			}
		}
		if !progressed {
			break
		}
	}

	if len(pending) > 0 {
		return nil, 0, false // a branch never fully dominated: no clean bottleneck
	}
	if len(committed) < 2 {
		return nil, 0, false
	}
	if hasInteriorCycle(g, committed) {
		return nil, 0, false
	}

	// A committed node qualifies as the region's sink if none of its
	// successor edges continue on to another committed node — either it
	// has no successors at all (a true dead end) or every successor leaves
	// the region. Exactly one such node, besides the entrance, is required.
	var sink core.NodeID
	sinkSet := false
	for _, nid := range core.SortedNodeIDs(committed) {
		if nid == s {
			continue
		}
		internal := false
		for _, eid := range g.Successors(nid) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if _, in := committed[e.Snk()]; in {
				internal = true
				break
			}
		}
		if internal {
			continue
		}
		if sinkSet && sink != nid {
			return nil, 0, false // more than one terminal node: no unique sink
		}
		sink, sinkSet = nid, true
	}
	if !sinkSet {
		return nil, 0, false
	}
	return committed, sink, true
}
