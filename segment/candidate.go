package segment

import (
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/dijkstra"
)

// candidate is a not-yet-accepted task: a cycle's node set together with
// the bookkeeping needed to validate, prioritize, and eventually
// virtualize it.
type candidate struct {
	pivot                   core.NodeID
	nodes                   map[core.NodeID]struct{}
	interior                map[core.EdgeID]struct{}
	boundaryIn, boundaryOut []core.EdgeID
	anchor                  uint64
	cost                    float64 // -log(recurrence probability); higher means less likely
	sig                     uint64
}

func (c candidate) entranceExitCount() int { return len(c.boundaryIn) + len(c.boundaryOut) }

func (c candidate) overlaps(claimed map[core.NodeID]struct{}) bool {
	for n := range c.nodes {
		if _, in := claimed[n]; in {
			return true
		}
	}
	return false
}

// enumerateCandidates runs a cycle search from every non-Imaginary node,
// keeping one candidate per distinct node set discovered this round.
func enumerateCandidates(g *core.Graph, minAnchor uint64) []candidate {
	seen := make(map[uint64]struct{})
	var out []candidate
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok || n.Kind() == core.NodeImaginary {
			continue
		}
		cyc, found := dijkstra.ShortestCycle(g, nid)
		if !found {
			continue
		}
		nodes := make(map[core.NodeID]struct{}, len(cyc.Nodes))
		for _, id := range cyc.Nodes {
			nodes[id] = struct{}{}
		}
		sig := signature(nodes)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}

		interior, boundaryIn, boundaryOut := collectEdges(g, nodes)
		if hasInteriorCycleExcludingPivot(g, nodes, nid) {
			continue // bundles more than one cycle through its pivot
		}
		anchor := maxIncomingFreqSum(g, nodes)
		if anchor < minAnchor {
			continue
		}
		if len(boundaryIn) == 0 || len(boundaryOut) == 0 {
			continue
		}

		out = append(out, candidate{
			pivot:       nid,
			nodes:       nodes,
			interior:    interior,
			boundaryIn:  boundaryIn,
			boundaryOut: boundaryOut,
			anchor:      anchor,
			cost:        cyc.Cost,
			sig:         sig,
		})
	}
	return out
}

// maxIncomingFreqSum returns the largest per-node incoming-frequency total
// across nodes, the subgraph's anchor.
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

// collectEdges partitions every edge incident to nodes into interior (both
// endpoints inside nodes) and boundary-in/boundary-out (one endpoint
// outside), in deterministic ID order.
func collectEdges(g *core.Graph, nodes map[core.NodeID]struct{}) (interior map[core.EdgeID]struct{}, boundaryIn, boundaryOut []core.EdgeID) {
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

// hasInteriorCycleExcludingPivot reports whether nodes still contain a
// cycle once pivot is removed from consideration: a candidate that does
// bundles a second, independent loop through its pivot rather than
// describing one clean simple cycle.
func hasInteriorCycleExcludingPivot(g *core.Graph, nodes map[core.NodeID]struct{}, pivot core.NodeID) bool {
	const (
		white = iota
		gray
		black
	)
	rest := make(map[core.NodeID]struct{}, len(nodes))
	for n := range nodes {
		if n != pivot {
			rest[n] = struct{}{}
		}
	}
	color := make(map[core.NodeID]int, len(rest))

	var visit func(core.NodeID) bool
	visit = func(n core.NodeID) bool {
		color[n] = gray
		for _, eid := range g.Successors(n) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			if _, inside := rest[e.Snk()]; !inside {
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

	for _, n := range core.SortedNodeIDs(rest) {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}
