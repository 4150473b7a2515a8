package dijkstra

import (
	"container/heap"
	"math"

	"github.com/opcycle/taskgraph/core"
)

// ShortestCycle finds the maximum-likelihood cycle through start: the
// closed walk start -> ... -> start whose edges multiply to the largest
// probability, equivalently the walk of least total -log(weight) cost.
// found is false if start lies on no cycle.
//
// The search is a single-source Dijkstra seeded from start's own outgoing
// edges rather than from start itself at distance zero, so start is only
// finalized once some path has actually looped back to it; the first pop
// of start off the heap is, by the usual Dijkstra correctness argument,
// the shortest such loop.
func ShortestCycle(g *core.Graph, start core.NodeID) (Cycle, bool) {
	dist := make(map[core.NodeID]float64)
	prevNode := make(map[core.NodeID]core.NodeID)
	prevEdge := make(map[core.NodeID]core.EdgeID)
	visited := make(map[core.NodeID]bool)

	pq := make(nodePQ, 0)
	heap.Init(&pq)

	relax := func(u core.NodeID, d float64) {
		for _, eid := range g.Successors(u) {
			e, ok := g.Edge(eid)
			if !ok {
				continue
			}
			cost, passable := edgeCost(e)
			if !passable {
				continue
			}
			v := e.Snk()
			nd := d + cost
			if cur, seen := dist[v]; seen && nd >= cur {
				continue
			}
			dist[v] = nd
			prevNode[v] = u
			prevEdge[v] = eid
			heap.Push(&pq, &nodeItem{id: v, dist: nd})
		}
	}

	// Seed step: relax start's own edges without ever finalizing start at
	// distance zero, so a direct self-loop or a path back through start's
	// own successors is still eligible to close the cycle.
	relax(start, 0)

	for pq.Len() > 0 {
		it := heap.Pop(&pq).(*nodeItem)
		u, d := it.id, it.dist
		if visited[u] {
			continue
		}
		if cur, ok := dist[u]; !ok || d > cur {
			continue // stale lazy-decrease-key entry
		}
		visited[u] = true
		if u == start {
			break
		}
		relax(u, d)
	}

	if !visited[start] {
		return Cycle{}, false
	}
	return reconstructCycle(g, start, dist[start], prevNode, prevEdge), true
}

// reconstructCycle walks the prev chain backward from start (reached via
// the cycle) to the seed step's own start, then reverses it into forward
// traversal order.
func reconstructCycle(g *core.Graph, start core.NodeID, cost float64, prevNode map[core.NodeID]core.NodeID, prevEdge map[core.NodeID]core.EdgeID) Cycle {
	var revEdges []core.EdgeID
	cur := start
	for {
		eid := prevEdge[cur]
		revEdges = append(revEdges, eid)
		p := prevNode[cur]
		if p == start {
			break
		}
		cur = p
	}

	edges := make([]core.EdgeID, len(revEdges))
	for i, eid := range revEdges {
		edges[len(revEdges)-1-i] = eid
	}

	nodes := make([]core.NodeID, 0, len(edges)+1)
	nodes = append(nodes, start)
	for _, eid := range edges {
		e, _ := g.Edge(eid)
		nodes = append(nodes, e.Snk())
	}

	return Cycle{Nodes: nodes, Edges: edges, Cost: cost}
}

// edgeCost returns an edge's -log(weight) distance and whether it can be
// traversed at all. Unconditional and Imaginary edges represent a certain
// transition (no recorded branch probability), so they cost 0. A
// probabilistic edge with weight 0 was never observed to be taken and is
// impassable.
func edgeCost(e *core.Edge) (float64, bool) {
	switch e.Kind() {
	case core.EdgeUnconditional, core.EdgeImaginary:
		return 0, true
	default:
		w := float64(e.Weight())
		if w <= 0 {
			return 0, false
		}
		return -math.Log(w), true
	}
}
