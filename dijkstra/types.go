package dijkstra

import "github.com/opcycle/taskgraph/core"

// Cycle is the result of a successful ShortestCycle search: a closed walk
// start -> ... -> start, its edges in traversal order, and the path's
// total cost (sum of -log(weight) over the probabilistic edges crossed;
// deterministic edges contribute 0).
type Cycle struct {
	// Nodes lists the cycle's node sequence, starting and ending at the
	// search's start node (len(Nodes) == len(Edges)+1).
	Nodes []core.NodeID
	// Edges lists the cycle's edges in traversal order.
	Edges []core.EdgeID
	// Cost is the sum of edge costs along the cycle; LogProbability()
	// returns the corresponding path probability.
	Cost float64
}

// LogProbability returns the natural logarithm of the cycle's recurrence
// probability (the product of its probabilistic edges' weights).
func (c Cycle) LogProbability() float64 { return -c.Cost }

// nodeItem is a (node, distance) pair stored in the priority queue.
type nodeItem struct {
	id   core.NodeID
	dist float64
}

// nodePQ is a min-heap of *nodeItem ordered by ascending dist, using the
// lazy-decrease-key pattern: a shorter distance to an already-queued node
// is pushed as a new entry rather than updating the old one in place: the
// stale entry is discarded when popped, since by then the node is marked
// visited.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
