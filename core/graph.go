package core

import (
	"fmt"
	"sync"

	"github.com/opcycle/taskgraph/ir"
)

// Graph is the container that owns every Node and Edge in a single
// analysis run. It assigns NodeID/EdgeID values from a monotonic counter
// (never reused, even across removals) and maintains the NIDMap from block
// history to NodeID.
//
// The pipeline stages take exclusive access to a Graph and mutate it
// in place; the RWMutex here exists so a finished Graph can still
// be read concurrently by a caller (e.g. a JSON encoder and a DOT renderer
// running side by side over the same completed result).
type Graph struct {
	mu sync.RWMutex

	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge

	// archivedNodes/archivedEdges hold nodes and edges removed from the
	// visible index by RemoveNode/RemoveEdge. A Virtual/MLCycle node's
	// subgraph/subEdges name NodeIDs/EdgeIDs that live here once collapsed;
	// reverse-transform reads them back out through ArchivedNode/ArchivedEdge.
	archivedNodes map[NodeID]*Node
	archivedEdges map[EdgeID]*Edge

	nextNodeID uint64
	nextEdgeID uint64

	// nidMap maps a block-history key (History.Key()) to the Control node
	// representing it. Only Control nodes are indexed here.
	nidMap map[string]NodeID
}

// New constructs an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:         make(map[NodeID]*Node),
		edges:         make(map[EdgeID]*Edge),
		archivedNodes: make(map[NodeID]*Node),
		archivedEdges: make(map[EdgeID]*Edge),
		nidMap:        make(map[string]NodeID),
	}
}

func (g *Graph) allocNodeID() NodeID {
	g.nextNodeID++
	return NodeID(g.nextNodeID)
}

func (g *Graph) allocEdgeID() EdgeID {
	g.nextEdgeID++
	return EdgeID(g.nextEdgeID)
}

// AddControlNode creates (or returns the existing) Control node for the
// given block history: each distinct length-k history vector becomes one
// Control node. created reports whether a new node was made (false means
// hist was already present).
func (g *Graph) AddControlNode(hist History) (node *Node, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := hist.Key()
	if id, ok := g.nidMap[key]; ok {
		return g.nodes[id], false
	}

	blocks := make(map[ir.BlockID]struct{}, len(hist))
	for _, b := range hist {
		blocks[b] = struct{}{}
	}
	ordered := make([]ir.BlockID, len(hist))
	copy(ordered, hist)

	n := &Node{
		id:             g.allocNodeID(),
		kind:           NodeControl,
		originalBlocks: ordered,
		blocks:         blocks,
		predecessors:   make(map[EdgeID]struct{}),
		successors:     make(map[EdgeID]struct{}),
	}
	g.nodes[n.id] = n
	g.nidMap[key] = n.id
	return n, true
}

// AddImaginaryNode creates a new synthetic source/sink node.
func (g *Graph) AddImaginaryNode() *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &Node{
		id:           g.allocNodeID(),
		kind:         NodeImaginary,
		predecessors: make(map[EdgeID]struct{}),
		successors:   make(map[EdgeID]struct{}),
	}
	g.nodes[n.id] = n
	return n
}

// AddVirtualNode creates a new Virtual node taking ownership of subgraph
// and subEdges, the node's virtual closure. The nodes/edges named in
// subgraph/subEdges are expected to already have been removed from the
// top-level index by the caller (RemoveNode/RemoveEdge) before or
// immediately after this call.
func (g *Graph) AddVirtualNode(subgraph map[NodeID]struct{}, subEdges map[EdgeID]struct{}, anchor uint64) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &Node{
		id:           g.allocNodeID(),
		kind:         NodeVirtual,
		subgraph:     subgraph,
		subEdges:     subEdges,
		anchor:       anchor,
		predecessors: make(map[EdgeID]struct{}),
		successors:   make(map[EdgeID]struct{}),
	}
	g.nodes[n.id] = n
	return n
}

// AddMLCycleNode creates a new MLCycle (task) node.
func (g *Graph) AddMLCycleNode(kid TaskID, subgraph map[NodeID]struct{}, subEdges map[EdgeID]struct{}, anchor uint64) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := &Node{
		id:           g.allocNodeID(),
		kind:         NodeMLCycle,
		subgraph:     subgraph,
		subEdges:     subEdges,
		anchor:       anchor,
		kid:          kid,
		children:     make(map[TaskID]struct{}),
		parents:      make(map[TaskID]struct{}),
		predecessors: make(map[EdgeID]struct{}),
		successors:   make(map[EdgeID]struct{}),
	}
	g.nodes[n.id] = n
	return n
}

// RemoveNode deletes a node from the graph's top-level index and archives
// it. It does not inspect or sever incident edges: callers virtualizing a
// subgraph remove the node's edges first (RemoveEdge), then the node, and
// record both sets in a VirtualNode's subgraph/subEdges so they remain
// reachable for reverse transform via ArchivedNode/ArchivedEdge.
func (g *Graph) RemoveNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("core: RemoveNode(%d): %w", id, ErrNodeNotFound)
	}
	delete(g.nodes, id)
	g.archivedNodes[id] = n
	if n.kind == NodeControl {
		for key, nid := range g.nidMap {
			if nid == id {
				delete(g.nidMap, key)
				break
			}
		}
	}
	return nil
}

// RestoreNode moves a previously archived node back into the graph's
// top-level index — the inverse of RemoveNode, used by hierarchy-sanity
// revocation to re-expand an MLCycle whose children turned out not to
// justify keeping it collapsed. Returns ErrNodeNotFound if id was never
// archived.
func (g *Graph) RestoreNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.archivedNodes[id]
	if !ok {
		return fmt.Errorf("core: RestoreNode(%d): %w", id, ErrNodeNotFound)
	}
	delete(g.archivedNodes, id)
	g.nodes[id] = n
	if n.kind == NodeControl {
		g.nidMap[History(n.originalBlocks).Key()] = id
	}
	return nil
}

// Node looks up a node by ID among those currently visible at the top level.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// ArchivedNode looks up a node by ID whether or not it is currently visible
// at the top level — used by reverse-transform to resolve NodeIDs found in
// a Virtual/MLCycle node's subgraph.
func (g *Graph) ArchivedNode(id NodeID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n, ok := g.nodes[id]; ok {
		return n, true
	}
	n, ok := g.archivedNodes[id]
	return n, ok
}

// ControlNodeByHistory looks up the Control node for a given block history.
func (g *Graph) ControlNodeByHistory(hist History) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.nidMap[hist.Key()]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Edge looks up an edge by ID.
func (g *Graph) Edge(id EdgeID) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[id]
	return e, ok
}

// NodeCount returns the number of nodes currently visible at the top level.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges currently visible at the top level.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Nodes returns every visible NodeID in deterministic (ascending) order,
// for reproducible iteration order across runs.
func (g *Graph) Nodes() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sortNodeIDs(out)
	return out
}

// Edges returns every visible EdgeID in deterministic (ascending) order.
func (g *Graph) Edges() []EdgeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]EdgeID, 0, len(g.edges))
	for id := range g.edges {
		out = append(out, id)
	}
	sortEdgeIDs(out)
	return out
}

// ArchivedNodeIDs returns every NodeID removed from the top level by
// RemoveNode and not since restored, in deterministic order. Combined with
// Nodes, this is every node a single run has ever minted — used by
// warning scans that must look past virtualization to the original,
// archived Control nodes.
func (g *Graph) ArchivedNodeIDs() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]NodeID, 0, len(g.archivedNodes))
	for id := range g.archivedNodes {
		out = append(out, id)
	}
	sortNodeIDs(out)
	return out
}

// ArchivedEdgeIDs returns every EdgeID removed from the top level by
// RemoveEdge, in deterministic order.
func (g *Graph) ArchivedEdgeIDs() []EdgeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]EdgeID, 0, len(g.archivedEdges))
	for id := range g.archivedEdges {
		out = append(out, id)
	}
	sortEdgeIDs(out)
	return out
}
