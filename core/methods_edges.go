package core

import "fmt"

func (g *Graph) link(e *Edge) error {
	src, ok := g.nodes[e.src]
	if !ok {
		return fmt.Errorf("core: AddEdge src %d: %w", e.src, ErrDanglingEdge)
	}
	snk, ok := g.nodes[e.snk]
	if !ok {
		return fmt.Errorf("core: AddEdge snk %d: %w", e.snk, ErrDanglingEdge)
	}
	g.edges[e.id] = e
	src.successors[e.id] = struct{}{}
	snk.predecessors[e.id] = struct{}{}
	return nil
}

// AddUnconditionalEdge adds a baseline profile edge.
func (g *Graph) AddUnconditionalEdge(src, snk NodeID, freq uint64) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &Edge{id: g.allocEdgeID(), kind: EdgeUnconditional, src: src, snk: snk, freq: freq}
	if err := g.link(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddConditionalEdge adds a branch edge with an explicit probability weight.
func (g *Graph) AddConditionalEdge(src, snk NodeID, freq uint64, weight float32) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &Edge{id: g.allocEdgeID(), kind: EdgeConditional, src: src, snk: snk, freq: freq, weight: weight}
	if err := g.link(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddCallEdge adds a call edge and seeds its Returns record. The
// Returns.CallerNode field must equal src.
func (g *Graph) AddCallEdge(src, snk NodeID, freq uint64, weight float32, rets *Returns) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &Edge{id: g.allocEdgeID(), kind: EdgeCall, src: src, snk: snk, freq: freq, weight: weight, returns: rets}
	if err := g.link(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddReturnEdge adds a dynamic return edge that back-references the Call
// edge it closes.
func (g *Graph) AddReturnEdge(src, snk NodeID, freq uint64, weight float32, call EdgeID) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &Edge{id: g.allocEdgeID(), kind: EdgeReturn, src: src, snk: snk, freq: freq, weight: weight, call: call}
	if err := g.link(e); err != nil {
		return nil, err
	}
	return e, nil
}

// NewSyntheticEdgeID allocates a fresh EdgeID that is never linked into the
// graph: it is not inserted into the top-level index, not archived, and
// touches no node's successor/predecessor set, so g.Edge and g.ArchivedEdge
// will never resolve it. This is bookkeeping only, used for Returns.StaticRets
// — the synthetic static_exit -> caller_node returns that spec §3 and the
// original graph builder keep as standalone records rather than real edges.
func (g *Graph) NewSyntheticEdgeID() EdgeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allocEdgeID()
}

// AddImaginaryEdge adds an unweighted boundary edge touching an Imaginary
// node.
func (g *Graph) AddImaginaryEdge(src, snk NodeID) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &Edge{id: g.allocEdgeID(), kind: EdgeImaginary, src: src, snk: snk}
	if err := g.link(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddVirtualEdge adds an edge that covers a set of edges collapsed by a
// transform. underlying must be closed under the
// virtualization that produced it.
func (g *Graph) AddVirtualEdge(src, snk NodeID, freq uint64, weight float32, underlying map[EdgeID]struct{}) (*Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &Edge{id: g.allocEdgeID(), kind: EdgeVirtual, src: src, snk: snk, freq: freq, weight: weight, underlying: underlying}
	if err := g.link(e); err != nil {
		return nil, err
	}
	return e, nil
}

// RemoveEdge deletes an edge from the graph's top-level index, archives it,
// and severs it from its endpoints' predecessor/successor sets. Returns
// ErrEdgeNotFound if id is not present.
func (g *Graph) RemoveEdge(id EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("core: RemoveEdge(%d): %w", id, ErrEdgeNotFound)
	}
	delete(g.edges, id)
	g.archivedEdges[id] = e
	if src, ok := g.nodes[e.src]; ok {
		delete(src.successors, id)
	}
	if snk, ok := g.nodes[e.snk]; ok {
		delete(snk.predecessors, id)
	}
	return nil
}

// RestoreEdge moves a previously archived edge back into the graph's
// top-level index and relinks it to its endpoints' predecessor/successor
// sets — the inverse of RemoveEdge. Returns ErrDanglingEdge if either
// endpoint is not currently visible at the top level, ErrEdgeNotFound if id
// was never archived.
func (g *Graph) RestoreEdge(id EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.archivedEdges[id]
	if !ok {
		return fmt.Errorf("core: RestoreEdge(%d): %w", id, ErrEdgeNotFound)
	}
	delete(g.archivedEdges, id)
	return g.link(e)
}

// ArchivedEdge looks up an edge by ID whether or not it is currently
// visible at the top level — used by reverse-transform to resolve EdgeIDs
// found in a Virtual/MLCycle node's subEdges, and by the function
// virtualizer to resolve a VirtualEdge's underlying original.
func (g *Graph) ArchivedEdge(id EdgeID) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if e, ok := g.edges[id]; ok {
		return e, true
	}
	e, ok := g.archivedEdges[id]
	return e, ok
}

// Successors returns the sorted EdgeIDs leaving node id.
func (g *Graph) Successors(id NodeID) []EdgeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]EdgeID, 0, len(n.successors))
	for eid := range n.successors {
		out = append(out, eid)
	}
	sortEdgeIDs(out)
	return out
}

// Predecessors returns the sorted EdgeIDs entering node id.
func (g *Graph) Predecessors(id NodeID) []EdgeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]EdgeID, 0, len(n.predecessors))
	for eid := range n.predecessors {
		out = append(out, eid)
	}
	sortEdgeIDs(out)
	return out
}

// SumOutgoingFreq returns the sum of outgoing edge frequencies for id,
// used repeatedly to recompute conditional weights (freq / Σ sibling freqs).
func (g *Graph) SumOutgoingFreq(id NodeID) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return 0
	}
	var sum uint64
	for eid := range n.successors {
		sum += g.edges[eid].freq
	}
	return sum
}

// NormalizeOutgoingWeights recomputes weight = freq/Σsiblings for every
// conditional-like (Conditional/Call/Return/Virtual) outgoing edge of id.
// Unconditional/Imaginary edges are left untouched.
func (g *Graph) NormalizeOutgoingWeights(id NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	var sum uint64
	for eid := range n.successors {
		sum += g.edges[eid].freq
	}
	if sum == 0 {
		return
	}
	for eid := range n.successors {
		e := g.edges[eid]
		switch e.kind {
		case EdgeConditional, EdgeCall, EdgeReturn, EdgeVirtual:
			e.weight = float32(e.freq) / float32(sum)
		}
	}
}
