package virtualize

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
)

// InlineCallSite privatizes one call site: it tailors the callee's shared
// body down to what this call site's dynamic exits actually reach, wraps
// every surviving node in a fresh VirtualNode, and rewires entrance/
// interior/exit edges as VirtualEdges pointing at the private copy.
//
// It removes this call site's own Call edge and its own static/dynamic
// Return edges — each exclusive to this call site, never shared with
// another call site targeting the same function — but leaves the callee
// body's interior nodes and edges untouched in the top-level graph: those
// ARE shared across every call site targeting this function, so deleting
// them here would break subgraph selection for a call site not yet
// processed. The caller is responsible for removing the shared body once,
// after every call site targeting the function has been inlined, via
// RemoveFunctionBody.
func InlineCallSite(g *core.Graph, callEdgeID core.EdgeID) error {
	call, ok := g.Edge(callEdgeID)
	if !ok {
		return fmt.Errorf("virtualize: call edge %d: %w", callEdgeID, core.ErrEdgeNotFound)
	}
	if call.Kind() != core.EdgeCall {
		return fmt.Errorf("virtualize: edge %d is not a Call edge", callEdgeID)
	}
	rets := call.Returns()
	if rets == nil || rets.FunctionNodes == nil {
		return fmt.Errorf("%w: edge %d", ErrMissingReturns, callEdgeID)
	}

	entry := call.Snk()
	sub := selectSubgraph(g, entry)

	activeExits := make(map[core.NodeID]struct{})
	for dynID := range rets.DynamicRets {
		e, ok := g.Edge(dynID)
		if !ok {
			continue
		}
		activeExits[e.Src()] = struct{}{}
	}
	sub = tailor(g, sub, activeExits)

	virtualOf := make(map[core.NodeID]core.NodeID, len(sub.nodes))
	for n := range sub.nodes {
		anchor := incomingFreqSum(g, n)
		vn := g.AddVirtualNode(map[core.NodeID]struct{}{n: {}}, map[core.EdgeID]struct{}{}, anchor)
		virtualOf[n] = vn.ID()
	}

	callerNode := call.Src()
	callFreq := call.Freq()

	// Entrance edge: caller -> entry becomes caller -> virtual(entry).
	if _, err := g.AddVirtualEdge(callerNode, virtualOf[entry], callFreq, 0, map[core.EdgeID]struct{}{callEdgeID: {}}); err != nil {
		return err
	}
	if err := g.RemoveEdge(callEdgeID); err != nil {
		return err
	}

	// Interior edges: both endpoints privatized. The underlying raw edge
	// stays live — it belongs to the shared body, cleaned up later.
	for eid := range sub.edges {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		srcV, srcOK := virtualOf[e.Src()]
		snkV, snkOK := virtualOf[e.Snk()]
		if !srcOK || !snkOK {
			continue
		}
		if _, err := g.AddVirtualEdge(srcV, snkV, e.Freq(), e.Weight(), map[core.EdgeID]struct{}{eid: {}}); err != nil {
			return err
		}
	}

	// Exit edges: only the dynamic returns whose source survived tailoring
	// become real VirtualEdges back to the caller side; everything else
	// (returns from pruned nodes) is dropped. These Return edges are
	// exclusive to this call site, so removing them now is always safe.
	// StaticRets need no cleanup here: they were never wired into the graph
	// to begin with (bookkeeping-only, see classify.populateReturns).
	for dynID := range rets.DynamicRets {
		e, ok := g.Edge(dynID)
		if !ok {
			continue
		}
		srcV, kept := virtualOf[e.Src()]
		if !kept {
			_ = g.RemoveEdge(dynID)
			continue
		}
		if _, err := g.AddVirtualEdge(srcV, e.Snk(), e.Freq(), e.Weight(), map[core.EdgeID]struct{}{dynID: {}}); err != nil {
			return err
		}
		if err := g.RemoveEdge(dynID); err != nil {
			return err
		}
	}

	g.NormalizeOutgoingWeights(callerNode)
	return nil
}

// RemoveFunctionBody removes a function's shared body — every node and
// edge forward-reachable from entry without crossing a Return edge — from
// the top-level graph. Call it once per function, after every call site
// targeting it has been inlined via InlineCallSite: until then the body is
// still shared state that a not-yet-processed call site's subgraph
// selection needs to see live.
func RemoveFunctionBody(g *core.Graph, entry core.NodeID) error {
	body := selectSubgraph(g, entry)
	for eid := range body.edges {
		if _, live := g.Edge(eid); live {
			if err := g.RemoveEdge(eid); err != nil {
				return err
			}
		}
	}
	for n := range body.nodes {
		if _, live := g.Node(n); live {
			if err := g.RemoveNode(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func incomingFreqSum(g *core.Graph, n core.NodeID) uint64 {
	var sum uint64
	for _, eid := range g.Predecessors(n) {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		sum += e.Freq()
	}
	return sum
}
