package classify

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// anchorImaginary adds a program-entry Imaginary node wired to main's entry
// block, and a program-exit Imaginary node wired from every observed
// program-terminator block: both the zero-out-degree Control node in main,
// and every thread-exit block reached through a thread-entrance's Call
// edge(s). A zero-out-degree Control node outside main is only tolerated
// when it is one of those thread exits; anything else is rejected.
func anchorImaginary(g *core.Graph, prov ir.Provider, threads ir.ThreadEntrances, blocks blockIndex) error {
	mainFn, ok := prov.MainFunction()
	if !ok {
		return nil
	}
	fn, ok := prov.Function(mainFn)
	if !ok {
		return nil
	}

	entryNodes := blocks[fn.Entry]
	if len(entryNodes) > 0 {
		entrySrc := g.AddImaginaryNode()
		for _, en := range entryNodes {
			if _, err := g.AddImaginaryEdge(entrySrc.ID(), en); err != nil {
				return err
			}
		}
	}

	mainBlocks := make(map[ir.BlockID]struct{}, len(fn.Blocks))
	for _, b := range fn.Blocks {
		mainBlocks[b] = struct{}{}
	}

	// A thread entrance is reached by a Call edge the same way any function
	// entry is; that edge's Returns.StaticExits are the thread function's
	// own ret/resume blocks. A thread never returns to a caller-side
	// successor, so those blocks terminate the thread and anchor the
	// program-exit node instead of fanning back into the caller.
	threadExits := make(map[core.NodeID]struct{})
	for _, tb := range threads {
		for _, tn := range blocks[tb] {
			for _, eid := range g.Predecessors(tn) {
				e, ok := g.Edge(eid)
				if !ok || e.Kind() != core.EdgeCall {
					continue
				}
				for se := range e.Returns().StaticExits {
					threadExits[se] = struct{}{}
				}
			}
		}
	}

	var exitSink *core.Node
	anchorExit := func(nid core.NodeID) error {
		if exitSink == nil {
			exitSink = g.AddImaginaryNode()
		}
		_, err := g.AddImaginaryEdge(nid, exitSink.ID())
		return err
	}

	for _, nid := range g.Nodes() {
		n, _ := g.Node(nid)
		if n.Kind() != core.NodeControl || len(g.Successors(nid)) != 0 {
			continue
		}
		if _, isThreadExit := threadExits[nid]; isThreadExit {
			continue // anchored unconditionally below
		}
		inMain := false
		for b := range n.Blocks() {
			if _, ok := mainBlocks[b]; ok {
				inMain = true
				break
			}
		}
		if !inMain {
			return fmt.Errorf("classify: terminal node %d: %w", nid, ErrTerminatorOutsideMain)
		}
		if err := anchorExit(nid); err != nil {
			return err
		}
	}

	for nid := range threadExits {
		if err := anchorExit(nid); err != nil {
			return err
		}
	}
	return nil
}
