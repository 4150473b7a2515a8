package classify

import (
	"fmt"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/ir"
)

// Options carries the auxiliary, caller-supplied dynamic observations the
// classifier needs beyond the IR and the profile graph themselves.
type Options struct {
	// BlockCallers maps an indirect call site block to the entry blocks
	// observed to execute immediately afterward (candidate callees).
	BlockCallers ir.BlockCallers
	// ThreadEntrances lists additional thread-entry blocks whose terminal
	// blocks should also anchor the program-exit node.
	ThreadEntrances ir.ThreadEntrances
}

// Run upgrades every raw Unconditional edge in g into its proper kind and
// adds the Imaginary program-entry/exit anchors, using prov to resolve
// call sites, terminators, and the program's entry function.
func Run(g *core.Graph, prov ir.Provider, opts Options) error {
	blocks := buildBlockIndex(g)

	if err := upgradeConditionals(g); err != nil {
		return fmt.Errorf("classify: conditional upgrade: %w", err)
	}
	if err := upgradeCalls(g, prov, opts.BlockCallers, blocks); err != nil {
		return fmt.Errorf("classify: call upgrade: %w", err)
	}
	if err := anchorImaginary(g, prov, opts.ThreadEntrances, blocks); err != nil {
		return fmt.Errorf("classify: imaginary anchors: %w", err)
	}
	if err := removeFakeRecursion(g, prov); err != nil {
		return fmt.Errorf("classify: fake recursion removal: %w", err)
	}
	return nil
}

// blockIndex resolves which Control nodes have a given block as the newest
// (last) element of their history — the node(s) a raw IR block corresponds
// to in the profile graph. Markov order 1 gives exactly one node per block;
// higher orders can, in principle, give several.
type blockIndex map[ir.BlockID][]core.NodeID

func buildBlockIndex(g *core.Graph) blockIndex {
	idx := make(blockIndex)
	for _, nid := range g.Nodes() {
		n, _ := g.Node(nid)
		if n.Kind() != core.NodeControl {
			continue
		}
		hist := n.OriginalBlocks()
		if len(hist) == 0 {
			continue
		}
		last := hist[len(hist)-1]
		idx[last] = append(idx[last], nid)
	}
	return idx
}

// upgradeConditionals replaces every Unconditional edge leaving a node with
// two or more outgoing edges with a Conditional edge carrying the branch
// probability freq/Σsibling-freqs.
func upgradeConditionals(g *core.Graph) error {
	for _, nid := range g.Nodes() {
		eids := g.Successors(nid)
		if len(eids) < 2 {
			continue
		}
		var sum uint64
		type raw struct {
			id       core.EdgeID
			src, snk core.NodeID
			freq     uint64
		}
		var toUpgrade []raw
		for _, eid := range eids {
			e, _ := g.Edge(eid)
			if e.Kind() != core.EdgeUnconditional {
				continue
			}
			sum += e.Freq()
			toUpgrade = append(toUpgrade, raw{e.ID(), e.Src(), e.Snk(), e.Freq()})
		}
		if sum == 0 {
			continue
		}
		for _, r := range toUpgrade {
			if err := g.RemoveEdge(r.id); err != nil {
				return err
			}
			weight := float32(r.freq) / float32(sum)
			if _, err := g.AddConditionalEdge(r.src, r.snk, r.freq, weight); err != nil {
				return err
			}
		}
	}
	return nil
}
