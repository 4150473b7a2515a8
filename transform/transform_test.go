package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/reverse"
	"github.com/opcycle/taskgraph/transform"
)

func virtualNodes(t *testing.T, g *core.Graph) []*core.Node {
	t.Helper()
	var out []*core.Node
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		require.True(t, ok)
		if n.Kind() == core.NodeVirtual {
			out = append(out, n)
		}
	}
	return out
}

// TestRun_TrivialChainCollapses builds an entry anchor feeding a straight
// three-node chain that ends at a genuine branch. The chain has no
// rejoining path, so only the trivial-merge transform fires: it merges
// pairwise (A with B, then that node with C), leaving one outermost Virtual
// node that expands to A, B and C while the branch at D survives untouched.
func TestRun_TrivialChainCollapses(t *testing.T) {
	g := core.New()
	entry := g.AddImaginaryNode()
	a, _ := g.AddControlNode(core.History{1})
	b, _ := g.AddControlNode(core.History{2})
	c, _ := g.AddControlNode(core.History{3})
	d, _ := g.AddControlNode(core.History{4})
	e, _ := g.AddControlNode(core.History{5})
	f, _ := g.AddControlNode(core.History{6})

	_, err := g.AddImaginaryEdge(entry.ID(), a.ID())
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(a.ID(), b.ID(), 5)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(b.ID(), c.ID(), 5)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(c.ID(), d.ID(), 5)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(d.ID(), e.ID(), 3, 0.6)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(d.ID(), f.ID(), 2, 0.4)
	require.NoError(t, err)

	require.NoError(t, transform.Run(g, transform.DefaultOptions()))

	assert.Equal(t, 5, g.NodeCount())
	vnodes := virtualNodes(t, g)
	require.Len(t, vnodes, 1)
	view, err := reverse.ExpandNode(g, vnodes[0].ID(), reverse.Full)
	require.NoError(t, err)
	assert.Equal(t, map[core.NodeID]struct{}{a.ID(): {}, b.ID(): {}, c.ID(): {}}, view.Nodes)

	dn, ok := g.Node(d.ID())
	require.True(t, ok)
	assert.Len(t, g.Successors(dn.ID()), 2)
}

// TestRun_BranchToSelectCollapsesDiamond builds a branch where two arms
// route through a midnode before reconverging and a third arm jumps
// straight to the same reconvergence point, the pattern the branch-to-select
// transform targets.
func TestRun_BranchToSelectCollapsesDiamond(t *testing.T) {
	g := core.New()
	s, _ := g.AddControlNode(core.History{1})
	x, _ := g.AddControlNode(core.History{2})
	y, _ := g.AddControlNode(core.History{3})
	e, _ := g.AddControlNode(core.History{4})

	_, err := g.AddConditionalEdge(s.ID(), x.ID(), 9, 0.9)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(s.ID(), y.ID(), 1, 0.1)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(s.ID(), e.ID(), 0, 0.0)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(x.ID(), e.ID(), 9)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(y.ID(), e.ID(), 1)
	require.NoError(t, err)

	require.NoError(t, transform.Run(g, transform.DefaultOptions()))

	assert.Equal(t, 1, g.NodeCount())
	vnodes := virtualNodes(t, g)
	require.Len(t, vnodes, 1)
	assert.Equal(t, map[core.NodeID]struct{}{
		s.ID(): {}, x.ID(): {}, y.ID(): {}, e.ID(): {},
	}, vnodes[0].Subgraph())
}

// TestRun_BottleneckCollapsesAcyclicDiamond builds a fan-out/fan-in diamond
// whose sink continues on to a true dead end (never looping back to the
// entrance), the acyclic shape the general bottleneck transform targets.
func TestRun_BottleneckCollapsesAcyclicDiamond(t *testing.T) {
	g := core.New()
	s, _ := g.AddControlNode(core.History{1})
	x, _ := g.AddControlNode(core.History{2})
	y, _ := g.AddControlNode(core.History{3})
	e, _ := g.AddControlNode(core.History{4})
	tail, _ := g.AddControlNode(core.History{5})

	_, err := g.AddConditionalEdge(s.ID(), x.ID(), 9, 0.9)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(s.ID(), y.ID(), 1, 0.1)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(x.ID(), e.ID(), 9)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(y.ID(), e.ID(), 1)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(e.ID(), tail.ID(), 10)
	require.NoError(t, err)

	require.NoError(t, transform.Run(g, transform.DefaultOptions()))

	assert.Equal(t, 1, g.NodeCount())
	vnodes := virtualNodes(t, g)
	require.Len(t, vnodes, 1)
	assert.Equal(t, map[core.NodeID]struct{}{
		s.ID(): {}, x.ID(): {}, y.ID(): {}, e.ID(): {}, tail.ID(): {},
	}, vnodes[0].Subgraph())
}

// TestRun_LowFrequencyLoopCollapsesColdLoopOnly builds two disjoint
// self-loops, one far below the anchor floor and one far above it. Only
// the cold loop should collapse; the hot loop must remain a visible cycle
// for the segmenter to find later.
func TestRun_LowFrequencyLoopCollapsesColdLoopOnly(t *testing.T) {
	g := core.New()
	cold, _ := g.AddControlNode(core.History{1})
	hot, _ := g.AddControlNode(core.History{2})

	_, err := g.AddConditionalEdge(cold.ID(), cold.ID(), 3, 1.0)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(hot.ID(), hot.ID(), 1000, 1.0)
	require.NoError(t, err)

	require.NoError(t, transform.Run(g, transform.DefaultOptions()))

	assert.Equal(t, 2, g.NodeCount())
	vnodes := virtualNodes(t, g)
	require.Len(t, vnodes, 1)
	assert.Equal(t, map[core.NodeID]struct{}{cold.ID(): {}}, vnodes[0].Subgraph())
	assert.Equal(t, uint64(3), vnodes[0].Anchor())

	hn, ok := g.Node(hot.ID())
	require.True(t, ok)
	assert.Equal(t, core.NodeControl, hn.Kind())
	hsuccs := g.Successors(hn.ID())
	require.Len(t, hsuccs, 1)
	he, ok := g.Edge(hsuccs[0])
	require.True(t, ok)
	assert.Equal(t, hot.ID(), he.Snk())
}

// TestRun_LowFrequencyLoop_WithMinAnchorZero_NeverCollapses confirms a
// MinAnchor of zero disables the low-frequency-loop transform entirely:
// nothing is ever strictly less than zero.
func TestRun_LowFrequencyLoop_WithMinAnchorZero_NeverCollapses(t *testing.T) {
	g := core.New()
	a, _ := g.AddControlNode(core.History{1})
	_, err := g.AddConditionalEdge(a.ID(), a.ID(), 1, 1.0)
	require.NoError(t, err)

	opts := transform.DefaultOptions()
	opts.MinAnchor = 0
	require.NoError(t, transform.Run(g, opts))

	assert.Equal(t, 1, g.NodeCount())
	an, ok := g.Node(a.ID())
	require.True(t, ok)
	assert.Equal(t, core.NodeControl, an.Kind())
}

// TestRun_KirchhoffBalancesMismatchedEdge builds a node with exactly one
// predecessor and one successor whose frequencies disagree (profiler
// undercount), flanked by a second, unrelated branch off the predecessor so
// no other transform folds the mismatched pair away first. Kirchhoff
// balancing should replace the higher-frequency edge with one carrying the
// lower count and re-normalize its source's weights around it.
func TestRun_KirchhoffBalancesMismatchedEdge(t *testing.T) {
	g := core.New()
	a, _ := g.AddControlNode(core.History{1})
	b, _ := g.AddControlNode(core.History{2})
	c, _ := g.AddControlNode(core.History{3})
	z, _ := g.AddControlNode(core.History{4})

	_, err := g.AddUnconditionalEdge(a.ID(), b.ID(), 10)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(b.ID(), c.ID(), 7)
	require.NoError(t, err)
	_, err = g.AddUnconditionalEdge(a.ID(), z.ID(), 1)
	require.NoError(t, err)

	require.NoError(t, transform.Run(g, transform.DefaultOptions()))

	assert.Equal(t, 4, g.NodeCount())
	assert.Empty(t, virtualNodes(t, g))

	succs := g.Successors(a.ID())
	require.Len(t, succs, 2)
	for _, eid := range succs {
		e, ok := g.Edge(eid)
		require.True(t, ok)
		if e.Snk() == b.ID() {
			assert.Equal(t, uint64(7), e.Freq())
			assert.Equal(t, core.EdgeVirtual, e.Kind())
			assert.InDelta(t, 7.0/8.0, e.Weight(), 1e-6)
		}
	}
}
