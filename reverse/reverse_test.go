package reverse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/reverse"
	"github.com/opcycle/taskgraph/segment"
	"github.com/opcycle/taskgraph/transform"
)

// TestExpand_FullUndoesTrivialMerge builds a straight chain collapsed by
// the trivial-merge transform and checks that a Full expansion recovers
// exactly the original nodes and edges.
func TestExpand_FullUndoesTrivialMerge(t *testing.T) {
	g := core.New()
	entry := g.AddImaginaryNode()
	a, _ := g.AddControlNode(core.History{1})
	b, _ := g.AddControlNode(core.History{2})
	c, _ := g.AddControlNode(core.History{3})
	d, _ := g.AddControlNode(core.History{4})
	e, _ := g.AddControlNode(core.History{5})
	f, _ := g.AddControlNode(core.History{6})

	wantNodes := map[core.NodeID]struct{}{
		entry.ID(): {}, a.ID(): {}, b.ID(): {}, c.ID(): {}, d.ID(): {}, e.ID(): {}, f.ID(): {},
	}
	wantEdges := map[core.EdgeID]struct{}{}

	e1, err := g.AddImaginaryEdge(entry.ID(), a.ID())
	require.NoError(t, err)
	e2, err := g.AddUnconditionalEdge(a.ID(), b.ID(), 5)
	require.NoError(t, err)
	e3, err := g.AddUnconditionalEdge(b.ID(), c.ID(), 5)
	require.NoError(t, err)
	e4, err := g.AddUnconditionalEdge(c.ID(), d.ID(), 5)
	require.NoError(t, err)
	e5, err := g.AddConditionalEdge(d.ID(), e.ID(), 3, 0.6)
	require.NoError(t, err)
	e6, err := g.AddConditionalEdge(d.ID(), f.ID(), 2, 0.4)
	require.NoError(t, err)
	for _, eid := range []core.EdgeID{e1.ID(), e2.ID(), e3.ID(), e4.ID(), e5.ID(), e6.ID()} {
		wantEdges[eid] = struct{}{}
	}

	require.NoError(t, transform.Run(g, transform.DefaultOptions()))
	require.Less(t, g.NodeCount(), len(wantNodes)) // confirms a merge actually happened

	view, err := reverse.Expand(g, reverse.Full)
	require.NoError(t, err)
	assert.Equal(t, wantNodes, view.Nodes)
	assert.Equal(t, wantEdges, view.Edges)
}

// TestExpand_UpToTaskKeepsMLCycleOpaque segments a hot self-loop into a
// task and checks that UpToTask leaves the task as a single node while
// Full expansion resolves it back to the original control node.
func TestExpand_UpToTaskKeepsMLCycleOpaque(t *testing.T) {
	g := core.New()
	entry := g.AddImaginaryNode()
	a, _ := g.AddControlNode(core.History{1})
	b, _ := g.AddControlNode(core.History{2})

	_, err := g.AddImaginaryEdge(entry.ID(), a.ID())
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(a.ID(), a.ID(), 1000, 0.99)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(a.ID(), b.ID(), 10, 0.01)
	require.NoError(t, err)

	require.NoError(t, segment.Segment(g, segment.DefaultOptions()))

	var task *core.Node
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		require.True(t, ok)
		if n.Kind() == core.NodeMLCycle {
			task = n
		}
	}
	require.NotNil(t, task)

	upView, err := reverse.Expand(g, reverse.UpToTask)
	require.NoError(t, err)
	assert.Contains(t, upView.Nodes, task.ID())
	assert.NotContains(t, upView.Nodes, a.ID())
	assert.Contains(t, upView.Nodes, entry.ID())
	assert.Contains(t, upView.Nodes, b.ID())

	fullView, err := reverse.Expand(g, reverse.Full)
	require.NoError(t, err)
	assert.NotContains(t, fullView.Nodes, task.ID())
	assert.Contains(t, fullView.Nodes, a.ID())
	assert.Equal(t, map[core.NodeID]struct{}{entry.ID(): {}, a.ID(): {}, b.ID(): {}}, fullView.Nodes)
}
