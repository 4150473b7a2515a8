package segment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/segment"
)

func mlCycleNodes(t *testing.T, g *core.Graph) []*core.Node {
	t.Helper()
	var out []*core.Node
	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		require.True(t, ok)
		if n.Kind() == core.NodeMLCycle {
			out = append(out, n)
		}
	}
	return out
}

// TestSegment_WrapsHotSelfLoopIntoTask builds a node whose self-loop
// dominates its outgoing traffic (anchor well above MinAnchor) and checks
// that it becomes a single-node MLCycle task, leaving its entrance and exit
// intact.
func TestSegment_WrapsHotSelfLoopIntoTask(t *testing.T) {
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

	assert.Equal(t, 3, g.NodeCount())
	tasks := mlCycleNodes(t, g)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, map[core.NodeID]struct{}{a.ID(): {}}, task.Subgraph())
	assert.Equal(t, uint64(1000), task.Anchor())
	assert.Empty(t, task.Children())

	preds := g.Predecessors(task.ID())
	require.Len(t, preds, 1)
	pe, ok := g.Edge(preds[0])
	require.True(t, ok)
	assert.Equal(t, entry.ID(), pe.Src())

	succs := g.Successors(task.ID())
	require.Len(t, succs, 1)
	se, ok := g.Edge(succs[0])
	require.True(t, ok)
	assert.Equal(t, b.ID(), se.Snk())
}

// TestSegment_LeavesColdLoopUnsegmented confirms a self-loop whose anchor
// falls below MinAnchor is never wrapped into a task.
func TestSegment_LeavesColdLoopUnsegmented(t *testing.T) {
	g := core.New()
	entry := g.AddImaginaryNode()
	a, _ := g.AddControlNode(core.History{1})
	b, _ := g.AddControlNode(core.History{2})

	_, err := g.AddImaginaryEdge(entry.ID(), a.ID())
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(a.ID(), a.ID(), 3, 0.9)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(a.ID(), b.ID(), 1, 0.1)
	require.NoError(t, err)

	require.NoError(t, segment.Segment(g, segment.DefaultOptions()))

	assert.Equal(t, 3, g.NodeCount())
	assert.Empty(t, mlCycleNodes(t, g))
	an, ok := g.Node(a.ID())
	require.True(t, ok)
	assert.Equal(t, core.NodeControl, an.Kind())
}

// TestSegment_AcceptsTwoDisjointHotLoopsInOneRound builds two unrelated hot
// self-loops with no edges between them and checks that both are accepted
// as separate, independent tasks.
func TestSegment_AcceptsTwoDisjointHotLoopsInOneRound(t *testing.T) {
	g := core.New()
	entry := g.AddImaginaryNode()
	x, _ := g.AddControlNode(core.History{1})
	y, _ := g.AddControlNode(core.History{2})
	xExit, _ := g.AddControlNode(core.History{3})
	yExit, _ := g.AddControlNode(core.History{4})

	_, err := g.AddImaginaryEdge(entry.ID(), x.ID())
	require.NoError(t, err)
	_, err = g.AddImaginaryEdge(entry.ID(), y.ID())
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(x.ID(), x.ID(), 500, 0.95)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(x.ID(), xExit.ID(), 25, 0.05)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(y.ID(), y.ID(), 800, 0.98)
	require.NoError(t, err)
	_, err = g.AddConditionalEdge(y.ID(), yExit.ID(), 16, 0.02)
	require.NoError(t, err)

	require.NoError(t, segment.Segment(g, segment.DefaultOptions()))

	tasks := mlCycleNodes(t, g)
	require.Len(t, tasks, 2)
	gotSubgraphs := map[core.NodeID]struct{}{}
	for _, task := range tasks {
		require.Len(t, task.Subgraph(), 1)
		for n := range task.Subgraph() {
			gotSubgraphs[n] = struct{}{}
		}
		assert.Empty(t, task.Children())
	}
	assert.Equal(t, map[core.NodeID]struct{}{x.ID(): {}, y.ID(): {}}, gotSubgraphs)

	ids := map[core.TaskID]struct{}{}
	for _, task := range tasks {
		ids[task.TaskID()] = struct{}{}
	}
	assert.Len(t, ids, 2)
}
