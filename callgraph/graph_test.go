package callgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcycle/taskgraph/callgraph"
	"github.com/opcycle/taskgraph/core"
	"github.com/opcycle/taskgraph/internal/irtest"
	"github.com/opcycle/taskgraph/ir"
)

func TestBuild_DirectRecursion(t *testing.T) {
	prov := irtest.NewFake()
	fMain := prov.AddFunction("main")
	fRec := prov.AddFunction("rec")
	bCallSite := prov.AddBlock(fMain)
	bCallee := prov.AddBlock(fRec)

	g := core.New()
	callerNode, _ := g.AddControlNode(core.History{bCallSite})
	calleeNode, _ := g.AddControlNode(core.History{bCallee})
	_, err := g.AddCallEdge(callerNode.ID(), calleeNode.ID(), 1, 1, &core.Returns{
		CallerNode: callerNode.ID(),
		FunctionID: fRec,
	})
	require.NoError(t, err)
	// second call site within fRec itself (self recursion)
	callerNode2, _ := g.AddControlNode(core.History{bCallee})
	_, err = g.AddCallEdge(callerNode2.ID(), calleeNode.ID(), 1, 1, &core.Returns{
		CallerNode: callerNode2.ID(),
		FunctionID: fRec,
	})
	require.NoError(t, err)

	cg, err := callgraph.Build(g, prov)
	require.NoError(t, err)
	assert.True(t, cg.DirectRecursion(fRec))
	assert.False(t, cg.DirectRecursion(fMain))
}

func TestRecursiveGroups_IndirectCycle(t *testing.T) {
	prov := irtest.NewFake()
	fA := prov.AddFunction("a")
	fB := prov.AddFunction("b")
	bA := prov.AddBlock(fA)
	bB := prov.AddBlock(fB)

	g := core.New()
	nA, _ := g.AddControlNode(core.History{bA})
	nB, _ := g.AddControlNode(core.History{bB})
	_, err := g.AddCallEdge(nA.ID(), nB.ID(), 1, 1, &core.Returns{CallerNode: nA.ID(), FunctionID: fB})
	require.NoError(t, err)
	_, err = g.AddCallEdge(nB.ID(), nA.ID(), 1, 1, &core.Returns{CallerNode: nB.ID(), FunctionID: fA})
	require.NoError(t, err)

	cg, err := callgraph.Build(g, prov)
	require.NoError(t, err)
	assert.True(t, cg.IndirectRecursion(fA))
	groups := cg.RecursiveGroups()
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []ir.FunctionID{fA, fB}, groups[0])
}
