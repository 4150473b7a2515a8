package reverse

import "github.com/opcycle/taskgraph/core"

// Mode selects how far Expand unwinds Virtual/MLCycle nodes.
type Mode int

const (
	// Full expands every Virtual and MLCycle node, leaving only
	// Control/Imaginary nodes and the original classified edges.
	Full Mode = iota
	// UpToTask expands Virtual nodes but stops at the parent-most MLCycle
	// layer, keeping task nodes opaque.
	UpToTask
)

// View names the NodeIDs and EdgeIDs a reverse expansion surfaces. Every ID
// it names resolves through g.ArchivedNode/g.ArchivedEdge on the Graph the
// view was built from, live or archived.
type View struct {
	Nodes map[core.NodeID]struct{}
	Edges map[core.EdgeID]struct{}
}
