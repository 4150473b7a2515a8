// Package dot renders a core.Graph as Graphviz DOT for visualization. It is
// a pure view — it never mutates the graph and participates in no
// algorithm — matching the "visualization" output named as an external
// collaborator.
package dot

import (
	"fmt"
	"io"

	"github.com/opcycle/taskgraph/core"
)

// Mode selects how much of a node's block history labels the node.
type Mode int

const (
	// Compact labels a node with its newest block only.
	Compact Mode = iota
	// FullHistory labels a node with its entire original-blocks history.
	FullHistory
)

// Write renders g to w as a directed DOT graph. Imaginary nodes are
// labeled VOID; Call/Return edges are dashed; Conditional edges are dotted
// and carry their weight.
func Write(w io.Writer, g *core.Graph, mode Mode) error {
	if _, err := fmt.Fprintln(w, "digraph taskgraph {"); err != nil {
		return err
	}
	fmt.Fprintln(w, `  rankdir="LR";`)
	fmt.Fprintln(w, `  node [shape=box, fontname="Helvetica"];`)
	fmt.Fprintln(w, `  edge [fontname="Helvetica", fontsize=10];`)

	for _, nid := range g.Nodes() {
		n, ok := g.Node(nid)
		if !ok {
			continue
		}
		if err := writeNode(w, n, mode); err != nil {
			return err
		}
	}
	for _, eid := range g.Edges() {
		e, ok := g.Edge(eid)
		if !ok {
			continue
		}
		if err := writeEdge(w, e); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func writeNode(w io.Writer, n *core.Node, mode Mode) error {
	label := nodeLabel(n, mode)
	attrs := fmt.Sprintf(`label="%s"`, escape(label))
	switch n.Kind() {
	case core.NodeImaginary:
		attrs += `, shape=ellipse, style=dashed`
	case core.NodeMLCycle:
		attrs += `, style=filled, fillcolor="#d7e8ff"`
	case core.NodeVirtual:
		attrs += `, style=filled, fillcolor="#eeeeee"`
	}
	_, err := fmt.Fprintf(w, "  n%d [%s];\n", n.ID(), attrs)
	return err
}

func nodeLabel(n *core.Node, mode Mode) string {
	if n.Kind() == core.NodeImaginary {
		return "VOID"
	}
	if n.Kind() == core.NodeMLCycle {
		if l := n.Label(); l != "" {
			return l
		}
		return fmt.Sprintf("task %d", n.TaskID())
	}
	if n.Kind() != core.NodeControl {
		return fmt.Sprintf("virtual %d", n.ID())
	}
	if mode == FullHistory {
		return fmt.Sprintf("%v", n.OriginalBlocks())
	}
	blocks := n.OriginalBlocks()
	if len(blocks) == 0 {
		return "?"
	}
	return fmt.Sprintf("%d", blocks[len(blocks)-1])
}

func writeEdge(w io.Writer, e *core.Edge) error {
	style := ""
	label := ""
	switch e.Kind() {
	case core.EdgeCall, core.EdgeReturn:
		style = "dashed"
	case core.EdgeConditional:
		style = "dotted"
		label = fmt.Sprintf("%.3f", e.Weight())
	case core.EdgeImaginary:
		style = "dotted"
	}

	var attrs []string
	if style != "" {
		attrs = append(attrs, fmt.Sprintf("style=%s", style))
	}
	if label != "" {
		attrs = append(attrs, fmt.Sprintf(`label="%s"`, label))
	}

	attrStr := ""
	if len(attrs) > 0 {
		attrStr = " [" + join(attrs) + "]"
	}
	_, err := fmt.Fprintf(w, "  n%d -> n%d%s;\n", e.Src(), e.Snk(), attrStr)
	return err
}

func join(attrs []string) string {
	out := attrs[0]
	for _, a := range attrs[1:] {
		out += ", " + a
	}
	return out
}

func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
