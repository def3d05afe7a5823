package production

import (
	"bytes"
	"fmt"

	"github.com/comalice/focusx"
)

// DOTVisualizer renders the focus chart as Graphviz DOT.
type DOTVisualizer struct{}

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
}

// ExportDOT generates DOT source for c. States listed in active are highlighted;
// counts, if non-nil, annotates each state with how many entities are in it.
func (v *DOTVisualizer) ExportDOT(c *focusx.Chart, active []focusx.StateID, counts map[focusx.StateID]int) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph FocusChart {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	on := make(map[focusx.StateID]bool, len(active))
	for _, id := range active {
		on[id] = true
	}

	for _, s := range c.States() {
		label := s.ID.String()
		if counts != nil {
			label = fmt.Sprintf("%s (%d)", label, counts[s.ID])
		}
		style := ""
		if on[s.ID] {
			style = ` style="rounded,filled" fillcolor=lightgreen`
		}
		if s.ID == c.Initial() {
			style += ` peripheries=2`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", s.ID.String(), label, style)
	}

	for _, e := range collectEdges(c) {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportDispatcher renders d's chart with the live entity count per state.
func (v *DOTVisualizer) ExportDispatcher(d *focusx.Dispatcher) string {
	counts := map[focusx.StateID]int{}
	var active []focusx.StateID
	for _, f := range d.Registry().Entities() {
		if counts[f.State()] == 0 {
			active = append(active, f.State())
		}
		counts[f.State()]++
	}
	return v.ExportDOT(d.Chart(), active, counts)
}

// collectEdges collects all transitions. Internal transitions loop back to
// their source and guarded ones are marked with [guard].
func collectEdges(c *focusx.Chart) []Edge {
	var edges []Edge
	for _, s := range c.States() {
		for _, t := range s.Transitions {
			if t == nil {
				continue
			}
			to := s.ID
			if t.Target != nil {
				to = t.Target.ID
			}
			label := t.Event.String()
			if t.Guard != nil {
				label += " [guard]"
			}
			if t.Target == nil {
				label += " (internal)"
			}
			edges = append(edges, Edge{From: s.ID.String(), To: to.String(), Label: label})
		}
	}
	return edges
}
