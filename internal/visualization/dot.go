// Package visualization renders journaled runs in graph formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/election"
	"github.com/nvandessel/bionet/internal/store"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown graph format %q (valid: dot, json)", s)
	}
}

// statusColors maps cell statuses to DOT fill colors.
var statusColors = map[cell.Status]string{
	election.StatusWinner:    "gold",
	election.StatusLooser:    "lightsteelblue",
	election.StatusCompeting: "lightgray",
}

// RenderDOT produces an undirected Graphviz DOT graph of a run's final
// topology, with cells colored by status.
func RenderDOT(rec store.RunRecord) string {
	var b strings.Builder
	b.WriteString("graph bionet {\n")
	if rec.ID != "" {
		fmt.Fprintf(&b, "  label=%q;\n", "run "+rec.ID)
	}
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\"];\n\n")

	for _, c := range rec.Statuses {
		color := statusColors[c.Status]
		if color == "" {
			color = "white"
		}
		fmt.Fprintf(&b, "  %d [fillcolor=%q, tooltip=%q];\n", c.ID, color, string(c.Status))
	}
	if len(rec.Topology) > 0 {
		b.WriteString("\n")
	}
	for _, e := range rec.Topology {
		fmt.Fprintf(&b, "  %d -- %d;\n", e.A, e.B)
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a node-link representation of a run for graph
// viewers.
func RenderJSON(rec store.RunRecord) map[string]interface{} {
	nodes := make([]map[string]interface{}, 0, len(rec.Statuses))
	for _, c := range rec.Statuses {
		nodes = append(nodes, map[string]interface{}{
			"id":     c.ID,
			"status": string(c.Status),
		})
	}

	links := make([]map[string]interface{}, 0, len(rec.Topology))
	for _, e := range rec.Topology {
		links = append(links, map[string]interface{}{
			"source": e.A,
			"target": e.B,
		})
	}

	return map[string]interface{}{
		"run_id":     rec.ID,
		"nodes":      nodes,
		"links":      links,
		"node_count": len(nodes),
		"link_count": len(links),
	}
}
