package schemagraph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// ElementData is the data object of a Cytoscape.js element. Node elements
// leave the edge fields empty and the reverse.
type ElementData struct {
	ID                string           `json:"id"`
	Label             string           `json:"label"`
	Type              NodeKind         `json:"type,omitempty"`
	FieldType         string           `json:"fieldType,omitempty"`
	RelationDirection Direction        `json:"relationDirection,omitempty"`
	Source            string           `json:"source,omitempty"`
	Target            string           `json:"target,omitempty"`
	RelationshipType  RelationshipKind `json:"relationshipType,omitempty"`
	Direction         Direction        `json:"direction,omitempty"`
}

// Element is a Cytoscape.js element.
type Element struct {
	Data ElementData `json:"data"`
}

// CytoscapeElements converts g to Cytoscape.js elements, nodes first. Edge
// ids are "source-target-label".
func CytoscapeElements(g Graph) []Element {
	elements := make([]Element, 0, len(g.Nodes)+len(g.Edges))
	for _, n := range g.Nodes {
		elements = append(elements, Element{Data: ElementData{
			ID:                n.ID,
			Label:             n.Label,
			Type:              n.Kind,
			FieldType:         n.FieldType,
			RelationDirection: n.RelationDirection,
		}})
	}
	for _, e := range g.Edges {
		elements = append(elements, Element{Data: ElementData{
			ID:               e.Source + "-" + e.Target + "-" + e.Label,
			Label:            e.Label,
			Source:           e.Source,
			Target:           e.Target,
			RelationshipType: e.RelationshipKind,
			Direction:        e.Direction,
		}})
	}
	return elements
}

var nodeColors = map[NodeKind]string{
	Primary: "#6366f1",
	Related: "#e2e8f0",
	Scalar:  "#fef3c7",
}

var directionColors = map[Direction]string{
	Incoming:      "#f97316",
	Outgoing:      "#3b82f6",
	Bidirectional: "#8b5cf6",
}

// WriteDOT writes g as a Graphviz digraph. Array relationships get a crow
// arrowhead and incoming edges are dashed.
func WriteDOT(w io.Writer, g Graph) error {
	bw := bufio.NewWriter(w)
	name := "schema"
	if len(g.Nodes) > 0 {
		name = g.Nodes[0].ID
	}

	_, _ = fmt.Fprintf(bw, "digraph %s {\n", strconv.Quote(name))
	_, _ = fmt.Fprintln(bw, "  rankdir=LR;")
	_, _ = fmt.Fprintln(bw, `  node [shape=box, style="rounded,filled", fontname="Helvetica"];`)
	_, _ = fmt.Fprintln(bw, `  edge [fontname="Helvetica", fontsize=10];`)

	for _, n := range g.Nodes {
		attrs := fmt.Sprintf("label=%s, fillcolor=%q", strconv.Quote(n.Label), nodeColors[n.Kind])
		switch n.Kind {
		case Primary:
			attrs += `, fontcolor="white"`
		case Related:
			attrs += fmt.Sprintf(", color=%q, penwidth=2", directionColors[n.RelationDirection])
		case Scalar:
			attrs = fmt.Sprintf("label=%s, fillcolor=%q, shape=ellipse",
				strconv.Quote(n.Label+": "+n.FieldType), nodeColors[n.Kind])
		}
		_, _ = fmt.Fprintf(bw, "  %s [%s];\n", strconv.Quote(n.ID), attrs)
	}

	for _, e := range g.Edges {
		attrs := "label=" + strconv.Quote(e.Label)
		if e.RelationshipKind == ArrayRelationship {
			attrs += ", arrowhead=crow"
		}
		if e.Direction == Incoming {
			attrs += ", style=dashed"
		}
		_, _ = fmt.Fprintf(bw, "  %s -> %s [%s];\n", strconv.Quote(e.Source), strconv.Quote(e.Target), attrs)
	}

	_, _ = fmt.Fprintln(bw, "}")
	return bw.Flush()
}
