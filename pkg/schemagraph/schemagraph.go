// Package schemagraph derives the relationship graph around one schema type
// from the field index: the type itself, the types it points to, the types
// pointing at it and, optionally, its scalar columns.
package schemagraph

import (
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
	"github.com/hardcoverapp/hardcover-explorer/types"
)

type NodeKind string

const (
	Primary NodeKind = "primary"
	Related NodeKind = "related"
	Scalar  NodeKind = "scalar"
)

type Direction string

const (
	Incoming      Direction = "incoming"
	Outgoing      Direction = "outgoing"
	Bidirectional Direction = "bidirectional"
)

type RelationshipKind string

const (
	ObjectRelationship RelationshipKind = "object"
	ArrayRelationship  RelationshipKind = "array"
)

// Node is a type or a scalar column in the graph.
type Node struct {
	ID        string
	Label     string
	Kind      NodeKind
	FieldType string // scalar nodes only

	// RelationDirection is set on related nodes, relative to the primary
	// type.
	RelationDirection Direction
}

// Edge is a field linking two nodes. Label is the field name, or the field
// type for scalar edges.
type Edge struct {
	Source           string
	Target           string
	Label            string
	RelationshipKind RelationshipKind
	Direction        Direction
}

// Graph is the neighbourhood of one type. It is recomputed on demand.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Options selects optional parts of the graph.
type Options struct {
	IncludeScalars  bool
	IncludeIncoming bool
}

// DefaultOptions includes incoming relationships but no scalar columns.
func DefaultOptions() Options {
	return Options{IncludeIncoming: true}
}

// Generate builds the graph around typeName. An unknown type yields an
// empty graph.
func Generate(idx *schema.Index, typeName string, opts Options) Graph {
	if !idx.Has(typeName) {
		return Graph{}
	}
	fields := idx.Fields(typeName)

	g := Graph{Nodes: []Node{{ID: typeName, Label: typeName, Kind: Primary}}}
	g.Edges = outgoing(idx, typeName, fields)
	if opts.IncludeIncoming {
		g.Edges = append(g.Edges, incoming(idx, typeName)...)
	}

	var order []string
	seen := map[string]map[Direction]bool{}
	mark := func(id string, d Direction) {
		if seen[id] == nil {
			seen[id] = map[Direction]bool{}
			order = append(order, id)
		}
		seen[id][d] = true
	}
	for _, e := range g.Edges {
		if e.Target != typeName {
			mark(e.Target, Outgoing)
		}
		if e.Source != typeName && e.Direction == Incoming {
			mark(e.Source, Incoming)
		}
	}
	for _, id := range order {
		d := Outgoing
		switch {
		case seen[id][Incoming] && seen[id][Outgoing]:
			d = Bidirectional
		case seen[id][Incoming]:
			d = Incoming
		}
		g.Nodes = append(g.Nodes, Node{ID: id, Label: id, Kind: Related, RelationDirection: d})
	}

	if opts.IncludeScalars {
		for _, f := range fields {
			if f.Type == "" || f.HasArgs || !idx.IsScalar(f.Type) {
				continue
			}
			id := typeName + "_" + f.Name
			g.Nodes = append(g.Nodes, Node{
				ID:        id,
				Label:     f.Name,
				Kind:      Scalar,
				FieldType: schema.BaseType(f.Type),
			})
			g.Edges = append(g.Edges, Edge{
				Source:           typeName,
				Target:           id,
				Label:            f.Type,
				RelationshipKind: ObjectRelationship,
				Direction:        Outgoing,
			})
		}
	}
	return g
}

func kindOf(fieldType string) RelationshipKind {
	if schema.IsArrayType(fieldType) {
		return ArrayRelationship
	}
	return ObjectRelationship
}

// outgoing finds relationship fields of typeName. Hasura marks them in the
// description; otherwise any non-scalar field whose type is indexed counts.
func outgoing(idx *schema.Index, typeName string, fields []schema.FieldDefinition) []Edge {
	var edges []Edge
	for _, f := range fields {
		e := Edge{
			Source:    typeName,
			Target:    schema.BaseType(f.Type),
			Label:     f.Name,
			Direction: Outgoing,
		}
		switch {
		case strings.Contains(f.Description, types.ObjectRelationshipMarker):
			e.RelationshipKind = ObjectRelationship
		case strings.Contains(f.Description, types.ArrayRelationshipMarker):
			e.RelationshipKind = ArrayRelationship
		case f.Type != "" && !idx.IsScalar(f.Type) && idx.Has(e.Target):
			e.RelationshipKind = kindOf(f.Type)
		default:
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// incoming finds fields of every other indexed type whose base type is
// typeName.
func incoming(idx *schema.Index, typeName string) []Edge {
	var edges []Edge
	for _, source := range idx.QueryTypes() {
		if source == typeName {
			continue
		}
		for _, f := range idx.Fields(source) {
			if schema.BaseType(f.Type) != typeName {
				continue
			}
			edges = append(edges, Edge{
				Source:           source,
				Target:           typeName,
				Label:            f.Name,
				RelationshipKind: kindOf(f.Type),
				Direction:        Incoming,
			})
		}
	}
	return edges
}
