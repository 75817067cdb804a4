package schemagraph

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardcoverapp/hardcover-explorer/internal/testutil"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
)

func bookIndex(t *testing.T) *schema.Index {
	t.Helper()
	idx, err := (&schema.Extractor{Logger: testutil.NewTestLogger(t)}).FromSDL("books.graphql", testutil.BookSchema)
	require.NoError(t, err)
	return idx
}

func TestGenerate(t *testing.T) {
	g := Generate(bookIndex(t), "books", DefaultOptions())

	assert.Equal(t, []Node{
		{ID: "books", Label: "books", Kind: Primary},
		{ID: "contributions", Label: "contributions", Kind: Related, RelationDirection: Bidirectional},
		{ID: "editions", Label: "editions", Kind: Related, RelationDirection: Bidirectional},
		{ID: "query_root", Label: "query_root", Kind: Related, RelationDirection: Incoming},
	}, g.Nodes)

	assert.Equal(t, []Edge{
		{Source: "books", Target: "contributions", Label: "contributions", RelationshipKind: ArrayRelationship, Direction: Outgoing},
		{Source: "books", Target: "editions", Label: "default_edition", RelationshipKind: ObjectRelationship, Direction: Outgoing},
		{Source: "contributions", Target: "books", Label: "book", RelationshipKind: ObjectRelationship, Direction: Incoming},
		{Source: "editions", Target: "books", Label: "book", RelationshipKind: ObjectRelationship, Direction: Incoming},
		{Source: "query_root", Target: "books", Label: "books", RelationshipKind: ArrayRelationship, Direction: Incoming},
	}, g.Edges)
}

func TestGenerateOutgoingOnly(t *testing.T) {
	g := Generate(bookIndex(t), "books", Options{})
	require.Len(t, g.Nodes, 3)
	for _, n := range g.Nodes[1:] {
		assert.Equal(t, Outgoing, n.RelationDirection, n.ID)
	}
	for _, e := range g.Edges {
		assert.Equal(t, "books", e.Source)
	}
}

func TestGenerateScalars(t *testing.T) {
	g := Generate(bookIndex(t), "books", Options{IncludeScalars: true})

	var scalars []Node
	for _, n := range g.Nodes {
		if n.Kind == Scalar {
			scalars = append(scalars, n)
		}
	}
	require.Len(t, scalars, 6)
	assert.Equal(t, Node{ID: "books_id", Label: "id", Kind: Scalar, FieldType: "Int"}, scalars[0])

	last := g.Edges[len(g.Edges)-1]
	assert.Equal(t, Edge{
		Source: "books", Target: "books_cached_tags", Label: "String",
		RelationshipKind: ObjectRelationship, Direction: Outgoing,
	}, last)
}

func TestGenerateTypePattern(t *testing.T) {
	idx := schema.NewIndex(map[string][]schema.FieldDefinition{
		"lists": {
			{Name: "id", Type: "Int!"},
			{Name: "list_books", Type: "[list_books!]!"},
			{Name: "parent", Type: "lists"},
			{Name: "owner", Type: "unknown_type"},
			{Name: "search", Type: "[list_books!]!", HasArgs: true},
		},
		"list_books": {{Name: "id", Type: "Int!"}},
	})
	g := Generate(idx, "lists", Options{IncludeScalars: true})

	related, ok := g.Node("list_books")
	require.True(t, ok)
	assert.Equal(t, Outgoing, related.RelationDirection)
	_, ok = g.Node("unknown_type")
	assert.False(t, ok)

	labels := []string{}
	for _, e := range g.Edges {
		labels = append(labels, e.Label)
	}
	// The self reference is an edge but not a related node.
	assert.Equal(t, []string{"list_books", "parent", "search", "Int!"}, labels)
	assert.Len(t, g.Nodes, 3)
}

func TestGenerateUnknownType(t *testing.T) {
	g := Generate(bookIndex(t), "nope", DefaultOptions())
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestCytoscapeElements(t *testing.T) {
	g := Generate(bookIndex(t), "books", DefaultOptions())
	elements := CytoscapeElements(g)
	require.Len(t, elements, len(g.Nodes)+len(g.Edges))

	node, err := json.Marshal(elements[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":"books","label":"books","type":"primary"}}`, string(node))

	edge := elements[len(g.Nodes)].Data
	assert.Equal(t, "books-contributions-contributions", edge.ID)
	assert.Equal(t, ArrayRelationship, edge.RelationshipType)
	assert.Equal(t, Outgoing, edge.Direction)
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, Generate(bookIndex(t), "books", DefaultOptions())))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `digraph "books" {`), out)
	assert.Contains(t, out, `"books" -> "contributions" [label="contributions", arrowhead=crow];`)
	assert.Contains(t, out, `"contributions" -> "books" [label="book", style=dashed];`)
	assert.Contains(t, out, `"query_root" [label="query_root", fillcolor="#e2e8f0", color="#f97316", penwidth=2];`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}
