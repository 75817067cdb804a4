// Package schema holds the static schema field index the explorer is built
// on, and the offline tools that produce it from an introspection result or
// an SDL document.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/types"
)

// FieldDefinition describes one field of a schema type.
type FieldDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // GraphQL type string, e.g. "[books!]!"
	Description string `json:"description"`
	HasArgs     bool   `json:"hasArgs"`
}

// Index maps a type name to its field list. It is immutable once built.
type Index struct {
	types map[string][]FieldDefinition

	// Scalars overrides the scalar base type names. Nil means
	// types.ScalarTypes.
	Scalars []string
}

// NewIndex creates an index over the given type map. The map is copied.
func NewIndex(fields map[string][]FieldDefinition) *Index {
	idx := &Index{types: make(map[string][]FieldDefinition, len(fields))}
	for name, defs := range fields {
		idx.types[name] = slices.Clone(defs)
	}
	return idx
}

// Load reads a schema-fields JSON document (type name -> field list).
func Load(r io.Reader) (*Index, error) {
	var fields map[string][]FieldDefinition
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode schema fields: %w", err)
	}
	return NewIndex(fields), nil
}

// LoadFile reads a schema-fields JSON file.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema fields: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Save writes the index as indented JSON.
func (i *Index) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(i.types)
}

// QueryTypes returns every indexed type name, sorted.
func (i *Index) QueryTypes() []string {
	names := make([]string, 0, len(i.types))
	for name := range i.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether typeName is indexed.
func (i *Index) Has(typeName string) bool {
	_, ok := i.types[typeName]
	return ok
}

// Fields returns the fields of typeName, or nil when it is unknown.
func (i *Index) Fields(typeName string) []FieldDefinition {
	return i.types[typeName]
}

// Len returns the number of indexed types.
func (i *Index) Len() int {
	return len(i.types)
}

// IsScalar reports whether the base type of t is a scalar for this index.
func (i *Index) IsScalar(t string) bool {
	scalars := i.Scalars
	if scalars == nil {
		scalars = types.ScalarTypes
	}
	return slices.Contains(scalars, BaseType(t))
}

// HasNestedFields reports whether t refers to an object type present in the
// index.
func (i *Index) HasNestedFields(t string) bool {
	base := BaseType(t)
	return !i.IsScalar(base) && i.Has(base)
}

var typeWrappers = strings.NewReplacer("!", "", "[", "", "]", "")

// BaseType strips list and non-null wrappers: "[books!]!" -> "books".
func BaseType(t string) string {
	return typeWrappers.Replace(t)
}

// IsArrayType reports whether t is a list type.
func IsArrayType(t string) bool {
	return strings.Contains(t, "[")
}

// serverType reports whether name is added by the server rather than the
// schema author (introspection and federation types).
func serverType(name string) bool {
	return strings.HasPrefix(name, types.ServerTypePrefix)
}

// IsScalarType reports whether the base type of t is one of
// types.ScalarTypes.
func IsScalarType(t string) bool {
	return slices.Contains(types.ScalarTypes, BaseType(t))
}
