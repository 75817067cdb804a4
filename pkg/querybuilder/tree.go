// Package querybuilder turns the schema field index into a selectable
// field tree and serializes selections into GraphQL query documents.
//
// Trees are persistent: every operation that changes selection state
// returns a new tree and leaves the caller's tree untouched.
package querybuilder

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
	"github.com/hardcoverapp/hardcover-explorer/types"
)

// SelectedField is one node of a builder tree.
type SelectedField struct {
	Name     string
	Type     string
	Selected bool

	// Children is nil when the field was not expanded (scalar, unknown
	// type or beyond the depth cutoff). An expanded field always has a
	// non-nil slice.
	Children []SelectedField

	// Args holds per-field arguments. Not serialized by
	// GenerateQueryString.
	Args QueryArgs

	// Truncated marks relationship fields the depth cutoff stopped from
	// expanding. They can never be expanded later.
	Truncated bool
}

// Expanded reports whether the field has a child list.
func (f SelectedField) Expanded() bool {
	return f.Children != nil
}

// Builder creates default trees from a schema index.
type Builder struct {
	Index *schema.Index

	// MaxDepth bounds automatic expansion. Zero means
	// types.DefaultMaxDepth.
	MaxDepth int

	// ExcludedPatterns lists substrings of field names that are never
	// auto-selected. Nil means types.ExcludedFieldPatterns.
	ExcludedPatterns []string

	Logger *slog.Logger
}

// NewBuilder returns a Builder with default depth and exclusions.
func NewBuilder(index *schema.Index) *Builder {
	return &Builder{Index: index}
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func (b *Builder) maxDepth() int {
	if b.MaxDepth <= 0 {
		return types.DefaultMaxDepth
	}
	return b.MaxDepth
}

func (b *Builder) excluded(name string) bool {
	patterns := b.ExcludedPatterns
	if patterns == nil {
		patterns = types.ExcludedFieldPatterns
	}
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// DefaultTree builds the initial tree for rootType using the configured
// maximum depth.
func (b *Builder) DefaultTree(rootType string) []SelectedField {
	return b.DefaultTreeDepth(rootType, b.maxDepth())
}

// DefaultTreeDepth builds the initial tree for rootType, expanding
// relationship fields while the current depth is below maxDepth. Scalar
// fields are selected unless their name matches an excluded pattern.
func (b *Builder) DefaultTreeDepth(rootType string, maxDepth int) []SelectedField {
	return b.buildTree(rootType, maxDepth, 0)
}

func (b *Builder) buildTree(typeName string, maxDepth, depth int) []SelectedField {
	defs := b.Index.Fields(typeName)
	tree := make([]SelectedField, 0, len(defs))
	for _, def := range defs {
		base := schema.BaseType(def.Type)
		scalar := b.Index.IsScalar(base)

		field := SelectedField{
			Name:     def.Name,
			Type:     def.Type,
			Selected: scalar && !b.excluded(def.Name),
		}
		if !scalar && b.Index.HasNestedFields(base) {
			if depth < maxDepth {
				field.Children = b.buildTree(base, maxDepth, depth+1)
			} else {
				field.Truncated = true
			}
		}
		tree = append(tree, field)
	}
	return tree
}

// ToggleField returns a copy of tree with the node at path toggled. A nil
// value flips the current state; otherwise the state is set to *value.
// The new state cascades to every descendant, so toggling a node twice
// restores the tree only when its subtree was uniformly selected; a mixed
// subtree ends up fully unselected. An empty or unknown path returns the
// tree unchanged.
func ToggleField(tree []SelectedField, path []string, value *bool) []SelectedField {
	if len(path) == 0 {
		return tree
	}
	i := slices.IndexFunc(tree, func(f SelectedField) bool { return f.Name == path[0] })
	if i < 0 {
		return tree
	}

	field := tree[i]
	if len(path) == 1 {
		selected := !field.Selected
		if value != nil {
			selected = *value
		}
		field.Selected = selected
		if field.Children != nil {
			field.Children = setAll(field.Children, selected)
		}
	} else {
		if field.Children == nil {
			return tree
		}
		children := ToggleField(field.Children, path[1:], value)
		if sameBacking(children, field.Children) {
			return tree
		}
		field.Children = children
	}

	out := slices.Clone(tree)
	out[i] = field
	return out
}

func sameBacking(a, b []SelectedField) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

func setAll(tree []SelectedField, selected bool) []SelectedField {
	out := make([]SelectedField, len(tree))
	for i, f := range tree {
		f.Selected = selected
		if f.Children != nil {
			f.Children = setAll(f.Children, selected)
		}
		out[i] = f
	}
	return out
}

// SelectFieldsByNames returns a copy of tree where a node is selected
// exactly when its name is in names, at any depth.
func SelectFieldsByNames(tree []SelectedField, names []string) []SelectedField {
	out := make([]SelectedField, len(tree))
	for i, f := range tree {
		f.Selected = slices.Contains(names, f.Name)
		if f.Children != nil {
			f.Children = SelectFieldsByNames(f.Children, names)
		}
		out[i] = f
	}
	return out
}

// CountSelectedFields counts selected nodes at every depth.
func CountSelectedFields(tree []SelectedField) int {
	n := 0
	for _, f := range tree {
		if f.Selected {
			n++
		}
		n += CountSelectedFields(f.Children)
	}
	return n
}

// HasSelectedDescendant reports whether any node below f is selected.
func HasSelectedDescendant(f SelectedField) bool {
	for _, c := range f.Children {
		if c.Selected || HasSelectedDescendant(c) {
			return true
		}
	}
	return false
}

// Find returns the node at path.
func Find(tree []SelectedField, path []string) (SelectedField, bool) {
	if len(path) == 0 {
		return SelectedField{}, false
	}
	for _, f := range tree {
		if f.Name != path[0] {
			continue
		}
		if len(path) == 1 {
			return f, true
		}
		return Find(f.Children, path[1:])
	}
	return SelectedField{}, false
}
