package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/types"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// FromSDL extracts field definitions from an SDL document.
func (e *Extractor) FromSDL(name, sdl string) (*Index, error) {
	source := &ast.Source{
		Name:  name,
		Input: sdl,
	}

	s, gqlErr := gqlparser.LoadSchema(source)
	if gqlErr != nil {
		return nil, fmt.Errorf("parse GraphQL schema: %w", gqlErr)
	}

	names := e.TypeNames
	if len(names) == 0 {
		for typeName, def := range s.Types {
			if def.Kind == ast.Object && !def.BuiltIn && !serverType(typeName) {
				names = append(names, typeName)
			}
		}
		sort.Strings(names)
	}

	fields := make(map[string][]FieldDefinition, len(names))
	for _, typeName := range names {
		def, ok := s.Types[typeName]
		if !ok || def.Kind != ast.Object {
			e.logger().Warn("type not found or is not an object type", "type", typeName)
			continue
		}
		defs := make([]FieldDefinition, 0, len(def.Fields))
		for _, f := range def.Fields {
			// gqlparser adds __schema, __type and __typename to object types.
			if strings.HasPrefix(f.Name, types.IntrospectionPrefix) {
				continue
			}
			defs = append(defs, FieldDefinition{
				Name:        f.Name,
				Type:        f.Type.String(),
				Description: f.Description,
				HasArgs:     len(f.Arguments) > 0,
			})
		}
		fields[typeName] = defs
	}

	e.logger().Info("extracted schema fields", "types", len(fields))
	return NewIndex(fields), nil
}
