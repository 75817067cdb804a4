package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	graphql "github.com/hardcoverapp/hardcover-explorer"
	"github.com/hardcoverapp/hardcover-explorer/types"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// IntrospectionQuery is the standard GraphQL introspection query with
// the TypeRef fragment for deeply nested NON_NULL/LIST wrapping (7 levels).
const IntrospectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
    isDeprecated
    deprecationReason
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
            }
          }
        }
      }
    }
  }
}
`

// Introspection is the __schema object of an introspection result.
type Introspection struct {
	QueryType        *NamedRef  `json:"queryType"`
	MutationType     *NamedRef  `json:"mutationType"`
	SubscriptionType *NamedRef  `json:"subscriptionType"`
	Types            []FullType `json:"types"`
}

// NamedRef references a root operation type.
type NamedRef struct {
	Name string `json:"name"`
}

// FullType is a complete type from the introspection schema.
type FullType struct {
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Fields        []Field      `json:"fields"`
	InputFields   []InputValue `json:"inputFields"`
	Interfaces    []TypeRef    `json:"interfaces"`
	EnumValues    []EnumValue  `json:"enumValues"`
	PossibleTypes []TypeRef    `json:"possibleTypes"`
}

// Field is a field on an OBJECT or INTERFACE type.
type Field struct {
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Args              []InputValue `json:"args"`
	Type              TypeRef      `json:"type"`
	IsDeprecated      bool         `json:"isDeprecated"`
	DeprecationReason string       `json:"deprecationReason"`
}

// InputValue is a field argument or input object field.
type InputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Type         TypeRef `json:"type"`
	DefaultValue *string `json:"defaultValue"`
}

// EnumValue is one value of an ENUM type.
type EnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason"`
}

// TypeRef is a possibly wrapped type reference.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

// astType converts the reference into a gqlparser type so it can be
// printed in SDL notation.
func (r *TypeRef) astType() *ast.Type {
	if r == nil {
		return &ast.Type{}
	}
	switch r.Kind {
	case "NON_NULL":
		if r.OfType == nil {
			return &ast.Type{NamedType: r.Name}
		}
		t := r.OfType.astType()
		t.NonNull = true
		return t
	case "LIST":
		return &ast.Type{Elem: r.OfType.astType()}
	default:
		return &ast.Type{NamedType: r.Name}
	}
}

// String renders the reference the way SDL does: "[books!]!".
func (r *TypeRef) String() string {
	return r.astType().String()
}

// ParseIntrospection decodes an introspection result. Both the full
// response ({"data":{"__schema":...}}) and the bare data object
// ({"__schema":...}) are accepted.
func ParseIntrospection(data []byte) (*Introspection, error) {
	var payload struct {
		Data *struct {
			Schema *Introspection `json:"__schema"`
		} `json:"data"`
		Schema *Introspection `json:"__schema"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode introspection result: %w", err)
	}
	switch {
	case payload.Schema != nil:
		return payload.Schema, nil
	case payload.Data != nil && payload.Data.Schema != nil:
		return payload.Data.Schema, nil
	}
	return nil, errors.New("introspection result has no __schema")
}

// Fetch runs the introspection query against the client's endpoint and
// returns the raw data object.
func Fetch(ctx context.Context, client *graphql.Client) ([]byte, error) {
	data, err := client.ExecRaw(ctx, IntrospectionQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("introspection request: %w", err)
	}
	return data, nil
}

// Extractor builds an Index from a full schema description.
type Extractor struct {
	// TypeNames selects the types to extract. Empty means every
	// OBJECT type the schema author defined.
	TypeNames []string

	Logger *slog.Logger
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// FromIntrospection extracts field definitions from an introspection
// result.
func (e *Extractor) FromIntrospection(data []byte) (*Index, error) {
	in, err := ParseIntrospection(data)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*FullType, len(in.Types))
	var objects []string
	for i := range in.Types {
		t := &in.Types[i]
		byName[t.Name] = t
		if t.Kind == string(ast.Object) && !serverType(t.Name) {
			objects = append(objects, t.Name)
		}
	}

	names := e.TypeNames
	if len(names) == 0 {
		sort.Strings(objects)
		names = objects
	}

	fields := make(map[string][]FieldDefinition, len(names))
	for _, name := range names {
		t, ok := byName[name]
		if !ok || t.Kind != string(ast.Object) {
			e.logger().Warn("type not found or is not an object type", "type", name)
			continue
		}
		defs := make([]FieldDefinition, 0, len(t.Fields))
		for _, f := range t.Fields {
			defs = append(defs, FieldDefinition{
				Name:        f.Name,
				Type:        f.Type.String(),
				Description: f.Description,
				HasArgs:     len(f.Args) > 0,
			})
		}
		fields[name] = defs
	}

	e.logger().Info("extracted schema fields", "types", len(fields))
	return NewIndex(fields), nil
}

// IntrospectionToSDL prints an introspection result as an SDL document.
func IntrospectionToSDL(data []byte) (string, error) {
	in, err := ParseIntrospection(data)
	if err != nil {
		return "", err
	}

	doc := &ast.SchemaDocument{}

	var ops ast.OperationTypeDefinitionList
	if in.QueryType != nil {
		ops = append(ops, &ast.OperationTypeDefinition{Operation: ast.Query, Type: in.QueryType.Name})
	}
	if in.MutationType != nil {
		ops = append(ops, &ast.OperationTypeDefinition{Operation: ast.Mutation, Type: in.MutationType.Name})
	}
	if in.SubscriptionType != nil {
		ops = append(ops, &ast.OperationTypeDefinition{Operation: ast.Subscription, Type: in.SubscriptionType.Name})
	}
	if len(ops) > 0 {
		doc.Schema = ast.SchemaDefinitionList{&ast.SchemaDefinition{OperationTypes: ops}}
	}

	for _, t := range in.Types {
		if strings.HasPrefix(t.Name, types.IntrospectionPrefix) || isBuiltinScalar(t) {
			continue
		}
		doc.Definitions = append(doc.Definitions, definition(t))
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String(), nil
}

func isBuiltinScalar(t FullType) bool {
	if t.Kind != string(ast.Scalar) {
		return false
	}
	switch t.Name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	}
	return false
}

func definition(t FullType) *ast.Definition {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(t.Kind),
		Name:        t.Name,
		Description: t.Description,
	}
	for _, f := range t.Fields {
		fd := &ast.FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        f.Type.astType(),
		}
		for _, a := range f.Args {
			fd.Arguments = append(fd.Arguments, argument(a))
		}
		def.Fields = append(def.Fields, fd)
	}
	for _, in := range t.InputFields {
		arg := argument(in)
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         arg.Type,
			DefaultValue: arg.DefaultValue,
		})
	}
	for _, i := range t.Interfaces {
		def.Interfaces = append(def.Interfaces, i.Name)
	}
	for _, p := range t.PossibleTypes {
		if def.Kind == ast.Union {
			def.Types = append(def.Types, p.Name)
		}
	}
	for _, v := range t.EnumValues {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
			Name:        v.Name,
			Description: v.Description,
		})
	}
	return def
}

func argument(in InputValue) *ast.ArgumentDefinition {
	arg := &ast.ArgumentDefinition{
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type.astType(),
	}
	// Introspection reports defaults as GraphQL literals; print them verbatim.
	if in.DefaultValue != nil {
		arg.DefaultValue = &ast.Value{Kind: ast.EnumValue, Raw: *in.DefaultValue}
	}
	return arg
}
