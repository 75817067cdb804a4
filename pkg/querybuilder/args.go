package querybuilder

import (
	"fmt"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
	"github.com/hardcoverapp/hardcover-explorer/types"
)

// QueryArgs is an ordered argument list. Values may be strings, Go numbers,
// json.Number, bools, nested QueryArgs or map[string]any, and []any.
type QueryArgs = jsonutil.Object

// ArgKind describes the editor used for an argument.
type ArgKind string

const (
	ArgNumber ArgKind = "number"
	ArgObject ArgKind = "object"
)

// CommonArg is an argument every Hasura root field accepts.
type CommonArg struct {
	Name string
	Kind ArgKind
}

// CommonArgs returns the Hasura arguments offered for any root type.
func CommonArgs() []CommonArg {
	return []CommonArg{
		{Name: "limit", Kind: ArgNumber},
		{Name: "offset", Kind: ArgNumber},
		{Name: "order_by", Kind: ArgObject},
		{Name: "where", Kind: ArgObject},
	}
}

// LimitOptions are the limit values offered in the basic editor.
var LimitOptions = []int{1, 5, 10, 20}

// DefaultArgs returns the arguments a new builder session starts with.
func DefaultArgs() QueryArgs {
	return QueryArgs{{Key: "limit", Value: types.DefaultLimit}}
}

// WhereOperator is a comparison operator usable inside a where clause.
type WhereOperator struct {
	Value string
	Label string
}

// DefaultWhereOperator is preselected when a where condition is added.
const DefaultWhereOperator = "_eq"

// WhereOperators lists the supported where comparison operators.
var WhereOperators = []WhereOperator{
	{Value: "_eq", Label: "equals"},
	{Value: "_neq", Label: "not equals"},
	{Value: "_gt", Label: "greater than"},
	{Value: "_gte", Label: "greater than or equal"},
	{Value: "_lt", Label: "less than"},
	{Value: "_lte", Label: "less than or equal"},
	{Value: "_like", Label: "like"},
	{Value: "_ilike", Label: "like (case insensitive)"},
	{Value: "_in", Label: "in"},
	{Value: "_nin", Label: "not in"},
}

// Where builds a single-condition where argument: {field: {op: value}}.
func Where(field, op string, value any) QueryArgs {
	return QueryArgs{{Key: field, Value: QueryArgs{{Key: op, Value: value}}}}
}

// OrderBy builds a single-field order_by argument.
func OrderBy(field, direction string) QueryArgs {
	return QueryArgs{{Key: field, Value: direction}}
}

// ParseArgsJSON decodes the advanced editor's JSON arguments, keeping key
// order.
func ParseArgsJSON(data []byte) (QueryArgs, error) {
	obj, err := jsonutil.UnmarshalObject(data)
	if err != nil {
		return nil, fmt.Errorf("invalid query arguments: %w", err)
	}
	return obj, nil
}
