package querybuilder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/hardcoverapp/hardcover-explorer/types"
)

const indentUnit = "  "

// GenerateQueryString serializes tree and args into a query document:
//
//	query {
//	  books(limit: 10) {
//	    id
//	    title
//	  }
//	}
//
// A field is written when it is selected or has a selected descendant;
// fields with selected descendants are written as blocks. Arguments whose
// value is nil, "" or a NaN or infinite float are omitted.
func GenerateQueryString(rootType string, tree []SelectedField, args QueryArgs) string {
	var buf bytes.Buffer
	writeQuery(&buf, rootType, tree, args)
	return buf.String()
}

func writeQuery(w io.Writer, rootType string, tree []SelectedField, args QueryArgs) {
	_, _ = io.WriteString(w, "query {\n")
	_, _ = io.WriteString(w, indentUnit)
	_, _ = io.WriteString(w, rootType)
	writeArguments(w, args)
	_, _ = io.WriteString(w, " {\n")
	if !writeFields(w, tree, 2) {
		// An empty selection set is not valid GraphQL.
		_, _ = io.WriteString(w, strings.Repeat(indentUnit, 2))
		_, _ = io.WriteString(w, "__typename\n")
	}
	_, _ = io.WriteString(w, indentUnit)
	_, _ = io.WriteString(w, "}\n}")
}

// writeFields writes the selected fields of tree at the given depth and
// reports whether anything was written.
func writeFields(w io.Writer, tree []SelectedField, depth int) bool {
	indent := strings.Repeat(indentUnit, depth)
	wrote := false
	for _, f := range tree {
		switch {
		case HasSelectedDescendant(f):
			_, _ = io.WriteString(w, indent)
			_, _ = io.WriteString(w, f.Name)
			_, _ = io.WriteString(w, " {\n")
			writeFields(w, f.Children, depth+1)
			_, _ = io.WriteString(w, indent)
			_, _ = io.WriteString(w, "}\n")
		case f.Selected && f.Children == nil && !f.Truncated:
			_, _ = io.WriteString(w, indent)
			_, _ = io.WriteString(w, f.Name)
			_, _ = io.WriteString(w, "\n")
		case f.Selected:
			// Object fields need a selection set even when none of
			// their children are selected.
			_, _ = io.WriteString(w, indent)
			_, _ = io.WriteString(w, f.Name)
			_, _ = io.WriteString(w, " {\n")
			_, _ = io.WriteString(w, indent+indentUnit)
			_, _ = io.WriteString(w, "__typename\n")
			_, _ = io.WriteString(w, indent)
			_, _ = io.WriteString(w, "}\n")
		default:
			continue
		}
		wrote = true
	}
	return wrote
}

// writeArguments writes "(key: value, ...)" for the non-empty arguments in
// args, or nothing when none remain.
func writeArguments(w io.Writer, args QueryArgs) {
	iter := 0
	for _, m := range args {
		if omitted(m.Value) {
			continue
		}
		if iter == 0 {
			_, _ = io.WriteString(w, "(")
		} else {
			_, _ = io.WriteString(w, ", ")
		}
		iter++
		_, _ = io.WriteString(w, m.Key)
		_, _ = io.WriteString(w, ": ")
		// Top-level strings are always string literals; enum and number
		// detection only applies inside object literals.
		if s, ok := m.Value.(string); ok {
			writeString(w, s)
			continue
		}
		writeValue(w, m.Value)
	}
	if iter > 0 {
		_, _ = io.WriteString(w, ")")
	}
}

func omitted(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float32:
		return !finite(float64(v))
	case float64:
		return !finite(v)
	}
	return false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// writeFloat writes f as a GraphQL float. NaN and infinities have no
// literal form and are written as null.
func writeFloat(w io.Writer, f float64, bitSize int) {
	if !finite(f) {
		_, _ = io.WriteString(w, "null")
		return
	}
	_, _ = io.WriteString(w, strconv.FormatFloat(f, 'f', -1, bitSize))
}

var numericString = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// writeValue writes v as a GraphQL literal. Strings that look like numbers,
// booleans or order_by directions are written bare since those positions
// hold enums, not strings.
func writeValue(w io.Writer, v any) {
	switch v := v.(type) {
	case nil:
		_, _ = io.WriteString(w, "null")
	case string:
		if numericString.MatchString(v) || v == "true" || v == "false" ||
			slices.Contains(types.OrderByDirections, v) {
			_, _ = io.WriteString(w, v)
			return
		}
		writeString(w, v)
	case bool:
		_, _ = io.WriteString(w, strconv.FormatBool(v))
	case json.Number:
		_, _ = io.WriteString(w, v.String())
	case int:
		_, _ = io.WriteString(w, strconv.Itoa(v))
	case int32:
		_, _ = io.WriteString(w, strconv.FormatInt(int64(v), 10))
	case int64:
		_, _ = io.WriteString(w, strconv.FormatInt(v, 10))
	case uint:
		_, _ = io.WriteString(w, strconv.FormatUint(uint64(v), 10))
	case uint64:
		_, _ = io.WriteString(w, strconv.FormatUint(v, 10))
	case float32:
		writeFloat(w, float64(v), 32)
	case float64:
		writeFloat(w, v, 64)
	case []any:
		_, _ = io.WriteString(w, "[")
		for i, e := range v {
			if i != 0 {
				_, _ = io.WriteString(w, ", ")
			}
			writeValue(w, e)
		}
		_, _ = io.WriteString(w, "]")
	case []string:
		_, _ = io.WriteString(w, "[")
		for i, e := range v {
			if i != 0 {
				_, _ = io.WriteString(w, ", ")
			}
			writeValue(w, e)
		}
		_, _ = io.WriteString(w, "]")
	case QueryArgs:
		_, _ = io.WriteString(w, "{")
		for i, m := range v {
			if i != 0 {
				_, _ = io.WriteString(w, ", ")
			}
			_, _ = io.WriteString(w, m.Key)
			_, _ = io.WriteString(w, ": ")
			writeValue(w, m.Value)
		}
		_, _ = io.WriteString(w, "}")
	case map[string]any:
		// Keys are sorted for deterministic output.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		_, _ = io.WriteString(w, "{")
		for i, k := range keys {
			if i != 0 {
				_, _ = io.WriteString(w, ", ")
			}
			_, _ = io.WriteString(w, k)
			_, _ = io.WriteString(w, ": ")
			writeValue(w, v[k])
		}
		_, _ = io.WriteString(w, "}")
	default:
		writeString(w, fmt.Sprint(v))
	}
}

// writeString writes s as a GraphQL string literal.
func writeString(w io.Writer, s string) {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	_, _ = io.WriteString(w, b.String())
}
