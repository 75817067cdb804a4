// Package results decides how a query result is presented (chart, table or
// raw JSON) and renders it for a terminal.
//
// The classifier is a heuristic over the first row of the first list in the
// result; it is expected to misclassify ambiguous shapes and only promises
// not to fail on arbitrary JSON.
package results

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
)

// DataType is the kind of chart a result supports.
type DataType string

const (
	TimeSeries  DataType = "timeseries"
	Categorical DataType = "categorical"
	Numeric     DataType = "numeric"
)

// IndexField is the implicit X axis used when a row has no string field.
const IndexField = "index"

// Classification failure messages.
const (
	MsgNoResults         = "No results to chart"
	MsgInsufficientData  = "Insufficient data points for charting (minimum 2 required)"
	MsgInvalidStructure  = "Invalid data structure"
	MsgNoNumericFields   = "No numeric fields found for charting"
	minimumChartDataRows = 2
)

// ChartAnalysis is the outcome of Analyze. Message is set only when
// Chartable is false.
type ChartAnalysis struct {
	Chartable   bool
	XAxisField  string
	YAxisFields []string
	DataType    DataType
	Message     string
}

// FirstArray returns the key and value of the first list-valued member of
// results.
func FirstArray(results any) (string, []any, bool) {
	obj, ok := object(results)
	if !ok {
		return "", nil, false
	}
	for _, m := range obj {
		if rows, ok := array(m.Value); ok {
			return m.Key, rows, true
		}
	}
	return "", nil, false
}

// Analyze classifies results, normally the data object of a response:
// {"books": [{...}, {...}]}.
func Analyze(results any) ChartAnalysis {
	if _, ok := object(results); !ok {
		return ChartAnalysis{Message: MsgNoResults}
	}

	_, rows, _ := FirstArray(results)
	if len(rows) < minimumChartDataRows {
		return ChartAnalysis{Message: MsgInsufficientData}
	}

	first, ok := object(rows[0])
	if !ok {
		return ChartAnalysis{Message: MsgInvalidStructure}
	}

	var numeric, candidates, dates []string
	for _, m := range Flatten(first) {
		if _, ok := number(m.Value); ok {
			numeric = append(numeric, m.Key)
			continue
		}
		s, ok := m.Value.(string)
		if !ok {
			continue
		}
		candidates = append(candidates, m.Key)
		if isDate(s) {
			dates = append(dates, m.Key)
		}
	}

	if len(numeric) == 0 {
		return ChartAnalysis{Message: MsgNoNumericFields}
	}

	a := ChartAnalysis{Chartable: true, YAxisFields: numeric}
	switch {
	case len(dates) > 0:
		a.XAxisField, a.DataType = dates[0], TimeSeries
	case len(candidates) > 0:
		a.XAxisField, a.DataType = candidates[0], Categorical
	default:
		a.XAxisField, a.DataType = IndexField, Numeric
	}
	return a
}

// Flatten turns nested objects of row into dot-path keys. Lists and nulls
// are kept as values and not descended into.
//
//	{"book": {"title": "A", "tags": [..]}} -> {"book.title": "A", "book.tags": [..]}
func Flatten(row any) jsonutil.Object {
	obj, ok := object(row)
	if !ok {
		return jsonutil.Object{}
	}
	out := make(jsonutil.Object, 0, len(obj))
	return flatten(out, obj, "")
}

func flatten(out, obj jsonutil.Object, prefix string) jsonutil.Object {
	for _, m := range obj {
		key := m.Key
		if prefix != "" {
			key = prefix + "." + m.Key
		}
		if nested, ok := object(m.Value); ok {
			out = flatten(out, nested, key)
			continue
		}
		out = append(out, jsonutil.Member{Key: key, Value: m.Value})
	}
	return out
}

// ChartRows flattens every row of the first list in results. The index
// field is added to each row so IndexField can be used as an X axis.
func ChartRows(results any) []jsonutil.Object {
	_, rows, _ := FirstArray(results)
	out := make([]jsonutil.Object, len(rows))
	for i, r := range rows {
		flat := Flatten(r)
		if _, exists := flat.Get(IndexField); !exists {
			flat = append(flat, jsonutil.Member{Key: IndexField, Value: i})
		}
		out[i] = flat
	}
	return out
}

// FormatFieldLabel turns a field path into a label: "book.pages" becomes
// "Book Pages".
func FormatFieldLabel(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		if r == utf8.RuneError {
			continue
		}
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}
