package results

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// View is a result presentation.
type View string

const (
	ViewJSON  View = "json"
	ViewTable View = "table"
	ViewChart View = "chart"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewJSON, ViewTable, ViewChart:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q (want json, table or chart)", s)
}

// maxTableColumns is the widest row shown as a table.
const maxTableColumns = 15

// BestView picks the initial view for a response data object. A chart is
// chosen when chartable is set and the first row has a numeric field; a
// table when the first rows are objects with 1 to 15 fields.
func BestView(data any, chartable bool) View {
	obj, ok := object(data)
	if !ok || len(obj) == 0 {
		return ViewJSON
	}
	rows, ok := array(obj[0].Value)
	if !ok || len(rows) == 0 {
		return ViewJSON
	}
	first, ok := object(rows[0])
	if !ok {
		return ViewJSON
	}

	if chartable {
		for _, m := range first {
			if _, ok := number(m.Value); ok {
				return ViewChart
			}
		}
	}

	for _, r := range rows[:min(3, len(rows))] {
		o, ok := object(r)
		if !ok || len(o) == 0 || len(o) > maxTableColumns {
			return ViewJSON
		}
	}
	return ViewTable
}

// TableData is a result laid out as text cells.
type TableData struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Table lays out the first list in data as rows of flattened fields.
// Columns come from the first row; lists and objects are shown as compact
// JSON. ok is false when data holds no list.
func Table(data any) (TableData, bool) {
	name, rows, ok := FirstArray(data)
	if !ok {
		return TableData{}, false
	}
	td := TableData{Name: name}
	if len(rows) == 0 {
		return td, true
	}

	td.Columns = Flatten(rows[0]).Keys()
	for _, r := range rows {
		flat := Flatten(r)
		cells := make([]string, len(td.Columns))
		for i, col := range td.Columns {
			v, _ := flat.Get(col)
			cells[i] = FormatCell(v)
		}
		td.Rows = append(td.Rows, cells)
	}
	return td, true
}

// FormatCell renders a single value for a table cell.
func FormatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
