package results

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
)

// object returns v as an ordered object. Plain maps are ordered by key.
func object(v any) (jsonutil.Object, bool) {
	switch v := v.(type) {
	case jsonutil.Object:
		return v, true
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(jsonutil.Object, len(keys))
		for i, k := range keys {
			obj[i] = jsonutil.Member{Key: k, Value: v[k]}
		}
		return obj, true
	}
	return nil, false
}

func array(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case []jsonutil.Object:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	}
	return nil, false
}

// number reports whether v is a JSON number and returns its value.
func number(v any) (float64, bool) {
	var f float64
	switch v := v.(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"2006-01",
}

// parseDate parses the date formats the API returns: dates, timestamps
// and timestamptz values.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDate reports whether s contains a YYYY-MM-DD date and parses as one.
func isDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, ok := parseDate(s)
	return ok
}
