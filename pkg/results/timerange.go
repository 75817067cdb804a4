package results

import (
	"math"
	"slices"
	"time"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
)

// AllTime selects every row.
const AllTime = "all"

// defaultRangeDays is used when an unknown range value is requested.
const defaultRangeDays = 90

// TimeRangeOption is a selectable window over a time series.
type TimeRangeOption struct {
	Value string
	Label string
	Days  int
}

var timeRanges = []TimeRangeOption{
	{Value: "7d", Label: "Last 7 days", Days: 7},
	{Value: "30d", Label: "Last 30 days", Days: 30},
	{Value: "90d", Label: "Last 3 months", Days: 90},
	{Value: "180d", Label: "Last 6 months", Days: 180},
	{Value: "365d", Label: "Last year", Days: 365},
}

func rowDate(row jsonutil.Object, field string) (time.Time, bool) {
	v, ok := row.Get(field)
	if !ok {
		return time.Time{}, false
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	return parseDate(s)
}

// TimeRangeOptions lists the windows shorter than the span of dates found
// in field, followed by an AllTime option. It returns nil when fewer than
// two dates parse or the span is a week or less.
func TimeRangeOptions(rows []jsonutil.Object, field string) []TimeRangeOption {
	var dates []time.Time
	for _, r := range rows {
		if t, ok := rowDate(r, field); ok {
			dates = append(dates, t)
		}
	}
	if len(dates) < 2 {
		return nil
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	span := int(math.Ceil(dates[len(dates)-1].Sub(dates[0]).Hours() / 24))

	var options []TimeRangeOption
	for _, r := range timeRanges {
		if span > r.Days {
			options = append(options, r)
		}
	}
	if len(options) > 0 {
		options = append(options, TimeRangeOption{Value: AllTime, Label: "All time", Days: span})
	}
	return options
}

// FilterByTimeRange keeps rows whose date in field falls within the window
// named by value, counted back from the date of the last row. Rows whose
// date does not parse are kept.
func FilterByTimeRange(rows []jsonutil.Object, field, value string) []jsonutil.Object {
	if value == AllTime || value == "" || len(rows) == 0 {
		return rows
	}
	reference, ok := rowDate(rows[len(rows)-1], field)
	if !ok {
		return rows
	}

	days := defaultRangeDays
	for _, o := range TimeRangeOptions(rows, field) {
		if o.Value == value {
			days = o.Days
			break
		}
	}
	start := reference.AddDate(0, 0, -days)

	out := make([]jsonutil.Object, 0, len(rows))
	for _, r := range rows {
		t, ok := rowDate(r, field)
		if !ok || !t.Before(start) {
			out = append(out, r)
		}
	}
	return out
}
