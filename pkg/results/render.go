package results

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
)

// RenderTable writes td in the given format: "table" (default),
// "markdown", "csv" or "html".
func RenderTable(w io.Writer, td TableData, format string) error {
	if len(td.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(td.Columns))
	for i, col := range td.Columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, cells := range td.Rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}

	switch format {
	case "md", "markdown":
		t.RenderMarkdown()
		return nil
	case "csv":
		t.RenderCSV()
		return nil
	case "html":
		t.RenderHTML()
		return nil
	case "", "table":
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(td.Rows))
		return nil
	}
	return fmt.Errorf("unknown table format %q", format)
}

// RenderJSON writes v as indented JSON. Ordered objects keep their member
// order.
func RenderJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// ChartStyles are the lipgloss styles used by RenderChart.
type ChartStyles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Bars  []lipgloss.Style
	Muted lipgloss.Style
}

// DefaultChartStyles uses the five chart colors of the explorer.
func DefaultChartStyles() ChartStyles {
	colors := []string{"#e76e50", "#2a9d90", "#274754", "#e8c468", "#f4a462"}
	bars := make([]lipgloss.Style, len(colors))
	for i, c := range colors {
		bars[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return ChartStyles{
		Title: lipgloss.NewStyle().Bold(true),
		Label: lipgloss.NewStyle().Faint(true),
		Bars:  bars,
		Muted: lipgloss.NewStyle().Italic(true).Faint(true),
	}
}

const (
	maxLabelWidth = 24
	minBarWidth   = 10
)

// RenderChart draws one horizontal bar chart per Y axis field of a. rows
// are the flattened rows from ChartRows; width bounds each line.
func RenderChart(w io.Writer, rows []jsonutil.Object, a ChartAnalysis, width int, styles ChartStyles) error {
	if !a.Chartable {
		msg := a.Message
		if msg == "" {
			msg = "Unable to chart this data"
		}
		_, err := fmt.Fprintln(w, styles.Muted.Render(msg))
		return err
	}

	if len(styles.Bars) == 0 {
		styles.Bars = DefaultChartStyles().Bars
	}

	labels := make([]string, len(rows))
	labelWidth := 0
	for i, r := range rows {
		v, _ := r.Get(a.XAxisField)
		labels[i] = truncate(FormatCell(v), maxLabelWidth)
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}

	_, _ = fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf(
		"Showing %s by %s (%s)", strings.Join(a.YAxisFields, ", "), a.XAxisField, a.DataType)))

	for fi, field := range a.YAxisFields {
		values := make([]float64, len(rows))
		peak := 0.0
		for i, r := range rows {
			v, _ := r.Get(field)
			if f, ok := number(v); ok {
				values[i] = f
				peak = math.Max(peak, f)
			}
		}

		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.Title.Render(FormatFieldLabel(field)))

		barWidth := max(width-labelWidth-12, minBarWidth)
		bar := styles.Bars[fi%len(styles.Bars)]
		for i, v := range values {
			n := 0
			if peak > 0 && v > 0 {
				n = int(math.Round(v / peak * float64(barWidth)))
			}
			label := styles.Label.Width(labelWidth).Render(labels[i])
			_, _ = fmt.Fprintf(w, "%s %s %s\n", label, bar.Render(strings.Repeat("█", n)), FormatCell(rowValue(rows[i], field)))
		}
	}
	return nil
}

func rowValue(row jsonutil.Object, field string) any {
	v, _ := row.Get(field)
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
