package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	graphql "github.com/hardcoverapp/hardcover-explorer"
	"github.com/hardcoverapp/hardcover-explorer/internal/preferences"
	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
	"github.com/hardcoverapp/hardcover-explorer/pkg/results"
)

const defaultChartWidth = 80

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var (
		query     string
		view      string
		format    string
		timeRange string
		width     int
	)

	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Run a read-only query against the API",
		Long: `Run a query and show the data as JSON, a table or a chart. Mutations are
refused and an API token is required.

` + graphql.UserIDToken + ` in the query is replaced with the id of the token's user,
which is looked up once and remembered in the preferences file.

Without --view (or --output) the view is picked from the shape of the
data; charts are only picked when the graphQLResults preference is
"chart".`,
		Example: `  # Run a query file
  hardcover run query.graphql

  # Pipe a generated query and force a table
  hardcover build books --fields title,pages | hardcover run - --view table

  # Chart a time series over the last 30 days
  hardcover run reads.graphql --view chart --range 30d`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := readInput(cmd, args, query)
			if err != nil {
				return err
			}

			prefs, err := openPreferences(cmd)
			if err != nil {
				return err
			}
			client := newClient(cmd)

			if strings.Contains(q, graphql.UserIDToken) {
				id, err := viewerID(cmd, client, prefs)
				if err != nil {
					return err
				}
				q = graphql.ReplaceQueryTokens(q, id)
			}

			res, err := client.Run(cmd.Context(), q)
			if err != nil {
				return err
			}

			if view == "" {
				view = getConfig(cmd).Output
			}
			return renderResult(cmd.OutOrStdout(), res.Data, resultOptions{
				view:      view,
				chartable: prefs.Get(preferences.GraphQLResults) == string(results.ViewChart),
				theme:     prefs.Get(preferences.Theme),
				format:    format,
				timeRange: timeRange,
				width:     width,
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query text (instead of a file)")
	cmd.Flags().StringVar(&view, "view", "", "result view (auto|json|table|chart)")
	cmd.Flags().StringVar(&format, "format", "table", "table format (table|markdown|csv|html)")
	cmd.Flags().StringVar(&timeRange, "range", results.AllTime, "time range for time series charts (7d|30d|90d|180d|365d|all)")
	cmd.Flags().IntVar(&width, "width", defaultChartWidth, "chart width in columns")
	return cmd
}

// viewerID returns the remembered user id, looking it up with the token
// on first use.
func viewerID(cmd *cobra.Command, client *graphql.Client, prefs *preferences.Store) (int64, error) {
	if prefs.IsSet(preferences.UserID) {
		if id, err := strconv.ParseInt(prefs.Get(preferences.UserID), 10, 64); err == nil {
			return id, nil
		}
	}
	id, err := client.Viewer(cmd.Context())
	if err != nil {
		return 0, err
	}
	if err := prefs.Set(preferences.UserID, strconv.FormatInt(id, 10)); err != nil {
		return 0, err
	}
	if err := prefs.Save(); err != nil {
		getLogger(cmd).Warn("could not save user id", "error", err)
	}
	return id, nil
}

type resultOptions struct {
	view      string
	chartable bool
	theme     string
	format    string
	timeRange string
	width     int
}

func renderResult(w io.Writer, data jsonutil.Object, opts resultOptions) error {
	var view results.View
	if opts.view == "" || opts.view == "auto" {
		view = results.BestView(data, opts.chartable)
	} else {
		v, err := results.ParseView(opts.view)
		if err != nil {
			return err
		}
		view = v
	}

	switch view {
	case results.ViewTable:
		td, ok := results.Table(data)
		if !ok {
			return results.RenderJSON(w, data)
		}
		if td.Name != "" && opts.format == "table" {
			_, _ = fmt.Fprintln(w, td.Name)
		}
		return results.RenderTable(w, td, opts.format)
	case results.ViewChart:
		switch opts.theme {
		case "dark":
			lipgloss.SetHasDarkBackground(true)
		case "light":
			lipgloss.SetHasDarkBackground(false)
		}
		a := results.Analyze(data)
		rows := results.ChartRows(data)
		if a.Chartable && a.DataType == results.TimeSeries {
			rows = results.FilterByTimeRange(rows, a.XAxisField, opts.timeRange)
		}
		return results.RenderChart(w, rows, a, opts.width, results.DefaultChartStyles())
	}
	return results.RenderJSON(w, data)
}
