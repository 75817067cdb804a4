package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hardcoverapp/hardcover-explorer/pkg/jsonutil"
	"github.com/hardcoverapp/hardcover-explorer/pkg/querybuilder"
	"github.com/hardcoverapp/hardcover-explorer/pkg/results"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schemadocs"
)

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	var (
		counts bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the queryable schema types",
		Long: `List the root types available to the query builder, read from the
schema fields file.`,
		Example: `  # List type names
  hardcover types

  # Show field counts as a markdown table
  hardcover types --counts --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !counts {
				for _, name := range idx.QueryTypes() {
					_, _ = fmt.Fprintln(out, name)
				}
				return nil
			}

			td := results.TableData{Columns: []string{"type", "total", "simple", "relationships"}}
			for _, s := range schemadocs.Summary(idx) {
				td.Rows = append(td.Rows, []string{
					s.Type,
					fmt.Sprint(s.Total),
					fmt.Sprint(s.Simple),
					fmt.Sprint(s.Relationships),
				})
			}
			return results.RenderTable(out, td, format)
		},
	}

	cmd.Flags().BoolVar(&counts, "counts", false, "show field counts per type")
	cmd.Flags().StringVar(&format, "format", "table", "table format (table|markdown|csv|html)")
	return cmd
}

func newBuilder(cmd *cobra.Command, idx *schema.Index) *querybuilder.Builder {
	cfg := getConfig(cmd)
	return &querybuilder.Builder{
		Index:            idx,
		MaxDepth:         cfg.MaxDepth,
		ExcludedPatterns: cfg.ExcludedPatterns,
		Logger:           getLogger(cmd),
	}
}

func requireType(idx *schema.Index, name string) error {
	if idx.Has(name) {
		return nil
	}
	return fmt.Errorf("unknown type %q, run \"hardcover types\" to list them", name)
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var (
		fields   []string
		toggles  []string
		argsJSON string
		limit    int
		from     string
	)

	cmd := &cobra.Command{
		Use:   "build <type>",
		Short: "Generate a query for a schema type",
		Long: `Generate a query document for a root type. By default every scalar field
is selected down to the maximum depth, except cache columns.

--fields selects exactly the named fields (at any depth). --toggle flips a
field and everything below it, addressed by a dotted path. --from rebuilds
the selection and arguments from an existing query file.`,
		Example: `  # Default query for books
  hardcover build books

  # Only a few fields, newest first
  hardcover build books --fields title,release_date --args '{"order_by":{"release_date":"desc"}}'

  # Drop the contributions subtree
  hardcover build books --toggle contributions

  # Edit an existing query
  hardcover build books --from query.graphql --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			idx, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			if err := requireType(idx, root); err != nil {
				return err
			}
			b := newBuilder(cmd, idx)

			var (
				tree      []querybuilder.SelectedField
				queryArgs querybuilder.QueryArgs
			)
			if from != "" {
				q, err := os.ReadFile(from)
				if err != nil {
					return err
				}
				tree, queryArgs = b.Rehydrate(string(q), root)
			} else {
				tree = b.DefaultTree(root)
				queryArgs = querybuilder.DefaultArgs().Set("limit", getConfig(cmd).DefaultLimit)
			}

			if len(fields) > 0 {
				tree = querybuilder.SelectFieldsByNames(tree, fields)
			}
			for _, path := range toggles {
				tree = querybuilder.ToggleField(tree, strings.Split(path, "."), nil)
			}
			if argsJSON != "" {
				parsed, err := querybuilder.ParseArgsJSON([]byte(argsJSON))
				if err != nil {
					return err
				}
				for _, m := range parsed {
					queryArgs = queryArgs.Set(m.Key, m.Value)
				}
			}
			if cmd.Flags().Changed("limit") {
				queryArgs = queryArgs.Set("limit", limit)
			}

			getLogger(cmd).Debug("built query",
				"type", root,
				"selected", querybuilder.CountSelectedFields(tree))
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), querybuilder.GenerateQueryString(root, tree, queryArgs))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "select only these field names")
	cmd.Flags().StringSliceVar(&toggles, "toggle", nil, "toggle a field subtree by dotted path")
	cmd.Flags().StringVar(&argsJSON, "args", "", "query arguments as a JSON object")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit argument")
	cmd.Flags().StringVar(&from, "from", "", "rebuild from an existing query file")
	cmd.Flags().Int("max-depth", 0, "maximum expansion depth")
	return cmd
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <type> [file|-]",
		Short: "Show the fields and arguments of an existing query",
		Long: `Parse a query document and print the field names selected under the
root type and the arguments passed to it, as JSON. The query is read from
a file, or from stdin when the argument is "-" or missing.`,
		Example: `  hardcover parse books query.graphql
  echo '{ books(limit: 5) { title } }' | hardcover parse books`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[1:]
			if len(input) == 0 {
				input = []string{"-"}
			}
			query, err := readInput(cmd, input, "")
			if err != nil {
				return err
			}

			names := querybuilder.ParseQueryFields(query, args[0])
			if names == nil {
				names = []string{}
			}
			queryArgs := querybuilder.ParseQueryArguments(query, args[0])
			if queryArgs == nil {
				queryArgs = querybuilder.QueryArgs{}
			}
			return results.RenderJSON(cmd.OutOrStdout(), jsonutil.Object{
				{Key: "fields", Value: names},
				{Key: "arguments", Value: queryArgs},
			})
		},
	}
}
