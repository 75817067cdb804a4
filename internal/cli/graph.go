package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hardcoverapp/hardcover-explorer/pkg/results"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schemagraph"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var (
		scalars      bool
		outgoingOnly bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "graph <type>",
		Short: "Show the relationships of a schema type",
		Long: `Build the relationship graph around a type: the types it points to, the
types pointing to it and, with --scalars, its scalar columns.

The graph is written as Graphviz DOT or as Cytoscape.js elements.`,
		Example: `  # Render with Graphviz
  hardcover graph books | dot -Tsvg > books.svg

  # Cytoscape.js elements for the docs site
  hardcover graph books --format json --scalars`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			if err := requireType(idx, args[0]); err != nil {
				return err
			}

			opts := schemagraph.DefaultOptions()
			opts.IncludeScalars = scalars
			opts.IncludeIncoming = !outgoingOnly
			g := schemagraph.Generate(idx, args[0], opts)
			getLogger(cmd).Debug("generated graph", "type", args[0], "nodes", len(g.Nodes), "edges", len(g.Edges))

			switch format {
			case "dot":
				return schemagraph.WriteDOT(cmd.OutOrStdout(), g)
			case "json":
				return results.RenderJSON(cmd.OutOrStdout(), schemagraph.CytoscapeElements(g))
			}
			return fmt.Errorf("unknown graph format %q (want dot or json)", format)
		},
	}

	cmd.Flags().BoolVar(&scalars, "scalars", false, "include scalar columns")
	cmd.Flags().BoolVar(&outgoingOnly, "outgoing-only", false, "omit relationships pointing to the type")
	cmd.Flags().StringVar(&format, "format", "dot", "output format (dot|json)")
	return cmd
}
