package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hardcoverapp/hardcover-explorer/pkg/results"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schemadocs"
	"github.com/hardcoverapp/hardcover-explorer/types"
)

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Maintain the schema field index and reference docs",
	}
	cmd.AddCommand(newSchemaExtractCommand())
	cmd.AddCommand(newSchemaSDLCommand())
	cmd.AddCommand(newSchemaTablesCommand())
	cmd.AddCommand(newSchemaUpdateDocsCommand())
	return cmd
}

func isSDLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphql", ".graphqls", ".gql":
		return true
	}
	return false
}

// introspectionData reads an introspection result from path, or fetches it
// from the endpoint when path is empty.
func introspectionData(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	cfg := getConfig(cmd)
	getLogger(cmd).Info("fetching schema", "endpoint", cfg.Endpoint)
	return schema.Fetch(cmd.Context(), newClient(cmd))
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newSchemaExtractCommand() *cobra.Command {
	var (
		from      string
		typeNames []string
		all       bool
		out       string
		saveRaw   string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Build the schema fields file",
		Long: `Build the schema fields file used by the query builder from a live
introspection query, a saved introspection result (.json) or an SDL
document (.graphql).

By default only the documented types are extracted. Use --types to pick
others or --all for every object type.`,
		Example: `  # From the API (requires a token)
  hardcover schema extract

  # From a saved SDL file, every type
  hardcover schema extract --from schema.graphql --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := getLogger(cmd)
			ext := &schema.Extractor{Logger: logger}
			switch {
			case all:
			case len(typeNames) > 0:
				ext.TypeNames = typeNames
			default:
				ext.TypeNames = types.DocumentedTypes
			}

			var (
				idx *schema.Index
				err error
			)
			if from != "" && isSDLFile(from) {
				sdl, rerr := os.ReadFile(from)
				if rerr != nil {
					return rerr
				}
				idx, err = ext.FromSDL(filepath.Base(from), string(sdl))
			} else {
				data, rerr := introspectionData(cmd, from)
				if rerr != nil {
					return rerr
				}
				if saveRaw != "" {
					if err := os.WriteFile(saveRaw, data, 0o644); err != nil {
						return err
					}
				}
				idx, err = ext.FromIntrospection(data)
			}
			if err != nil {
				return err
			}

			if out == "" {
				out = getConfig(cmd).SchemaFields
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if err := idx.Save(f); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d types to %s\n", idx.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "introspection (.json) or SDL (.graphql) file instead of the API")
	cmd.Flags().StringSliceVar(&typeNames, "types", nil, "types to extract")
	cmd.Flags().BoolVar(&all, "all", false, "extract every object type")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: the schema fields file)")
	cmd.Flags().StringVar(&saveRaw, "save-introspection", "", "also save the raw introspection result")
	return cmd
}

func newSchemaSDLCommand() *cobra.Command {
	var (
		from string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "sdl",
		Short: "Convert an introspection result to SDL",
		Example: `  hardcover schema sdl --out schema.graphql
  hardcover schema sdl --from introspection.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := introspectionData(cmd, from)
			if err != nil {
				return err
			}
			sdl, err := schema.IntrospectionToSDL(data)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, []byte(sdl))
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "introspection result file instead of the API")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	return cmd
}

func newSchemaTablesCommand() *cobra.Command {
	var (
		format  string
		out     string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "tables [type...]",
		Short: "Generate the field reference tables",
		Long: `Generate a fields table per type from the schema fields file. Fields
without a schema description use the hand-written descriptions file.

Tables are written to <out>/<type>.md, or to stdout with --out -.`,
		Example: `  hardcover schema tables
  hardcover schema tables books --out - --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			desc, err := schemadocs.LoadDescriptions(getConfig(cmd).Descriptions)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = idx.QueryTypes()
			}
			for _, name := range names {
				if err := requireType(idx, name); err != nil {
					return err
				}
			}

			if out != "-" {
				if err := os.MkdirAll(out, 0o755); err != nil {
					return err
				}
			}
			for _, name := range names {
				table, err := schemadocs.Table(name, idx.Fields(name), desc, schemadocs.Format(format))
				if err != nil {
					return err
				}
				if out == "-" {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), table)
					continue
				}
				if err := os.WriteFile(filepath.Join(out, name+".md"), []byte(table), 0o644); err != nil {
					return err
				}
			}
			getLogger(cmd).Info("generated schema tables", "count", len(names), "dir", out)

			if summary {
				return results.RenderJSON(cmd.OutOrStdout(), schemadocs.Summary(idx))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(schemadocs.FormatHTML), "table format (html|markdown)")
	cmd.Flags().StringVar(&out, "out", "schema-tables", "output directory, or - for stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "print field counts by type")
	return cmd
}

func newSchemaUpdateDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-docs [type...]",
		Short: "Refresh the fields tables of the schema reference pages",
		Long: `Replace the fields table of each schema reference page with one generated
from the schema fields file. lastUpdated is bumped only on pages whose
table changed.`,
		Example: `  hardcover schema update-docs
  hardcover schema update-docs books editions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)
			idx, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			desc, err := schemadocs.LoadDescriptions(cfg.Descriptions)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = types.DocumentedTypes
			}
			u := &schemadocs.Updater{
				Dir:          cfg.DocsDir,
				Index:        idx,
				Descriptions: desc,
				Logger:       getLogger(cmd),
				Now:          time.Now,
			}
			res, runErr := u.Run(names)

			w := cmd.OutOrStdout()
			for _, r := range res {
				switch r.Status {
				case schemadocs.DocUpdated:
					_, _ = fmt.Fprintf(w, "updated   %s\n", r.Type)
				case schemadocs.DocUnchanged:
					_, _ = fmt.Fprintf(w, "unchanged %s\n", r.Type)
				default:
					_, _ = fmt.Fprintf(w, "skipped   %s (%s)\n", r.Type, r.Reason)
				}
			}
			return runErr
		},
	}
	return cmd
}
