// Package cli provides the hardcover command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	graphql "github.com/hardcoverapp/hardcover-explorer"
	"github.com/hardcoverapp/hardcover-explorer/internal/config"
	"github.com/hardcoverapp/hardcover-explorer/internal/preferences"
	"github.com/hardcoverapp/hardcover-explorer/pkg/schema"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "hardcover",
		Short: "Explore the Hardcover GraphQL API",
		Long: `hardcover builds, inspects and runs read-only queries against the
Hardcover GraphQL API, and maintains the API documentation: the schema
field index, the schema reference tables and the community showcase.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if cfg.File != "" {
				logger.Debug("using config file", "file", cfg.File)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./hardcover.yaml)")
	pf.String("env-file", "", "dotenv file (default: ./.env)")
	pf.String("endpoint", "", "GraphQL endpoint")
	pf.String("token", "", "API token, with or without the Bearer prefix")
	pf.String("schema", "", "schema fields file (default: schema-fields.json)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.StringP("output", "o", "", "result view for run (auto|json|table|chart)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "json", "table", "chart"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewTypesCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewParseCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewGraphCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewShowcaseCommand())
	rootCmd.AddCommand(NewPrefsCommand())
	rootCmd.AddCommand(NewProxyCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// getConfig retrieves the config stored by the root command.
func getConfig(cmd *cobra.Command) *config.Config {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		return &config.Config{}
	}
	return cfg
}

// getLogger retrieves the logger stored by the root command.
func getLogger(cmd *cobra.Command) *slog.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

func newClient(cmd *cobra.Command) *graphql.Client {
	cfg := getConfig(cmd)
	return graphql.NewClient(cfg.Endpoint, nil).
		WithBearerToken(cfg.Token).
		WithLogger(getLogger(cmd)).
		WithDebug(cfg.Verbose)
}

func loadIndex(cmd *cobra.Command) (*schema.Index, error) {
	cfg := getConfig(cmd)
	idx, err := schema.LoadFile(cfg.SchemaFields)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s not found, run \"hardcover schema extract\" first", cfg.SchemaFields)
	}
	return idx, err
}

func openPreferences(cmd *cobra.Command) (*preferences.Store, error) {
	return preferences.Open(getConfig(cmd).Preferences)
}

// readInput returns the contents of a file argument, stdin for "-", or
// fallback when no argument was given.
func readInput(cmd *cobra.Command, args []string, fallback string) (string, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	if args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	return string(b), err
}
