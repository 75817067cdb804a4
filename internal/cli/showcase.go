package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hardcoverapp/hardcover-explorer/pkg/results"
	"github.com/hardcoverapp/hardcover-explorer/pkg/showcase"
)

// NewShowcaseCommand creates the showcase command group.
func NewShowcaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showcase",
		Short: "Manage the community project showcase",
	}
	cmd.AddCommand(newShowcaseListCommand())
	cmd.AddCommand(newShowcaseValidateCommand())
	cmd.AddCommand(newShowcaseStarsCommand())
	return cmd
}

func newShowcaseListCommand() *cobra.Command {
	var (
		search     string
		category   string
		sortOrder  string
		format     string
		categories bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List showcase projects",
		Long: `List the showcase projects the way the gallery shows them: filtered by a
search term and category, then sorted.`,
		Example: `  hardcover showcase list --sort stars
  hardcover showcase list --search goodreads --category tools`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := showcase.ParseSortOrder(sortOrder)
			if err != nil {
				return err
			}
			projects, err := showcase.LoadDir(getConfig(cmd).ShowcaseDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if categories {
				for _, c := range showcase.Categories(projects) {
					_, _ = fmt.Fprintln(out, c)
				}
				return nil
			}

			matched := showcase.Filter(projects, showcase.Query{Search: search, Category: category, Sort: order})
			td := results.TableData{Columns: []string{"name", "slug", "author", "categories", "stars", "featured", "added"}}
			for _, p := range matched {
				featured := ""
				if p.Featured {
					featured = "yes"
				}
				td.Rows = append(td.Rows, []string{
					p.Name,
					p.Slug,
					p.Author.Name,
					strings.Join(p.Categories, ", "),
					strconv.Itoa(p.Stars()),
					featured,
					p.DateAdded.Format("2006-01-02"),
				})
			}
			return results.RenderTable(out, td, format)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "search name, summary, description, author and tags")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&sortOrder, "sort", string(showcase.SortFeatured), "sort order (featured|newest|updated|stars|alphabetical)")
	cmd.Flags().StringVar(&format, "format", "table", "table format (table|markdown|csv|html)")
	cmd.Flags().BoolVar(&categories, "categories", false, "list the categories in use")
	return cmd
}

func newShowcaseValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every showcase project file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, loadErr := showcase.LoadDir(getConfig(cmd).ShowcaseDir)
			if err := errors.Join(loadErr, showcase.ValidateAll(projects)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d projects valid\n", len(projects))
			return nil
		},
	}
}

func newShowcaseStarsCommand() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "stars",
		Short: "Refresh the GitHub star counts of showcase projects",
		Long: `Fetch the stargazer count of each project's GitHub repository and record
it under stats.githubStars. Set GITHUB_TOKEN for a higher rate limit.

The command fails when any project could not be updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd)
			logger := getLogger(cmd)
			if cfg.GitHubToken == "" {
				logger.Warn("GITHUB_TOKEN not set, using unauthenticated requests")
			}

			u := &showcase.StarUpdater{
				Dir:    cfg.ShowcaseDir,
				GitHub: showcase.NewGitHubClient(cfg.GitHubToken),
				Delay:  delay,
				Logger: logger,
			}
			res, err := u.Run(cmd.Context())
			if err != nil {
				return err
			}

			s := showcase.Summarize(res)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated: %d, unchanged: %d, skipped: %d, errors: %d\n",
				s.Updated, s.Unchanged, s.Skipped, s.Errors)
			if s.Errors > 0 {
				return fmt.Errorf("%d projects could not be updated", s.Errors)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 100*time.Millisecond, "pause between GitHub requests")
	return cmd
}
