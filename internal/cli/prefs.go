package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hardcoverapp/hardcover-explorer/internal/preferences"
	"github.com/hardcoverapp/hardcover-explorer/pkg/results"
)

// NewPrefsCommand creates the prefs command group.
func NewPrefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		Long: `Preferences are stored per user in the preferences file:

  theme           auto|dark|light      chart colors
  editMode        basic|developer
  graphQLResults  table|json|chart     allow charts when run picks a view
  userId          integer              remembered id for ` + "##USER_ID##",
	}
	cmd.AddCommand(newPrefsGetCommand())
	cmd.AddCommand(newPrefsSetCommand())
	cmd.AddCommand(newPrefsResetCommand())
	return cmd
}

func completePreferenceKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return preferences.Keys, cobra.ShellCompDirectiveNoFileComp
}

func newPrefsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "get [key]",
		Short:             "Show preferences",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePreferenceKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPreferences(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if _, ok := preferences.Default(args[0]); !ok {
					return fmt.Errorf("%w %q", preferences.ErrUnknownKey, args[0])
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), store.Get(args[0]))
				return nil
			}

			td := results.TableData{Columns: []string{"key", "value", "allowed", "source"}}
			for _, key := range preferences.Keys {
				source := "default"
				if store.IsSet(key) {
					source = store.Path()
				}
				td.Rows = append(td.Rows, []string{
					key,
					store.Get(key),
					strings.Join(preferences.Allowed(key), "|"),
					source,
				})
			}
			return results.RenderTable(cmd.OutOrStdout(), td, "table")
		},
	}
}

func newPrefsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Change a preference",
		Example:           `  hardcover prefs set graphQLResults chart`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completePreferenceKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPreferences(cmd)
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			return store.Save()
		},
	}
}

func newPrefsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "reset [key]",
		Short:             "Restore one or all preferences to their defaults",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePreferenceKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPreferences(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := store.Remove(args[0]); err != nil {
					return err
				}
			} else {
				store.Reset()
			}
			return store.Save()
		},
	}
}
