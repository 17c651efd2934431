package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/forecast/internal/buildinfo"
)

// rootOptions are flags shared by every workspace command.
type rootOptions struct {
	dir string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "forecast",
		Short:   "Cash-flow forecasting and risk analytics",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "workspace directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newProjectCommand(opts),
		newRiskCommand(opts),
		newBudgetCommand(opts),
		newImportCommand(opts),
		newRunsCommand(opts),
		newScheduleCommand(opts),
	)

	return rootCmd
}
