package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/forecast/internal/recorder"
)

func newRunsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recently recorded report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ws, err := openWorkspace(cmd.Context(), opts.dir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			lister, ok := ws.recorder.(recorder.Lister)
			if !ok {
				return fmt.Errorf("recorder kind %q keeps no runs", ws.cfg.Recorder.Kind)
			}
			runs, err := lister.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show (0 for all)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")

	return cmd
}
