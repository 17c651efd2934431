package commands

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/forecast/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge bank statements from the import directory into history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), opts.dir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			if format == "" {
				format = ws.cfg.Sources.ImportFormat
			}
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown statement format %q", format)
			}
			if ws.cfg.Sources.HistoryFile == "" {
				return fmt.Errorf("sources.history_file is not set")
			}

			importDir := ws.path(ws.cfg.Sources.ImportDir)
			files, err := importer.Scan(importDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No statements to import")
				return nil
			}

			txns, err := importer.ParseFiles(parser, files)
			if err != nil {
				return err
			}
			series := importer.Aggregate(txns)
			merged, err := ws.files().AppendHistory(series)
			if err != nil {
				return err
			}

			for _, f := range files {
				if err := importer.MarkProcessed(importDir, f.Name); err != nil {
					return err
				}
				ws.log.WithFields(logrus.Fields{"file": f.Name, "bytes": f.Size}).Debug("statement processed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions from %d files into %d periods (%d in history)\n",
				len(txns), len(files), len(series), len(merged))
			if bal, when, ok := importer.ClosingBalance(txns); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Closing balance %s on %s\n", bal.StringFixed(2), when.Format(time.DateOnly))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "statement format (default sources.import_format)")

	return cmd
}
