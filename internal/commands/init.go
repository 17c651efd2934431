package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/forecast/internal/config"
	"github.com/cleared-dev/forecast/internal/importer"
	"github.com/cleared-dev/forecast/internal/provider"
	"github.com/cleared-dev/forecast/internal/store"
)

func newInitCommand() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new forecast workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, databaseURL)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "use Postgres sources and create their tables")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir, databaseURL string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default()

	// Create directory structure.
	dirs := []string{
		"data",
		cfg.Sources.ImportDir,
		filepath.Join(cfg.Sources.ImportDir, importer.ProcessedDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Create the Postgres tables before the config points at them.
	if databaseURL != "" {
		pg, err := store.Open(ctx, databaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		cfg.Sources.Kind = config.SourcePostgres
		cfg.Sources.DatabaseURL = databaseURL
	}

	// Write forecast.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write empty input files with headers.
	inputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{cfg.Sources.HistoryFile, func(w io.Writer) error { return provider.WriteHistory(w, nil) }},
		{cfg.Sources.CounterpartiesFile, func(w io.Writer) error { return provider.WriteCounterparties(w, nil) }},
		{cfg.Sources.BudgetFile, func(w io.Writer) error { return provider.WriteBudget(w, nil) }},
	}
	for _, in := range inputs {
		if err := writeFile(filepath.Join(dir, in.path), in.write); err != nil {
			return fmt.Errorf("writing %s: %w", in.path, err)
		}
	}

	// Write .gitignore.
	gitignore := "data/reports.db*\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, cfg.Sources.ImportDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Fprintf(out, "Initialized forecast workspace at %s (sources: %s)\n", dir, cfg.Sources.Kind)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
