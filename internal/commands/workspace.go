package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/forecast/internal/clock"
	"github.com/cleared-dev/forecast/internal/config"
	"github.com/cleared-dev/forecast/internal/engine"
	"github.com/cleared-dev/forecast/internal/provider"
	"github.com/cleared-dev/forecast/internal/recorder"
	"github.com/cleared-dev/forecast/internal/store"
)

// workspace is an opened forecast directory: config, logger, input
// sources and the run recorder.
type workspace struct {
	dir      string
	cfg      *config.Config
	log      *logrus.Logger
	sources  provider.Set
	recorder recorder.Recorder
	closers  []func()
}

func openWorkspace(ctx context.Context, dir string, logOut io.Writer) (*workspace, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	// .env is optional; it only seeds variables that are not already set.
	if err := godotenv.Load(filepath.Join(absDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	ws := &workspace{dir: absDir, cfg: cfg, log: newLogger(cfg.Log, logOut)}
	if err := ws.openSources(ctx); err != nil {
		ws.Close()
		return nil, err
	}
	if err := ws.openRecorder(); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// path resolves a configured path against the workspace root.
func (w *workspace) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.dir, p)
}

func (w *workspace) files() *provider.Files {
	return &provider.Files{
		HistoryPath:        w.path(w.cfg.Sources.HistoryFile),
		CounterpartiesPath: w.path(w.cfg.Sources.CounterpartiesFile),
		BudgetPath:         w.path(w.cfg.Sources.BudgetFile),
	}
}

func (w *workspace) openSources(ctx context.Context) error {
	switch w.cfg.Sources.Kind {
	case config.SourceImport:
		st, err := provider.NewStatements(w.path(w.cfg.Sources.ImportDir), w.cfg.Sources.ImportFormat)
		if err != nil {
			return err
		}
		f := w.files()
		w.sources = provider.Set{History: st, Counterparties: f, Budget: f}
	case config.SourcePostgres:
		pg, err := store.Open(ctx, w.cfg.Sources.DatabaseURL)
		if err != nil {
			return err
		}
		w.closers = append(w.closers, pg.Close)
		w.sources = provider.Set{History: pg, Counterparties: pg, Budget: pg}
	default:
		f := w.files()
		w.sources = provider.Set{History: f, Counterparties: f, Budget: f}
	}
	w.log.WithField("sources", string(w.cfg.Sources.Kind)).Debug("sources opened")
	return nil
}

func (w *workspace) openRecorder() error {
	switch w.cfg.Recorder.Kind {
	case config.RecorderSQLite:
		path := w.path(w.cfg.Recorder.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating recorder dir: %w", err)
		}
		rec, err := recorder.NewSQLiteRecorder(path)
		if err != nil {
			return fmt.Errorf("opening report log: %w", err)
		}
		w.recorder = rec
	case config.RecorderCSV:
		w.recorder = &recorder.CSVRecorder{Path: w.path(w.cfg.Recorder.Path)}
	default:
		w.recorder = recorder.NewNoopRecorder()
	}
	return nil
}

// service builds the report engine with the given clock.
func (w *workspace) service(clk clock.Clock) (*engine.Service, error) {
	policy, err := engine.PolicyFrom(w.cfg)
	if err != nil {
		return nil, err
	}
	svc := engine.New(w.sources, policy, w.log)
	svc.Clock = clk
	return svc, nil
}

// record stores a run. Failing to record never fails the command.
func (w *workspace) record(ctx context.Context, run recorder.Run, err error) {
	if err == nil {
		err = w.recorder.Record(ctx, run)
	}
	if err != nil {
		w.log.WithError(err).Warn("failed to record run")
	}
}

func (w *workspace) Close() {
	if w.recorder != nil {
		if err := w.recorder.Close(); err != nil {
			w.log.WithError(err).Warn("closing recorder")
		}
	}
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}
