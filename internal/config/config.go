package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/forecast/internal/alert"
	"github.com/cleared-dev/forecast/internal/daily"
	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/scenario"
)

// FileName is the config file inside a workspace.
const FileName = "forecast.yaml"

// Config represents the top-level forecast.yaml configuration.
type Config struct {
	Forecast ForecastConfig `yaml:"forecast"`
	Daily    DailyConfig    `yaml:"daily"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Sources  SourcesConfig  `yaml:"sources"`
	Recorder RecorderConfig `yaml:"recorder"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// ForecastConfig controls trend fitting and scenario generation.
type ForecastConfig struct {
	Lookback        int                                        `yaml:"lookback"` // periods of history fed to the fit
	Horizon         int                                        `yaml:"horizon"`
	DailyHorizon    int                                        `yaml:"daily_horizon"`
	Multipliers     map[model.ScenarioName]scenario.Multiplier `yaml:"multipliers"`
	Confidence      model.ConfidenceSchedule                   `yaml:"confidence"`
	DailyConfidence model.ConfidenceSchedule                   `yaml:"daily_confidence"`
}

// DailyConfig holds the per-day projection policy.
type DailyConfig struct {
	Bases          map[model.DayCategory]daily.Base `yaml:"bases"`
	Seasonality    []decimal.Decimal                `yaml:"seasonality"` // January first
	TrendGrowthPct decimal.Decimal                  `yaml:"trend_growth_pct"`
}

// AlertsConfig controls alert thresholds and list size.
type AlertsConfig struct {
	LowBalanceFloor decimal.Decimal `yaml:"low_balance_floor"`
	Limit           int             `yaml:"limit"` // 0 = no cap
}

// SourceKind selects where inputs come from.
type SourceKind string

const (
	SourceFiles    SourceKind = "files"
	SourceImport   SourceKind = "import"
	SourcePostgres SourceKind = "postgres"
)

// SourcesConfig locates input data. Paths are relative to the workspace.
type SourcesConfig struct {
	Kind               SourceKind `yaml:"kind"`
	HistoryFile        string     `yaml:"history_file"`
	CounterpartiesFile string     `yaml:"counterparties_file"`
	BudgetFile         string     `yaml:"budget_file"`
	ImportDir          string     `yaml:"import_dir"`
	ImportFormat       string     `yaml:"import_format"`
	DatabaseURL        string     `yaml:"database_url,omitempty"`
}

// RecorderKind selects where reports are logged.
type RecorderKind string

const (
	RecorderSQLite RecorderKind = "sqlite"
	RecorderCSV    RecorderKind = "csv"
	RecorderNone   RecorderKind = "none"
)

// RecorderConfig controls report persistence.
type RecorderConfig struct {
	Kind RecorderKind `yaml:"kind"`
	Path string       `yaml:"path"`
}

// ScheduleConfig holds cron specs (with seconds) for the schedule command.
// An empty spec disables that job.
type ScheduleConfig struct {
	ForecastCron string          `yaml:"forecast_cron"`
	RiskCron     string          `yaml:"risk_cron"`
	BudgetCron   string          `yaml:"budget_cron"`
	Balance      decimal.Decimal `yaml:"balance"` // starting balance for scheduled forecasts
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load reads a forecast.yaml file from disk. Missing keys keep their
// defaults, then environment overrides apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Sources.DatabaseURL = v
	}
	if v := os.Getenv("FORECAST_SQLITE_PATH"); v != "" {
		cfg.Recorder.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard policy for a new workspace.
func Default() *Config {
	season := daily.DefaultSeasonality()
	return &Config{
		Forecast: ForecastConfig{
			Lookback:        12,
			Horizon:         scenario.DefaultHorizon,
			DailyHorizon:    daily.DefaultHorizon,
			Multipliers:     scenario.DefaultMultipliers(),
			Confidence:      model.ScenarioConfidence(),
			DailyConfidence: model.DailyConfidence(),
		},
		Daily: DailyConfig{
			Bases:          daily.DefaultBases(),
			Seasonality:    season[:],
			TrendGrowthPct: decimal.RequireFromString(daily.DefaultGrowthPct),
		},
		Alerts: AlertsConfig{
			LowBalanceFloor: alert.DefaultLowBalanceFloor(),
			Limit:           alert.DefaultLimit,
		},
		Sources: SourcesConfig{
			Kind:               SourceFiles,
			HistoryFile:        "data/history.csv",
			CounterpartiesFile: "data/counterparties.csv",
			BudgetFile:         "data/budget.csv",
			ImportDir:          "import",
			ImportFormat:       "chase",
		},
		Recorder: RecorderConfig{
			Kind: RecorderSQLite,
			Path: "data/reports.db",
		},
		Schedule: ScheduleConfig{
			ForecastCron: "0 0 6 * * *",
			RiskCron:     "0 0 7 * * 1",
			BudgetCron:   "0 0 8 1 * *",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the policy for internal consistency.
func (c *Config) Validate() error {
	if c.Forecast.Lookback < 2 {
		return fmt.Errorf("forecast.lookback must be at least 2")
	}
	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon must be positive")
	}
	if c.Forecast.DailyHorizon <= 0 {
		return fmt.Errorf("forecast.daily_horizon must be positive")
	}
	if err := c.ScenarioPolicy().Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	p, err := c.Projector()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("daily: %w", err)
	}
	if c.Alerts.LowBalanceFloor.IsNegative() {
		return fmt.Errorf("alerts.low_balance_floor must not be negative")
	}
	if c.Alerts.Limit < 0 {
		return fmt.Errorf("alerts.limit must not be negative")
	}

	// The import source only replaces history; the other inputs stay on files.
	switch c.Sources.Kind {
	case SourceFiles, SourceImport:
		if c.Sources.CounterpartiesFile == "" || c.Sources.BudgetFile == "" {
			return fmt.Errorf("sources: counterparties_file and budget_file are required for kind %s", c.Sources.Kind)
		}
		if c.Sources.Kind == SourceFiles && c.Sources.HistoryFile == "" {
			return fmt.Errorf("sources.history_file is required for kind files")
		}
		if c.Sources.Kind == SourceImport && (c.Sources.ImportDir == "" || c.Sources.ImportFormat == "") {
			return fmt.Errorf("sources: import_dir and import_format are required for kind import")
		}
	case SourcePostgres:
		if c.Sources.DatabaseURL == "" {
			return fmt.Errorf("sources.database_url (or DATABASE_URL) is required for kind postgres")
		}
	default:
		return fmt.Errorf("sources.kind %q: want files, import or postgres", c.Sources.Kind)
	}

	switch c.Recorder.Kind {
	case RecorderSQLite, RecorderCSV:
		if c.Recorder.Path == "" {
			return fmt.Errorf("recorder.path is required for kind %s", c.Recorder.Kind)
		}
	case RecorderNone:
	default:
		return fmt.Errorf("recorder.kind %q: want sqlite, csv or none", c.Recorder.Kind)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	return nil
}

// ScenarioPolicy builds the scenario generator policy.
func (c *Config) ScenarioPolicy() scenario.Policy {
	return scenario.Policy{
		Multipliers: c.Forecast.Multipliers,
		Confidence:  c.Forecast.Confidence,
	}
}

// Projector builds the daily projector.
func (c *Config) Projector() (*daily.Projector, error) {
	if len(c.Daily.Seasonality) != 12 {
		return nil, fmt.Errorf("daily.seasonality needs 12 monthly factors, got %d", len(c.Daily.Seasonality))
	}
	var season [12]decimal.Decimal
	copy(season[:], c.Daily.Seasonality)
	return &daily.Projector{
		Bases:       c.Daily.Bases,
		Seasonality: season,
		TrendFactor: daily.TrendFactorFromGrowth(c.Daily.TrendGrowthPct),
		Confidence:  c.Forecast.DailyConfidence,
	}, nil
}

// AlertGenerator builds the alert generator.
func (c *Config) AlertGenerator() *alert.Generator {
	return &alert.Generator{
		LowBalanceFloor: c.Alerts.LowBalanceFloor,
		Limit:           c.Alerts.Limit,
	}
}
