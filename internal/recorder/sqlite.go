package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/forecast/internal/model"
)

// SQLiteRecorder persists runs and their alerts to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Lister   = (*SQLiteRecorder)(nil)
)

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at     INTEGER NOT NULL,
			kind            TEXT NOT NULL,
			fingerprint     TEXT NOT NULL,
			as_of           INTEGER NOT NULL,
			alert_count     INTEGER NOT NULL,
			recommendations INTEGER NOT NULL,
			failures        INTEGER NOT NULL,
			summary         TEXT,
			payload         BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_recorded ON report_runs(recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON report_runs(fingerprint)`,

		`CREATE TABLE IF NOT EXISTS run_alerts (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           INTEGER NOT NULL REFERENCES report_runs(id),
			severity         TEXT NOT NULL,
			subject          TEXT,
			message          TEXT,
			suggested_action TEXT,
			estimated_impact TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_run ON run_alerts(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Record inserts the run and its alerts in one transaction.
func (r *SQLiteRecorder) Record(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `INSERT INTO report_runs
		(recorded_at, kind, fingerprint, as_of, alert_count, recommendations, failures, summary, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RecordedAt.Unix(), string(run.Kind), run.Fingerprint, run.AsOf.Unix(),
		run.AlertCount, run.Recommendations, run.Failures, run.Summary, run.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for i, a := range run.Alerts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO run_alerts
			(run_id, severity, subject, message, suggested_action, estimated_impact)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, string(a.Severity), a.Subject, a.Message, a.SuggestedAction, a.EstimatedImpact.String(),
		); err != nil {
			return fmt.Errorf("insert alert %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit runs, newest first, with their alerts.
// limit <= 0 returns every run.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, recorded_at, kind, fingerprint, as_of,
		alert_count, recommendations, failures, summary, payload
		FROM report_runs ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	var ids []int64
	for rows.Next() {
		var (
			id, recordedAt, asOf int64
			kind                 string
			run                  Run
			summary              sql.NullString
		)
		if err := rows.Scan(&id, &recordedAt, &kind, &run.Fingerprint, &asOf,
			&run.AlertCount, &run.Recommendations, &run.Failures, &summary, &run.Payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.RecordedAt = time.Unix(recordedAt, 0).UTC()
		run.AsOf = time.Unix(asOf, 0).UTC()
		run.Kind = Kind(kind)
		run.Summary = summary.String
		runs = append(runs, run)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i, id := range ids {
		alerts, err := r.alertsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		runs[i].Alerts = alerts
	}
	return runs, nil
}

func (r *SQLiteRecorder) alertsFor(ctx context.Context, runID int64) ([]model.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT severity, subject, message, suggested_action, estimated_impact
		FROM run_alerts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		var severity, impact string
		if err := rows.Scan(&severity, &a.Subject, &a.Message, &a.SuggestedAction, &impact); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Severity = model.Severity(severity)
		a.EstimatedImpact, err = decimal.NewFromString(impact)
		if err != nil {
			return nil, fmt.Errorf("parsing impact %q: %w", impact, err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
