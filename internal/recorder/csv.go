package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Header is the CSV header for the run log.
const Header = "recorded_at,kind,fingerprint,as_of,alerts,recommendations,failures,summary"

const (
	numFields          = 8
	colRecordedAt      = 0
	colKind            = 1
	colFingerprint     = 2
	colAsOf            = 3
	colAlerts          = 4
	colRecommendations = 5
	colFailures        = 6
	colSummary         = 7
)

// CSVRecorder appends one row per run to a CSV file. Alert details and
// payloads are not kept; only their counts.
type CSVRecorder struct {
	Path string
}

var (
	_ Recorder = (*CSVRecorder)(nil)
	_ Lister   = (*CSVRecorder)(nil)
)

// MarshalRun converts a Run to a CSV row.
func MarshalRun(r Run) []string {
	row := make([]string, numFields)
	row[colRecordedAt] = r.RecordedAt.Format(time.RFC3339)
	row[colKind] = string(r.Kind)
	row[colFingerprint] = r.Fingerprint
	row[colAsOf] = r.AsOf.Format(time.RFC3339)
	row[colAlerts] = strconv.Itoa(r.AlertCount)
	row[colRecommendations] = strconv.Itoa(r.Recommendations)
	row[colFailures] = strconv.Itoa(r.Failures)
	row[colSummary] = r.Summary
	return row
}

// UnmarshalRun converts a CSV row to a Run. Only the alert count is kept.
func UnmarshalRun(record []string) (Run, error) {
	if len(record) != numFields {
		return Run{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	recordedAt, err := time.Parse(time.RFC3339, record[colRecordedAt])
	if err != nil {
		return Run{}, fmt.Errorf("parsing recorded_at %q: %w", record[colRecordedAt], err)
	}
	asOf, err := time.Parse(time.RFC3339, record[colAsOf])
	if err != nil {
		return Run{}, fmt.Errorf("parsing as_of %q: %w", record[colAsOf], err)
	}
	alerts, err := strconv.Atoi(record[colAlerts])
	if err != nil {
		return Run{}, fmt.Errorf("parsing alerts %q: %w", record[colAlerts], err)
	}
	recs, err := strconv.Atoi(record[colRecommendations])
	if err != nil {
		return Run{}, fmt.Errorf("parsing recommendations %q: %w", record[colRecommendations], err)
	}
	failures, err := strconv.Atoi(record[colFailures])
	if err != nil {
		return Run{}, fmt.Errorf("parsing failures %q: %w", record[colFailures], err)
	}

	return Run{
		RecordedAt:      recordedAt,
		Kind:            Kind(record[colKind]),
		Fingerprint:     record[colFingerprint],
		AsOf:            asOf,
		AlertCount:      alerts,
		Recommendations: recs,
		Failures:        failures,
		Summary:         record[colSummary],
	}, nil
}

// Record appends run to the log, creating the file and header if needed.
func (c *CSVRecorder) Record(_ context.Context, run Run) error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(c.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalRun(run)); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// Recent returns up to limit runs, newest first. A missing file has no runs.
func (c *CSVRecorder) Recent(_ context.Context, limit int) ([]Run, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	runs, err := readRuns(f)
	if err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(runs))
	for i := len(runs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

// Close is a no-op; every Record opens and closes the file.
func (c *CSVRecorder) Close() error { return nil }

func readRuns(r io.Reader) ([]Run, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var runs []Run
	for i, rec := range records[1:] {
		run, err := UnmarshalRun(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
