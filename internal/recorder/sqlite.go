package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read run history while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			months       INTEGER,
			horizon_days INTEGER,
			source       TEXT,
			observations INTEGER,
			points       INTEGER,
			status       TEXT NOT NULL,
			error        TEXT,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker ON forecast_runs(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := run.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(id, timestamp, ticker, months, horizon_days, source, observations, points, status, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, ts.UnixMilli(), run.Ticker, run.Months, run.HorizonDays, run.Source,
		run.Observations, run.Points, run.Status, run.Error, run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, ticker, months, horizon_days, source,
		observations, points, status, error, duration_ms
		FROM forecast_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run        RunRecord
			tsMillis   int64
			durationMs int64
			errText    sql.NullString
			source     sql.NullString
		)
		if err := rows.Scan(&run.ID, &tsMillis, &run.Ticker, &run.Months, &run.HorizonDays, &source,
			&run.Observations, &run.Points, &run.Status, &errText, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Time = time.UnixMilli(tsMillis).UTC()
		run.Source = source.String
		run.Error = errText.String
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
