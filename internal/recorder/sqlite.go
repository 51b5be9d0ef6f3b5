package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"TickerPacket/internal/model"
)

// SQLiteRecorder persists packet history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the daemon writes.
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
		`CREATE TABLE IF NOT EXISTS packet_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			trigger_type TEXT,
			window_days  INTEGER,
			bar_size     TEXT,
			bar_count    INTEGER,
			status       TEXT,
			error        TEXT,
			export_path  TEXT,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON packet_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker ON packet_runs(ticker)`,

		`CREATE TABLE IF NOT EXISTS hour_bars (
			run_id    TEXT NOT NULL,
			ticker    TEXT NOT NULL,
			start_ts  INTEGER NOT NULL,
			ts_local  TEXT NOT NULL,
			open      TEXT,
			high      TEXT,
			low       TEXT,
			close     TEXT,
			volume    INTEGER,
			bar_count INTEGER,
			PRIMARY KEY (run_id, ticker, start_ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_ticker_ts ON hour_bars(ticker, start_ts)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *PacketRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO packet_runs
		(run_id, timestamp, ticker, trigger_type, window_days, bar_size, bar_count,
		 status, error, export_path, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, started.Unix(), run.Ticker, run.Trigger, run.WindowDays,
		run.BarSize, run.BarCount, run.Status, run.Error, run.ExportPath,
		run.Duration.Milliseconds(),
	)
	return err
}

// RecordBars stores the chart of one run. Prices are kept as decimal text.
func (r *SQLiteRecorder) RecordBars(runID, ticker string, bars []model.HourBar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO hour_bars
		(run_id, ticker, start_ts, ts_local, open, high, low, close, volume, bar_count)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(runID, ticker, b.Start.Unix(), b.Start.Format(time.RFC3339),
			b.Open.String(), b.High.String(), b.Low.String(), b.Close.String(),
			b.Volume, b.Count); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert bar %s: %w", b.Start.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
