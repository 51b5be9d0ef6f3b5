package recorder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"TickerPacket/internal/model"
)

const pgTimeout = 10 * time.Second

// PostgresRecorder persists packet history to PostgreSQL. It uses the same
// tables as SQLiteRecorder.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder connects to dsn and runs migrations.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{db: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Println("[INFO] postgres recorder connected")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS packet_runs (
			id           BIGSERIAL PRIMARY KEY,
			run_id       TEXT NOT NULL,
			timestamp    TIMESTAMPTZ NOT NULL,
			ticker       TEXT NOT NULL,
			trigger_type TEXT,
			window_days  INTEGER,
			bar_size     TEXT,
			bar_count    INTEGER,
			status       TEXT,
			error        TEXT,
			export_path  TEXT,
			duration_ms  BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON packet_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker ON packet_runs(ticker)`,

		`CREATE TABLE IF NOT EXISTS hour_bars (
			run_id    TEXT NOT NULL,
			ticker    TEXT NOT NULL,
			start_ts  TIMESTAMPTZ NOT NULL,
			ts_local  TEXT NOT NULL,
			open      NUMERIC,
			high      NUMERIC,
			low       NUMERIC,
			close     NUMERIC,
			volume    BIGINT,
			bar_count INTEGER,
			PRIMARY KEY (run_id, ticker, start_ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_ticker_ts ON hour_bars(ticker, start_ts)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordRun(run *PacketRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO packet_runs
		(run_id, timestamp, ticker, trigger_type, window_days, bar_size, bar_count,
		 status, error, export_path, duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		run.RunID, started, run.Ticker, run.Trigger, run.WindowDays,
		run.BarSize, run.BarCount, run.Status, run.Error, run.ExportPath,
		run.Duration.Milliseconds(),
	)
	return err
}

// RecordBars stores the chart of one run in a single batch. Prices go in as
// decimal text so NUMERIC keeps every digit.
func (r *PostgresRecorder) RecordBars(runID, ticker string, bars []model.HourBar) error {
	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(`INSERT INTO hour_bars
			(run_id, ticker, start_ts, ts_local, open, high, low, close, volume, bar_count)
			VALUES ($1,$2,$3,$4,$5::text::numeric,$6::text::numeric,$7::text::numeric,$8::text::numeric,$9,$10)
			ON CONFLICT (run_id, ticker, start_ts) DO UPDATE SET
				open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
				close = EXCLUDED.close, volume = EXCLUDED.volume, bar_count = EXCLUDED.bar_count`,
			runID, ticker, b.Start, b.Start.Format(time.RFC3339),
			b.Open.String(), b.High.String(), b.Low.String(), b.Close.String(),
			b.Volume, b.Count)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

func (r *PostgresRecorder) Close() error {
	log.Println("[INFO] closing postgres recorder")
	r.db.Close()
	return nil
}
