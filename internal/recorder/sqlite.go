package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists alerts, transitions and scan summaries to a
// local SQLite database.
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

	// WAL mode for better concurrent read performance (history queries
	// while the scanner writes).
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
		`CREATE TABLE IF NOT EXISTS alerts (
			id       TEXT PRIMARY KEY,
			ticker   TEXT NOT NULL,
			variant  TEXT NOT NULL,
			stage    INTEGER NOT NULL,
			status   TEXT,
			fired_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_fired ON alerts(fired_at)`,

		`CREATE TABLE IF NOT EXISTS transitions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker     TEXT NOT NULL,
			from_stage INTEGER NOT NULL,
			to_stage   INTEGER NOT NULL,
			at         INTEGER NOT NULL,
			price      REAL,
			rsi        REAL,
			dif        REAL,
			dea        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_at ON transitions(at)`,

		`CREATE TABLE IF NOT EXISTS scans (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			at          INTEGER NOT NULL,
			tickers     INTEGER NOT NULL,
			alerts      INTEGER NOT NULL,
			errors      INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_at ON scans(at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAlert(ctx context.Context, rec AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO alerts
		(id, ticker, variant, stage, status, fired_at)
		VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.Ticker, rec.Variant, rec.Stage, rec.Status, rec.FiredAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordTransition(ctx context.Context, rec TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO transitions
		(ticker, from_stage, to_stage, at, price, rsi, dif, dea)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.Ticker, rec.FromStage, rec.ToStage, rec.At.Unix(),
		rec.Price, rec.RSI, rec.DIF, rec.DEA,
	)
	return err
}

func (r *SQLiteRecorder) RecordScan(ctx context.Context, rec ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO scans
		(at, tickers, alerts, errors, duration_ms)
		VALUES (?,?,?,?,?)`,
		rec.At.Unix(), rec.Tickers, rec.Alerts, rec.Errors, rec.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT id, ticker, variant, stage, status, fired_at
		FROM alerts ORDER BY fired_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		var firedAt int64
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.Variant, &rec.Stage, &rec.Status, &firedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		rec.FiredAt = time.Unix(firedAt, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
