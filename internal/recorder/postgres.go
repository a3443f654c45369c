package recorder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgInsertAlertSQL = `INSERT INTO alerts (
        id,
        ticker,
        variant,
        stage,
        status,
        fired_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	pgInsertTransitionSQL = `INSERT INTO transitions (
        ticker,
        from_stage,
        to_stage,
        at,
        price,
        rsi,
        dif,
        dea
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    );`

	pgInsertScanSQL = `INSERT INTO scans (
        at,
        tickers,
        alerts,
        errors,
        duration_ms
    ) VALUES (
        $1,$2,$3,$4,$5
    );`

	pgRecentAlertsSQL = `SELECT
        id,
        ticker,
        variant,
        stage,
        status,
        fired_at
    FROM alerts
    ORDER BY fired_at DESC, id DESC
    LIMIT $1;`
)

// PostgresRecorder persists alerts, transitions and scan summaries to
// PostgreSQL through a pgx connection pool.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to PostgreSQL and runs migrations.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id       TEXT PRIMARY KEY,
			ticker   TEXT NOT NULL,
			variant  TEXT NOT NULL,
			stage    INTEGER NOT NULL,
			status   TEXT,
			fired_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_fired ON alerts(fired_at)`,

		`CREATE TABLE IF NOT EXISTS transitions (
			id         BIGSERIAL PRIMARY KEY,
			ticker     TEXT NOT NULL,
			from_stage INTEGER NOT NULL,
			to_stage   INTEGER NOT NULL,
			at         TIMESTAMPTZ NOT NULL,
			price      DOUBLE PRECISION,
			rsi        DOUBLE PRECISION,
			dif        DOUBLE PRECISION,
			dea        DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_at ON transitions(at)`,

		`CREATE TABLE IF NOT EXISTS scans (
			id          BIGSERIAL PRIMARY KEY,
			at          TIMESTAMPTZ NOT NULL,
			tickers     INTEGER NOT NULL,
			alerts      INTEGER NOT NULL,
			errors      INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_at ON scans(at)`,
	}

	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordAlert(ctx context.Context, rec AlertRecord) error {
	_, err := r.pool.Exec(ctx, pgInsertAlertSQL,
		rec.ID, rec.Ticker, rec.Variant, rec.Stage, rec.Status, rec.FiredAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordTransition(ctx context.Context, rec TransitionRecord) error {
	_, err := r.pool.Exec(ctx, pgInsertTransitionSQL,
		rec.Ticker, rec.FromStage, rec.ToStage, rec.At,
		rec.Price, rec.RSI, rec.DIF, rec.DEA,
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordScan(ctx context.Context, rec ScanRecord) error {
	_, err := r.pool.Exec(ctx, pgInsertScanSQL,
		rec.At, rec.Tickers, rec.Alerts, rec.Errors, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	rows, err := r.pool.Query(ctx, pgRecentAlertsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.Variant, &rec.Stage, &rec.Status, &rec.FiredAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
