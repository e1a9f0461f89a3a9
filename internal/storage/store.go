// Package storage persists tick streams and backtest runs in SQLite.
// Ticks are the input side: recorded from a live feed or imported, keyed
// by stream name. Runs are the output side: one row per backtest run plus
// its fills and equity curve, keyed by a run id.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/boryxf/ag-kernel/internal/domain"
)

// RunStore handles persistent storage of ticks and backtest results.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens (or creates) the SQLite database with WAL mode enabled.
func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			stream TEXT NOT NULL,
			seq INTEGER NOT NULL,
			ts_ms INTEGER NOT NULL,
			price_tick INTEGER NOT NULL,
			qty REAL NOT NULL,
			side INTEGER NOT NULL,
			PRIMARY KEY (stream, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			stream TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			arithmetic TEXT NOT NULL,
			final_equity REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			precision_loss INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS fills (
			run_id TEXT NOT NULL REFERENCES runs(id),
			order_id INTEGER NOT NULL,
			ts_ms INTEGER NOT NULL,
			type INTEGER NOT NULL,
			side INTEGER NOT NULL,
			price REAL NOT NULL,
			qty REAL NOT NULL,
			notional REAL NOT NULL,
			fee REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL REFERENCES runs(id),
			ts_ms INTEGER NOT NULL,
			cash REAL NOT NULL,
			position REAL NOT NULL,
			avg_entry REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			unrealized_pnl REAL NOT NULL,
			equity REAL NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &RunStore{db: db}, nil
}

// AppendTick stores one tick under the named stream. Seq is the caller's
// monotonic counter; duplicate seqs are rejected by the primary key.
func (s *RunStore) AppendTick(ctx context.Context, stream string, seq int64, t domain.Tick) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ticks (stream, seq, ts_ms, price_tick, qty, side) VALUES (?, ?, ?, ?, ?, ?)",
		stream, seq, t.TsMs, t.PriceTick, t.Qty, t.Side,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tick: %w", err)
	}
	return nil
}

// LastSeq returns the highest tick sequence stored for the stream, 0 when
// the stream is empty.
func (s *RunStore) LastSeq(ctx context.Context, stream string) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(seq) FROM ticks WHERE stream = ?", stream).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

// LoadTicks loads the full tick stream in sequence order.
func (s *RunStore) LoadTicks(ctx context.Context, stream string) ([]domain.Tick, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ts_ms, price_tick, qty, side FROM ticks WHERE stream = ? ORDER BY seq ASC",
		stream,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []domain.Tick
	for rows.Next() {
		var t domain.Tick
		if err := rows.Scan(&t.TsMs, &t.PriceTick, &t.Qty, &t.Side); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return ticks, nil
}

// RunResult is everything a finished backtest run persists.
type RunResult struct {
	ID            string
	Stream        string
	StartedAtMs   int64
	Arithmetic    string
	FinalEquity   float64
	RealizedPnL   float64
	PrecisionLoss uint64
	Fills         []domain.FillRecord
	History       []domain.Snapshot
}

// SaveRun persists one run with its fills and equity curve in a single
// transaction: a run row either lands complete or not at all.
func (s *RunStore) SaveRun(ctx context.Context, r RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, stream, started_at, arithmetic, final_equity, realized_pnl, precision_loss) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Stream, r.StartedAtMs, r.Arithmetic, r.FinalEquity, r.RealizedPnL, r.PrecisionLoss,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, f := range r.Fills {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO fills (run_id, order_id, ts_ms, type, side, price, qty, notional, fee) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			r.ID, f.OrderID, f.TsMs, f.Type, f.Side, f.Price, f.Qty, f.Notional, f.Fee,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fill: %w", err)
		}
	}

	for _, snap := range r.History {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO snapshots (run_id, ts_ms, cash, position, avg_entry, realized_pnl, unrealized_pnl, equity) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			r.ID, snap.TsMs, snap.Cash, snap.Position, snap.AvgEntryPrice, snap.RealizedPnL, snap.UnrealizedPnL, snap.Equity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRun retrieves a run row by id. Fills and snapshots are loaded
// separately when needed.
func (s *RunStore) LoadRun(ctx context.Context, id string) (RunResult, error) {
	var r RunResult
	err := s.db.QueryRowContext(ctx,
		"SELECT id, stream, started_at, arithmetic, final_equity, realized_pnl, precision_loss FROM runs WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Stream, &r.StartedAtMs, &r.Arithmetic, &r.FinalEquity, &r.RealizedPnL, &r.PrecisionLoss)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return r, nil
}

// LoadFills retrieves the fill records of a run in insertion order.
func (s *RunStore) LoadFills(ctx context.Context, runID string) ([]domain.FillRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT order_id, ts_ms, type, side, price, qty, notional, fee FROM fills WHERE run_id = ? ORDER BY rowid ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fills: %w", err)
	}
	defer rows.Close()

	var fills []domain.FillRecord
	for rows.Next() {
		var f domain.FillRecord
		if err := rows.Scan(&f.OrderID, &f.TsMs, &f.Type, &f.Side, &f.Price, &f.Qty, &f.Notional, &f.Fee); err != nil {
			return nil, fmt.Errorf("failed to scan fill: %w", err)
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}
