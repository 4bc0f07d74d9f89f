// Package storage persists closed positions and parsed container
// columns across process runs in a WAL-mode SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/quantlab/backtestcore/internal/domain"
)

// Store is a SQLite-backed persistence layer for closed positions and
// a parsed-container cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite store with WAL mode
// enabled.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("storage: set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS closed_positions (
			position_id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			strategy_id TEXT NOT NULL,
			instrument_id TEXT NOT NULL,
			side TEXT NOT NULL,
			peak_qty TEXT NOT NULL,
			avg_px_open TEXT NOT NULL,
			avg_px_close TEXT NOT NULL,
			realized_pnl TEXT NOT NULL,
			realized_pnl_ccy TEXT NOT NULL,
			commission TEXT NOT NULL,
			opened_ts_ns INTEGER NOT NULL,
			closed_ts_ns INTEGER NOT NULL,
			open_duration_ns INTEGER NOT NULL,
			events BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS container_cache (
			fingerprint TEXT PRIMARY KEY,
			tick_count INTEGER NOT NULL,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("storage: create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// SaveClosedPosition persists a flat (closed) position for later
// reporting or audit, adapted from EventStore.SaveEvent's
// marshal-then-insert shape.
func (s *Store) SaveClosedPosition(ctx context.Context, p *domain.Position) error {
	if p.IsOpen() {
		return fmt.Errorf("storage: position %s is not closed", p.PositionId)
	}

	payload, err := json.Marshal(p.Events())
	if err != nil {
		return fmt.Errorf("storage: marshal events: %w", err)
	}

	avgOpen, avgClose := "", ""
	if p.AvgPxOpen != nil {
		avgOpen = p.AvgPxOpen.String()
	}
	if p.AvgPxClose != nil {
		avgClose = p.AvgPxClose.String()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO closed_positions
			(position_id, account_id, strategy_id, instrument_id, side, peak_qty,
			 avg_px_open, avg_px_close, realized_pnl, realized_pnl_ccy, commission,
			 opened_ts_ns, closed_ts_ns, open_duration_ns, events)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(position_id) DO UPDATE SET
			 side=excluded.side, peak_qty=excluded.peak_qty,
			 avg_px_open=excluded.avg_px_open, avg_px_close=excluded.avg_px_close,
			 realized_pnl=excluded.realized_pnl, realized_pnl_ccy=excluded.realized_pnl_ccy,
			 commission=excluded.commission, closed_ts_ns=excluded.closed_ts_ns,
			 open_duration_ns=excluded.open_duration_ns, events=excluded.events`,
		string(p.PositionId), string(p.AccountId), string(p.StrategyId), p.InstrumentId.String(),
		p.Side.String(), p.PeakQty.String(), avgOpen, avgClose,
		p.RealizedPnl.Amount.String(), p.RealizedPnl.Currency.Code, p.Commission.Amount.String(),
		p.OpenedTsNs, p.ClosedTsNs, p.OpenDurationNs, payload,
	)
	if err != nil {
		return fmt.Errorf("storage: insert closed position: %w", err)
	}
	return nil
}

// ClosedPositionCount returns how many closed positions have been
// persisted, for diagnostics/tests.
func (s *Store) ClosedPositionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM closed_positions").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage: count closed positions: %w", err)
	}
	return n, nil
}

// SaveContainerCache stores a materialized tick payload for a
// container fingerprint, so a later process can skip re-parsing
// source columns for the same container.
func (s *Store) SaveContainerCache(ctx context.Context, fingerprint string, tickCount int, payload []byte, updatedAtUnix int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO container_cache (fingerprint, tick_count, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			 tick_count=excluded.tick_count, payload=excluded.payload, updated_at=excluded.updated_at`,
		fingerprint, tickCount, payload, updatedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("storage: save container cache: %w", err)
	}
	return nil
}

// LoadContainerCache retrieves a previously-saved tick payload for a
// container fingerprint. ok is false if no cache entry exists.
func (s *Store) LoadContainerCache(ctx context.Context, fingerprint string) (payload []byte, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT payload FROM container_cache WHERE fingerprint = ?", fingerprint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: load container cache: %w", err)
	}
	return payload, true, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
