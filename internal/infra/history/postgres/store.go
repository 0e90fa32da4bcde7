// Package postgres persists well history in PostgreSQL and serves lookups
// from the embedded in-memory store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"wellobs/internal/infra/history/memory"
	"wellobs/pkg/domain"
)

var _ domain.HistoryStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/wellobs?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store hydrates history rows into memory on open and writes through on Put.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed history store using dsn (falls back to defaultDSN).
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureHistoryTable(ctx, db); err != nil {
		return nil, err
	}
	records, err := loadHistory(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.Put(records...)
	return &Store{Store: mem, db: db}, nil
}

func ensureHistoryTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS history (
		report_step INTEGER NOT NULL,
		well TEXT NOT NULL,
		variable TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		is_default BOOLEAN NOT NULL,
		PRIMARY KEY (report_step, well, variable)
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure history table: %w", err)
	}
	return nil
}

func loadHistory(ctx context.Context, db *sql.DB) ([]domain.HistoryRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT report_step, well, variable, value, is_default FROM history`)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var records []domain.HistoryRecord
	for rows.Next() {
		var r domain.HistoryRecord
		if err := rows.Scan(&r.ReportStep, &r.Well, &r.Variable, &r.Value, &r.IsDefault); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Put upserts records in one transaction, then makes them visible to Lookup.
func (s *Store) Put(ctx context.Context, records ...domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `INSERT INTO history(report_step,well,variable,value,is_default) VALUES($1,$2,$3,$4,$5)
			ON CONFLICT(report_step,well,variable) DO UPDATE SET value=EXCLUDED.value, is_default=EXCLUDED.is_default`,
			r.ReportStep, r.Well, r.Variable, r.Value, r.IsDefault); err != nil {
			return fmt.Errorf("upsert %s/%s@%d: %w", r.Well, r.Variable, r.ReportStep, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	s.Store.Put(records...)
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
