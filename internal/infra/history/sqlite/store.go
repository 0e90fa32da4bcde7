// Package sqlite persists well history in a SQLite file and serves lookups
// from the embedded in-memory store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"wellobs/internal/infra/history/memory"
	"wellobs/pkg/domain"
)

var _ domain.HistoryStore = (*Store)(nil)

// Store hydrates history rows into memory on open and writes through on Put.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the SQLite history database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "wellobs.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		report_step INTEGER NOT NULL,
		well TEXT NOT NULL,
		variable TEXT NOT NULL,
		value REAL NOT NULL,
		is_default INTEGER NOT NULL,
		PRIMARY KEY (report_step, well, variable)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT report_step, well, variable, value, is_default FROM history`)
	if err != nil {
		return fmt.Errorf("select history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var records []domain.HistoryRecord
	for rows.Next() {
		var r domain.HistoryRecord
		var isDefault int
		if err := rows.Scan(&r.ReportStep, &r.Well, &r.Variable, &r.Value, &isDefault); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		r.IsDefault = isDefault != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate history: %w", err)
	}
	s.Store.Put(records...)
	return nil
}

// Put upserts records in one transaction, then makes them visible to Lookup.
func (s *Store) Put(ctx context.Context, records ...domain.HistoryRecord) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, r := range records {
		isDefault := 0
		if r.IsDefault {
			isDefault = 1
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO history(report_step,well,variable,value,is_default) VALUES(?,?,?,?,?)
			ON CONFLICT(report_step,well,variable) DO UPDATE SET value=excluded.value, is_default=excluded.is_default`,
			r.ReportStep, r.Well, r.Variable, r.Value, isDefault); err != nil {
			return fmt.Errorf("upsert %s/%s@%d: %w", r.Well, r.Variable, r.ReportStep, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.Store.Put(records...)
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
