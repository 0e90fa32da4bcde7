package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"wellobs/internal/infra/history/postgres/testutil"
	"wellobs/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesTableAndLoadsRows(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.Tables["history"] = []map[string]any{
		{"report_step": int64(2), "well": "OP_1", "variable": "WOPR", "value": 99.5, "is_default": false},
		{"report_step": int64(2), "well": "OP_1", "variable": "WWCT", "value": 0.0, "is_default": true},
	}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "postgres://ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 records hydrated, got %d", store.Len())
	}
	if v, isDefault := store.Lookup(2, "OP_1", "WOPR"); isDefault || v != 99.5 {
		t.Fatalf("unexpected lookup %v %v", v, isDefault)
	}
	if _, isDefault := store.Lookup(2, "OP_1", "WWCT"); !isDefault {
		t.Fatalf("expected default flag loaded")
	}
	if len(conn.Execs) == 0 || !strings.Contains(strings.ToUpper(conn.Execs[0]), "CREATE TABLE IF NOT EXISTS HISTORY") {
		t.Fatalf("expected history DDL first, got %v", conn.Execs)
	}
}

func TestPutUpsertsAndUpdatesMemory(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	if err := store.Put(ctx,
		domain.HistoryRecord{ReportStep: 1, Well: "OP_1", Variable: "WOPR", Value: 10},
		domain.HistoryRecord{ReportStep: 1, Well: "OP_1", Variable: "WOPR", Value: 11},
	); err != nil {
		t.Fatalf("put: %v", err)
	}
	if rows := conn.Tables["history"]; len(rows) != 1 || rows[0]["value"] != 11.0 {
		t.Fatalf("expected single upserted row, got %v", rows)
	}
	if v, _ := store.Lookup(1, "OP_1", "WOPR"); v != 11 {
		t.Fatalf("expected memory updated, got %v", v)
	}
	if store.DB() == nil {
		t.Fatalf("expected db handle")
	}
}

func TestPutFailureLeavesMemoryUntouched(t *testing.T) {
	store, conn := openStub(t)
	conn.FailCommit = true
	err := store.Put(context.Background(), domain.HistoryRecord{ReportStep: 1, Well: "W", Variable: "V", Value: 1})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no records after failed commit")
	}

	conn.FailCommit = false
	conn.FailExec = true
	if err := store.Put(context.Background(), domain.HistoryRecord{ReportStep: 1, Well: "W", Variable: "V"}); err == nil {
		t.Fatalf("expected exec error")
	}
}

func TestNewStoreErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*testutil.StubConn)
		want  string
	}{
		{"ping", func(c *testutil.StubConn) { c.FailPing = true }, "ping postgres"},
		{"ddl", func(c *testutil.StubConn) { c.FailExec = true }, "ensure history table"},
		{"select", func(c *testutil.StubConn) { c.FailQuery = true }, "select history"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, conn := testutil.NewStubDB()
			tc.setup(conn)
			restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
			defer restore()
			_, err := NewStore(context.Background(), "")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}
