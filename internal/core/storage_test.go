package core

import (
	"context"
	"path/filepath"
	"testing"

	"wellobs/internal/infra/history/sqlite"
	"wellobs/internal/platform/config"
	"wellobs/pkg/domain"
)

func TestOpenHistoryStoreMemory(t *testing.T) {
	ctx := context.Background()
	hist, err := OpenHistoryStore(ctx, config.Config{HistoryDriver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = hist.Close() }()
	if err := hist.Put(ctx, domain.HistoryRecord{ReportStep: 1, Well: "OP_1", Variable: "WOPR", Value: 9}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if v, isDefault := hist.Lookup(1, "OP_1", "WOPR"); isDefault || v != 9 {
		t.Fatalf("unexpected lookup %v %v", v, isDefault)
	}
}

func TestOpenHistoryStoreSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	hist, err := OpenHistoryStore(ctx, config.Config{HistoryDriver: "sqlite", SQLitePath: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = hist.Close() }()
	store, ok := hist.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", hist)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
}

func TestOpenHistoryStoreUnknown(t *testing.T) {
	if _, err := OpenHistoryStore(context.Background(), config.Config{HistoryDriver: "cassandra"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestBlobConfigFromEnvConfig(t *testing.T) {
	cfg := config.Config{BlobDriver: "s3", BlobFSRoot: "/data"}
	cfg.S3.Bucket = "obs"
	cfg.S3.PathStyle = true
	cfg.S3.AccessKeyID = "id"
	bc := BlobConfig(cfg)
	if string(bc.Driver) != "s3" || bc.FSRoot != "/data" || bc.S3.Bucket != "obs" || !bc.S3.PathStyle || bc.S3.AccessKeyID != "id" {
		t.Fatalf("unexpected blob config %+v", bc)
	}
}
