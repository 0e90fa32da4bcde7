package core

import (
	"context"
	"fmt"

	"wellobs/internal/blob"
	"wellobs/internal/infra/history/memory"
	"wellobs/internal/infra/history/postgres"
	"wellobs/internal/infra/history/sqlite"
	"wellobs/internal/platform/config"
	"wellobs/pkg/domain"
)

// HistoryBackend is a history store that accepts writes, can be inspected,
// and owns resources.
type HistoryBackend interface {
	domain.HistoryStore
	Put(ctx context.Context, records ...domain.HistoryRecord) error
	Len() int
	Records() []domain.HistoryRecord
	ReportSteps() []int
	Close() error
}

var (
	_ HistoryBackend = memoryHistory{}
	_ HistoryBackend = (*sqlite.Store)(nil)
	_ HistoryBackend = (*postgres.Store)(nil)
)

type memoryHistory struct {
	*memory.Store
}

func (m memoryHistory) Put(_ context.Context, records ...domain.HistoryRecord) error {
	m.Store.Put(records...)
	return nil
}

func (memoryHistory) Close() error { return nil }

// OpenHistoryStore selects the history backend named by cfg.HistoryDriver.
func OpenHistoryStore(ctx context.Context, cfg config.Config) (HistoryBackend, error) {
	switch cfg.HistoryDriver {
	case "", "memory":
		return memoryHistory{Store: memory.NewStore()}, nil
	case "sqlite":
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
}

// BlobConfig maps process configuration onto the blob driver config.
func BlobConfig(cfg config.Config) blob.Config {
	return blob.Config{
		Driver: blob.Driver(cfg.BlobDriver),
		FSRoot: cfg.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		},
	}
}
