// Package blob exposes the blob store contract and selects a driver from
// configuration. Well observation specs and catalogs are read through it.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"wellobs/internal/blob/core"
	"wellobs/internal/infra/blob/fs"
	"wellobs/internal/infra/blob/memory"
	"wellobs/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3 driver.
	S3Config = s3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory

	// ContentTypeObsSpec labels well observation spec blobs.
	ContentTypeObsSpec = core.ContentTypeObsSpec
	// ContentTypeCatalog labels well catalog blobs.
	ContentTypeCatalog = core.ContentTypeCatalog
)

var (
	// ErrNotFound matches missing-key errors from every driver.
	ErrNotFound = core.ErrNotFound
	// ErrExists matches create-only conflicts from every driver.
	ErrExists = core.ErrExists
)

// Config selects and configures a blob driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open constructs the configured blob.Store. An empty driver selects the filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// ReadAll fetches the full contents of key.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// PutBytes stores data at key, replacing any existing blob.
func PutBytes(ctx context.Context, store Store, key, contentType string, data []byte) (Info, error) {
	return store.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: contentType, Overwrite: true})
}

// NewMockS3ForTests exposes the in-memory S3 fake for cross-package tests.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
