// Package config loads process configuration from WELLOBS_* environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration for loading well observation sets
// and running assimilation steps.
type Config struct {
	BlobDriver string `env:"WELLOBS_BLOB_DRIVER" envDefault:"fs"`
	BlobFSRoot string `env:"WELLOBS_BLOB_FS_ROOT" envDefault:"./obsdata"`
	S3         S3

	HistoryDriver string `env:"WELLOBS_HISTORY_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"WELLOBS_SQLITE_PATH" envDefault:"wellobs.db"`
	PostgresDSN   string `env:"WELLOBS_POSTGRES_DSN"`

	Catalog    string `env:"WELLOBS_CATALOG" envDefault:"wells.json"`
	DerivedStd bool   `env:"WELLOBS_DERIVED_STD" envDefault:"false"`
	Workers    int    `env:"WELLOBS_WORKERS" envDefault:"0"`
	Metrics    string `env:"WELLOBS_METRICS" envDefault:"prometheus"`
}

// S3 configures the S3 blob driver.
type S3 struct {
	Bucket    string `env:"WELLOBS_BLOB_S3_BUCKET"`
	Region    string `env:"WELLOBS_BLOB_S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"WELLOBS_BLOB_S3_ENDPOINT"`
	PathStyle bool   `env:"WELLOBS_BLOB_S3_PATH_STYLE" envDefault:"false"`

	AccessKeyID     string `env:"WELLOBS_BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"WELLOBS_BLOB_S3_SECRET_ACCESS_KEY"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and validates driver names.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	switch cfg.BlobDriver {
	case "fs", "s3", "memory":
	default:
		return Config{}, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
	switch cfg.HistoryDriver {
	case "memory", "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
	switch cfg.Metrics {
	case "prometheus", "expvar":
	default:
		return Config{}, fmt.Errorf("unknown metrics backend %q", cfg.Metrics)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	return cfg, nil
}
