// Package config loads pipeline configuration from YAML with
// environment-variable expansion.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Store backends.
const (
	StorePostgres   = "postgres"
	StoreClickhouse = "clickhouse"
	StoreMemory     = "memory"
)

// PipelineConfig is the root configuration for a pipeline instance.
type PipelineConfig struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Pipeline RunConfig      `yaml:"pipeline"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// APIConfig holds pricing-source settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig selects and configures the store backend.
type DatabaseConfig struct {
	Store         string `yaml:"store"` // postgres | clickhouse | memory
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// RunConfig holds per-run pipeline settings.
type RunConfig struct {
	SnapshotLimit    int  `yaml:"snapshot_limit"`
	SkipExistingDate bool `yaml:"skip_existing_date"`
}

// WorkerConfig holds scheduled-worker settings.
type WorkerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// applyDefaults fills unset fields with sensible defaults.
func (c *PipelineConfig) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Database.Store == "" {
		c.Database.Store = StorePostgres
	}
	if c.Pipeline.SnapshotLimit == 0 {
		c.Pipeline.SnapshotLimit = 50
	}
	if c.Worker.Interval == 0 {
		c.Worker.Interval = time.Hour
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 2
	}
	if c.Worker.RetryDelay == 0 {
		c.Worker.RetryDelay = 60 * time.Second
	}
	if c.Worker.MetricsAddr == "" {
		c.Worker.MetricsAddr = ":9090"
	}
}

// Validate checks that all required fields are set and values are valid.
func (c *PipelineConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Pipeline.SnapshotLimit < 1 {
		return errors.New("pipeline.snapshot_limit must be >= 1")
	}

	switch c.Database.Store {
	case StorePostgres:
		if c.Database.PostgresDSN == "" {
			return errors.New("database.postgres_dsn is required for the postgres store")
		}
	case StoreClickhouse:
		if c.Database.ClickhouseDSN == "" {
			return errors.New("database.clickhouse_dsn is required for the clickhouse store")
		}
	case StoreMemory:
		// nothing to validate
	default:
		return fmt.Errorf("database.store must be postgres, clickhouse or memory, got %q", c.Database.Store)
	}

	if c.Worker.MaxRetries < 0 {
		return errors.New("worker.max_retries must be >= 0")
	}

	return nil
}
