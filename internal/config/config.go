// Package config defines the typed configuration structs for the server
// and worker binaries, loaded from environment variables via internal/env.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/keepup/internal/env"
)

// ErrDSNRequired is returned when the store DSN is not configured.
var ErrDSNRequired = errors.New("KEEPUP_STORE_DSN is required")

// StorageConfig holds the postgres connection pool configuration.
type StorageConfig struct {
	DSN             string        `env:"KEEPUP_STORE_DSN"`
	MaxOpenConns    int           `env:"KEEPUP_STORE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"KEEPUP_STORE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"KEEPUP_STORE_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `env:"KEEPUP_STORE_CONN_MAX_IDLE_TIME" default:"1m"`
}

// Validate checks the store configuration.
func (c *StorageConfig) Validate() error {
	if c.DSN == "" {
		return ErrDSNRequired
	}
	return nil
}

// ObservabilityConfig holds OpenTelemetry configuration shared by both binaries.
type ObservabilityConfig struct {
	OTelEnabled   bool   `env:"KEEPUP_OTEL_ENABLED" default:"true"`
	OTelCollector string `env:"KEEPUP_OTEL_COLLECTOR" default:"localhost:4317"`
	ServiceName   string `env:"OTEL_SERVICE_NAME" default:"keepup"`
}

// PaginationConfig bounds the page size httpapi list endpoints accept.
type PaginationConfig struct {
	DefaultLimit int `env:"KEEPUP_DEFAULT_LIMIT" default:"50"`
	MaxLimit     int `env:"KEEPUP_MAX_LIMIT" default:"200"`
}

// Validate checks that the max limit does not undercut the default.
func (c *PaginationConfig) Validate() error {
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("KEEPUP_MAX_LIMIT (%d) must be >= KEEPUP_DEFAULT_LIMIT (%d)", c.MaxLimit, c.DefaultLimit)
	}
	return nil
}

// ServerConfig holds all configuration for the HTTP API binary.
type ServerConfig struct {
	Storage       StorageConfig
	Observability ObservabilityConfig
	Pagination    PaginationConfig

	HTTPHost          string        `env:"KEEPUP_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort          string        `env:"KEEPUP_HTTP_PORT" default:"8080"`
	ReadTimeout       time.Duration `env:"KEEPUP_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `env:"KEEPUP_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `env:"KEEPUP_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `env:"KEEPUP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadServerConfig loads and validates server configuration from the environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	return cfg, nil
}

// WorkerConfig holds all configuration for the materializer worker binary.
type WorkerConfig struct {
	Storage       StorageConfig
	Observability ObservabilityConfig

	Interval        time.Duration `env:"KEEPUP_WORKER_INTERVAL" default:"5m"`
	ShutdownTimeout time.Duration `env:"KEEPUP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadWorkerConfig loads and validates worker configuration from the environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("load worker config: %w", err)
	}
	return cfg, nil
}
