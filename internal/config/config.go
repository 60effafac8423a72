// Package config handles loading and validating Docshelf configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Config is the root configuration for Docshelf.
type Config struct {
	Workspace     string               `json:"workspace,omitempty" yaml:"workspace,omitempty"` // Workspace root. Default: ~/.docshelf/workspace. Override: DOCSHELF_WORKSPACE env var.
	Server        ServerConfig         `json:"server" yaml:"server"`
	Storage       *StorageConfig       `json:"storage,omitempty" yaml:"storage,omitempty"`             // nil = SQLite default (derived from workspace)
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"` // nil = observability disabled
	Maintenance   *MaintenanceConfig   `json:"maintenance,omitempty" yaml:"maintenance,omitempty"`     // nil = background jobs disabled
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr       string `json:"addr" yaml:"addr"`               // Default: ":8080".
	APIKey     string `json:"api_key" yaml:"api_key"`         // Required for tenant endpoints. Override: DOCSHELF_API_KEY env var.
	AdminToken string `json:"admin_token" yaml:"admin_token"` // Required for /admin endpoints. Override: DOCSHELF_ADMIN_TOKEN env var.

	// RatePerTenant is the sustained request rate allowed per tenant, in
	// requests per second. 0 disables rate limiting.
	RatePerTenant float64 `json:"rate_per_tenant" yaml:"rate_per_tenant"`
	RateBurst     int     `json:"rate_burst" yaml:"rate_burst"` // Default: 2x rate, minimum 1.
}

// ListenAddr returns the listen address, defaulting to ":8080".
func (s *ServerConfig) ListenAddr() string {
	if s.Addr != "" {
		return s.Addr
	}
	return ":8080"
}

// StorageConfig configures the persistence backend.
// When nil, defaults to SQLite with the database path derived from the workspace.
type StorageConfig struct {
	Driver   string                 `json:"driver" yaml:"driver"`                         // "sqlite" (default) or "postgres".
	SQLite   *SQLiteStorageConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`     // SQLite-specific settings.
	Postgres *PostgresStorageConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"` // PostgreSQL-specific settings.
}

// StorageDriver returns the configured driver, defaulting to "sqlite".
func (s *StorageConfig) StorageDriver() string {
	if s != nil && s.Driver != "" {
		return s.Driver
	}
	return "sqlite"
}

// SQLiteStorageConfig holds SQLite-specific settings.
type SQLiteStorageConfig struct {
	Path        string `json:"path,omitempty" yaml:"path,omitempty"` // Database file path. Default: derived from workspace.
	JournalMode string `json:"journal_mode" yaml:"journal_mode"`     // "wal" (default), "delete", "truncate", etc.
}

// PostgresStorageConfig holds PostgreSQL-specific settings.
type PostgresStorageConfig struct {
	DSN              string `json:"dsn" yaml:"dsn"` // Override: DOCSHELF_DB_DSN env var.
	MaxOpenConns     int    `json:"max_open_conns" yaml:"max_open_conns"`           // Default: 25
	MaxIdleConns     int    `json:"max_idle_conns" yaml:"max_idle_conns"`           // Default: 5
	ConnMaxLifetimeS int    `json:"conn_max_lifetime_s" yaml:"conn_max_lifetime_s"` // Default: 1800 (30 min)
}

// ObservabilityConfig configures metrics, tracing, and health checks.
// When nil, all observability features are disabled with zero overhead.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Health  *HealthConfig  `json:"health,omitempty" yaml:"health,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// TracingConfig configures OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "docshelf"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0–1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`         // Skip TLS for dev
}

// HealthConfig configures dependency health checks for readiness probes.
type HealthConfig struct {
	IncludeDB bool `json:"include_db" yaml:"include_db"`
}

// MaintenanceConfig configures the background job scheduler.
type MaintenanceConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// PurgeSchedule is the cron spec for hard-deleting soft-deleted rows.
	// Default: "0 3 * * *" (daily at 03:00).
	PurgeSchedule string `json:"purge_schedule" yaml:"purge_schedule"`

	// RetentionDays is how long soft-deleted rows survive before the purge
	// sweep removes them. Default: 30.
	RetentionDays int `json:"retention_days" yaml:"retention_days"`

	// ClassifierSchedule is the cron spec for refreshing each tenant's
	// classifier artifact. Default: "30 3 * * *".
	ClassifierSchedule string `json:"classifier_schedule" yaml:"classifier_schedule"`
}

// PurgeCron returns the purge cron spec, defaulting to daily at 03:00.
func (m *MaintenanceConfig) PurgeCron() string {
	if m.PurgeSchedule != "" {
		return m.PurgeSchedule
	}
	return "0 3 * * *"
}

// ClassifierCron returns the classifier refresh cron spec.
func (m *MaintenanceConfig) ClassifierCron() string {
	if m.ClassifierSchedule != "" {
		return m.ClassifierSchedule
	}
	return "30 3 * * *"
}

// Retention returns the soft-delete retention in days, defaulting to 30.
func (m *MaintenanceConfig) Retention() int {
	if m.RetentionDays > 0 {
		return m.RetentionDays
	}
	return 30
}

// DefaultConfigPath returns the default config file path (~/.docshelf/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "configs/docshelf.yaml" // fallback for environments without a home dir
	}
	return filepath.Join(home, ".docshelf", "config.yaml")
}

// Load reads a JSON or YAML config file and returns a validated Config.
// The format is detected by file extension: .yml/.yaml for YAML, everything
// else for JSON. Secrets can be set in the config file or overridden by
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	// Expand ~ in config path.
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", resolved, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides. Env vars take precedence
// over config file values.
func (c *Config) applyEnv() {
	if envWS := os.Getenv("DOCSHELF_WORKSPACE"); envWS != "" {
		c.Workspace = envWS
	}
	if envAddr := os.Getenv("DOCSHELF_LISTEN_ADDR"); envAddr != "" {
		c.Server.Addr = envAddr
	}
	if envKey := os.Getenv("DOCSHELF_API_KEY"); envKey != "" {
		c.Server.APIKey = envKey
	}
	if envKey := os.Getenv("DOCSHELF_ADMIN_TOKEN"); envKey != "" {
		c.Server.AdminToken = envKey
	}
	if envDSN := os.Getenv("DOCSHELF_DB_DSN"); envDSN != "" {
		if c.Storage == nil {
			c.Storage = &StorageConfig{Driver: "postgres"}
		}
		if c.Storage.Postgres == nil {
			c.Storage.Postgres = &PostgresStorageConfig{}
		}
		c.Storage.Postgres.DSN = envDSN
	}
	if envDriver := os.Getenv("DOCSHELF_STORAGE_DRIVER"); envDriver != "" {
		if c.Storage == nil {
			c.Storage = &StorageConfig{}
		}
		c.Storage.Driver = envDriver
	}
}

// StorageDriverName returns the effective storage driver name.
func (c *Config) StorageDriverName() string {
	if c.Storage != nil {
		return c.Storage.StorageDriver()
	}
	return "sqlite"
}

func (c *Config) validate() error {
	// Storage driver validation.
	if c.Storage != nil && c.Storage.Driver != "" {
		switch c.Storage.Driver {
		case "sqlite", "postgres":
			// valid
		default:
			return fmt.Errorf("storage.driver %q is not supported (use sqlite or postgres)", c.Storage.Driver)
		}
	}
	if c.StorageDriverName() == "postgres" {
		if c.Storage == nil || c.Storage.Postgres == nil || c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres driver (set DOCSHELF_DB_DSN env var)")
		}
	}
	if c.Server.RatePerTenant < 0 {
		return fmt.Errorf("server.rate_per_tenant must not be negative")
	}
	if c.Server.RateBurst < 0 {
		return fmt.Errorf("server.rate_burst must not be negative")
	}
	if c.Observability != nil && c.Observability.Tracing != nil && c.Observability.Tracing.Enabled {
		t := c.Observability.Tracing
		if t.Endpoint == "" {
			return fmt.Errorf("observability.tracing.endpoint is required when tracing is enabled")
		}
		switch t.Protocol {
		case "", "grpc", "http":
			// valid
		default:
			return fmt.Errorf("observability.tracing.protocol %q is not supported (use grpc or http)", t.Protocol)
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			return fmt.Errorf("observability.tracing.sample_rate must be between 0 and 1")
		}
	}
	if c.Maintenance != nil && c.Maintenance.RetentionDays < 0 {
		return fmt.Errorf("maintenance.retention_days must not be negative")
	}
	return nil
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
