// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. It is validated once at
// load time and treated as immutable afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// MonitorConfig defines monitoring engine settings. The polling interval
// itself lives in the store (operator-editable); these are the fixed bounds
// around it.
type MonitorConfig struct {
	// MinInterval is the floor applied to the stored polling interval.
	MinInterval time.Duration `yaml:"min_interval"`
	// ScrapeTimeout bounds a single scraper call.
	ScrapeTimeout time.Duration `yaml:"scrape_timeout"`
	// NotifyTimeout bounds a single channel delivery.
	NotifyTimeout time.Duration `yaml:"notify_timeout"`
	// MarketURL is the marketplace base URL the scraper talks to.
	MarketURL string `yaml:"market_url"`
	// RateLimit controls scraper request pacing.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// HistoryRetentionDays bounds price history growth; the pruning job
	// removes entries older than this. Zero disables pruning.
	HistoryRetentionDays int `yaml:"history_retention_days"`
	// PruneInterval is how often the pruning job runs.
	PruneInterval time.Duration `yaml:"prune_interval"`
	// Autostart begins monitoring on serve startup.
	Autostart bool `yaml:"autostart"`
}

// RateLimitConfig defines scraper request rate limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// TelemetryConfig defines OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP gRPC endpoint, host:port
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyMonitorDefaults(&cfg.Monitor)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyMonitorDefaults(m *MonitorConfig) {
	if m.MinInterval == 0 {
		m.MinInterval = 5 * time.Second
	}
	if m.ScrapeTimeout == 0 {
		m.ScrapeTimeout = 30 * time.Second
	}
	if m.NotifyTimeout == 0 {
		m.NotifyTimeout = 10 * time.Second
	}
	if m.MarketURL == "" {
		m.MarketURL = "https://snkrdunk.com"
	}
	if m.RateLimit.PerSecond == 0 {
		m.RateLimit.PerSecond = 2.0
	}
	if m.RateLimit.Burst == 0 {
		m.RateLimit.Burst = 4
	}
	if m.HistoryRetentionDays == 0 {
		m.HistoryRetentionDays = 180
	}
	if m.PruneInterval == 0 {
		m.PruneInterval = 24 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Monitor.MinInterval < time.Second {
		errs = append(errs, fmt.Errorf("monitor.min_interval must be at least 1s"))
	}
	if cfg.Monitor.HistoryRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("monitor.history_retention_days must not be negative"))
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry.endpoint is required when telemetry is enabled"))
	}

	return errors.Join(errs...)
}
