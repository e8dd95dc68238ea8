// Package common provides shared utilities for FundLens
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for FundLens
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Cache       CacheConfig   `toml:"cache"`
	Clients     ClientsConfig `toml:"clients"`
	Compare     CompareConfig `toml:"compare"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Storage backends
const (
	BackendSurrealDB = "surrealdb"
	BackendPostgres  = "postgres"
	BackendEODHD     = "eodhd"
)

// StorageConfig selects and configures the fund data store.
type StorageConfig struct {
	Backend   string `toml:"backend"`   // surrealdb, postgres, eodhd
	Address   string `toml:"address"`   // SurrealDB websocket RPC address
	Namespace string `toml:"namespace"` // SurrealDB namespace
	Database  string `toml:"database"`  // SurrealDB database
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	DSN       string `toml:"dsn"` // Postgres connection string
}

// CacheConfig configures the read-through fund cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Size    int    `toml:"size"`
	TTL     string `toml:"ttl"`
}

// GetTTL parses and returns the cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return FreshnessFundProjection
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CompareConfig holds defaults for fund comparisons.
type CompareConfig struct {
	DefaultTopN    int    `toml:"default_top_n"`
	DefaultPeriod  string `toml:"default_period"`
	MaxConcurrency int    `toml:"max_concurrency"` // parallel upstream fetches
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"` // json or console
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend:   BackendSurrealDB,
			Address:   "ws://localhost:8000/rpc",
			Namespace: "fundlens",
			Database:  "funds",
			Username:  "root",
			Password:  "root",
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    512,
			TTL:     "15m",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Compare: CompareConfig{
			DefaultTopN:    50,
			DefaultPeriod:  "1Y",
			MaxConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console"},
			FilePath:   "./logs/fundlens.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	applyEnvOverrides(config)
	normalizeConfig(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDLENS_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDLENS_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FUNDLENS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FUNDLENS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage overrides
	if v := os.Getenv("FUNDLENS_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	if v := os.Getenv("FUNDLENS_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("FUNDLENS_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("FUNDLENS_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}
	if v := os.Getenv("FUNDLENS_POSTGRES_DSN"); v != "" {
		config.Storage.DSN = v
	}

	if v := os.Getenv("FUNDLENS_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Cache.Enabled = b
		}
	}

	for _, name := range []string{"EODHD_API_KEY", "FUNDLENS_EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
			break
		}
	}
}

// normalizeConfig fills invalid or missing values with defaults. An unknown
// storage backend is kept as written so the storage factory can reject it.
func normalizeConfig(config *Config) {
	defaults := NewDefaultConfig()

	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if config.Storage.Backend == "" {
		config.Storage.Backend = defaults.Storage.Backend
	}

	if config.Compare.DefaultTopN <= 0 {
		config.Compare.DefaultTopN = defaults.Compare.DefaultTopN
	}
	config.Compare.DefaultPeriod = strings.ToUpper(strings.TrimSpace(config.Compare.DefaultPeriod))
	if config.Compare.DefaultPeriod == "" {
		config.Compare.DefaultPeriod = defaults.Compare.DefaultPeriod
	}
	if config.Compare.MaxConcurrency <= 0 {
		config.Compare.MaxConcurrency = defaults.Compare.MaxConcurrency
	}
	if config.Cache.Size <= 0 {
		config.Cache.Size = defaults.Cache.Size
	}
}

// ValidateRequired returns the config keys the selected storage backend needs but lacks.
func (c *Config) ValidateRequired() []string {
	var missing []string
	switch c.Storage.Backend {
	case BackendSurrealDB:
		if c.Storage.Address == "" {
			missing = append(missing, "storage.address")
		}
		if c.Storage.Namespace == "" {
			missing = append(missing, "storage.namespace")
		}
		if c.Storage.Database == "" {
			missing = append(missing, "storage.database")
		}
	case BackendPostgres:
		if c.Storage.DSN == "" {
			missing = append(missing, "storage.dsn")
		}
	case BackendEODHD:
		if c.Clients.EODHD.APIKey == "" {
			missing = append(missing, "clients.eodhd.api_key")
		}
	}
	return missing
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
