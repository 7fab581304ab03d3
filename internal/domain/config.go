package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLSEnabled   bool          `mapstructure:"tls_enabled"`
	CertFile     string        `mapstructure:"cert_file"`
	KeyFile      string        `mapstructure:"key_file"`
}

// DatabaseConfig represents the remote Postgres connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MinOpenConns    int           `mapstructure:"min_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// StoreConfig represents the client-local snapshot store configuration
type StoreConfig struct {
	// Backend selects "sqlite" or "postgres" for the snapshot store.
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	// PostgresURL is used when Backend is "postgres".
	PostgresURL string `mapstructure:"postgres_url"`
}

// CacheConfig represents the client cache (Redis) configuration
type CacheConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

// GeneratorConfig represents the external recommendation generator
// (OpenAI-compatible chat completions endpoint) configuration
type GeneratorConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   int           `mapstructure:"rate_limit"` // requests per second
	CacheURL    string        `mapstructure:"cache_url"`  // Redis URL for response cache
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

// EngineConfig represents scoring engine configuration
type EngineConfig struct {
	// HeuristicsVersion pins the constant set recorded on assessments.
	HeuristicsVersion string `mapstructure:"heuristics_version"`
	// MemoizeSize is the LRU capacity for repeated identical profiles.
	MemoizeSize int `mapstructure:"memoize_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
