// Package config loads the service configuration from defaults, an optional file and
// LIBRARY_* environment variables.
package config

import "time"

// Store backends for the catalog.
const (
	StoreMongoDB = "mongodb"
	StoreMemory  = "memory"
)

// Rate limiter key sources.
const (
	RateLimitKeyIP     = "ip"
	RateLimitKeyGlobal = "global"
)

// Config is the root configuration structure.
type Config struct {
	Service       ServiceConfig       `mapstructure:"service" yaml:"service"`
	HTTP          HTTPConfig          `mapstructure:"http" yaml:"http"`
	Management    ManagementConfig    `mapstructure:"management" yaml:"management"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit" yaml:"rate_limit"`
	Catalog       CatalogConfig       `mapstructure:"catalog" yaml:"catalog"`
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// ManagementConfig configures the management server
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MTLSEnabled  bool          `mapstructure:"mtls_enabled" yaml:"mtls_enabled"`
	TLSCertFile  string        `mapstructure:"tls_cert_file" yaml:"tls_cert_file,omitempty"`
	TLSKeyFile   string        `mapstructure:"tls_key_file" yaml:"tls_key_file,omitempty"`
	TLSCAFile    string        `mapstructure:"tls_ca_file" yaml:"tls_ca_file,omitempty"`
}

// DatabaseConfig configures the MongoDB connection.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	DatabaseName   string        `mapstructure:"database_name" yaml:"database_name"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
}

// ObservabilityConfig configures logging and tracing.
type ObservabilityConfig struct {
	LogLevel          string               `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string               `mapstructure:"log_format" yaml:"log_format"` // json, text
	ServiceName       string               `mapstructure:"service_name" yaml:"service_name,omitempty"`
	TracingEnabled    bool                 `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	TracingSampleRate float64              `mapstructure:"tracing_sample_rate" yaml:"tracing_sample_rate"`
	TracingEndpoint   string               `mapstructure:"tracing_endpoint" yaml:"tracing_endpoint,omitempty"`
	RequestLogging    RequestLoggingConfig `mapstructure:"request_logging" yaml:"request_logging"`
}

// RequestLoggingConfig configures HTTP request logging middleware behavior.
type RequestLoggingConfig struct {
	Enabled              bool                `mapstructure:"enabled" yaml:"enabled"`
	LogStart             bool                `mapstructure:"log_start" yaml:"log_start"`
	ExcludedPathPrefixes []string            `mapstructure:"excluded_path_prefixes" yaml:"excluded_path_prefixes,omitempty"`
	PathPolicies         []LoggingPathPolicy `mapstructure:"path_policies" yaml:"path_policies,omitempty"`
}

// LoggingPathPolicy sets the request logging mode (off, minimal, full) for a path prefix.
type LoggingPathPolicy struct {
	PathPrefix string `mapstructure:"path_prefix" yaml:"path_prefix"`
	Mode       string `mapstructure:"mode" yaml:"mode"`
}

// RateLimitConfig configures the public API token bucket limiter.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	KeyBy             string  `mapstructure:"key_by" yaml:"key_by"` // ip, global
}

// CatalogConfig configures the catalog API.
type CatalogConfig struct {
	APIPrefix    string `mapstructure:"api_prefix" yaml:"api_prefix"`
	MaxBatchSize int    `mapstructure:"max_batch_size" yaml:"max_batch_size"`
	Store        string `mapstructure:"store" yaml:"store"` // mongodb, memory
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "library-api",
			Environment: "production",
		},
		HTTP: HTTPConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URL:            "mongodb://localhost:27017",
			DatabaseName:   "library",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   5 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingSampleRate: 0.1,
			RequestLogging: RequestLoggingConfig{
				Enabled:              true,
				ExcludedPathPrefixes: []string{"/health", "/ready", "/metrics"},
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
			KeyBy:             RateLimitKeyIP,
		},
		Catalog: CatalogConfig{
			APIPrefix:    "/api/v1",
			MaxBatchSize: 100,
			Store:        StoreMongoDB,
		},
	}
}
