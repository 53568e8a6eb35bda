package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes every environment variable read by the loader.
const DefaultEnvPrefix = "LIBRARY"

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile         string
	envPrefix          string
	serviceNameDefault string
	flags              *pflag.FlagSet
}

// FlagKeys maps command line flags to the config keys they override.
var FlagKeys = map[string]string{
	"http-port": "http.port",
	"log-level": "observability.log_level",
	"store":     "catalog.store",
}

// NewViperLoader creates a new ViperLoader
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables, LIBRARY when empty
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// WithServiceNameDefault sets the default service.name used when no config/env override is provided.
func (l *ViperLoader) WithServiceNameDefault(serviceName string) *ViperLoader {
	if l == nil {
		return l
	}
	l.serviceNameDefault = strings.TrimSpace(serviceName)
	return l
}

// WithFlags makes the flags listed in FlagKeys override every other source
// when they were set explicitly.
func (l *ViperLoader) WithFlags(flags *pflag.FlagSet) *ViperLoader {
	if l == nil {
		return l
	}
	l.flags = flags
	return l
}

// ConfigFile returns the configured file path, empty when none.
func (l *ViperLoader) ConfigFile() string {
	return l.configFile
}

// Load loads configuration with precedence: flags > ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	l.bindLegacyEnvVars()
	l.bindEnvVars(v)
	if err := l.bindFlags(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvVars explicitly binds environment variables for nested structs
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("service.name", l.prefixedEnv("SERVICE_NAME"))
	v.BindEnv("service.environment", l.prefixedEnv("SERVICE_ENVIRONMENT"), l.prefixedEnv("ENVIRONMENT"))

	// HTTP
	v.BindEnv("http.port", l.prefixedEnv("HTTP_PORT"))
	v.BindEnv("http.read_timeout", l.prefixedEnv("HTTP_READ_TIMEOUT"))
	v.BindEnv("http.write_timeout", l.prefixedEnv("HTTP_WRITE_TIMEOUT"))
	v.BindEnv("http.idle_timeout", l.prefixedEnv("HTTP_IDLE_TIMEOUT"))

	// Management
	v.BindEnv("management.enabled", l.prefixedEnv("MGMT_ENABLED"))
	v.BindEnv("management.port", l.prefixedEnv("MGMT_PORT"))
	v.BindEnv("management.read_timeout", l.prefixedEnv("MGMT_READ_TIMEOUT"))
	v.BindEnv("management.write_timeout", l.prefixedEnv("MGMT_WRITE_TIMEOUT"))
	v.BindEnv("management.mtls_enabled", l.prefixedEnv("MGMT_MTLS_ENABLED"))
	v.BindEnv("management.tls_cert_file", l.prefixedEnv("MGMT_TLS_CERT_FILE"))
	v.BindEnv("management.tls_key_file", l.prefixedEnv("MGMT_TLS_KEY_FILE"))
	v.BindEnv("management.tls_ca_file", l.prefixedEnv("MGMT_TLS_CA_FILE"))

	// Database
	v.BindEnv("database.url", l.prefixedEnv("DB_URL"))
	v.BindEnv("database.database_name", l.prefixedEnv("DB_DATABASE_NAME"))
	v.BindEnv("database.connect_timeout", l.prefixedEnv("DB_CONNECT_TIMEOUT"))
	v.BindEnv("database.query_timeout", l.prefixedEnv("DB_QUERY_TIMEOUT"))

	// Observability
	v.BindEnv("observability.log_level", l.prefixedEnv("OBSERVABILITY_LOG_LEVEL"), l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("observability.log_format", l.prefixedEnv("OBSERVABILITY_LOG_FORMAT"), l.prefixedEnv("LOG_FORMAT"))
	v.BindEnv("observability.service_name", l.prefixedEnv("OBSERVABILITY_SERVICE_NAME"))
	v.BindEnv("observability.tracing_enabled", l.prefixedEnv("OBSERVABILITY_TRACING_ENABLED"))
	v.BindEnv("observability.tracing_sample_rate", l.prefixedEnv("OBSERVABILITY_TRACING_SAMPLE_RATE"))
	v.BindEnv("observability.tracing_endpoint", l.prefixedEnv("OBSERVABILITY_TRACING_ENDPOINT"))
	v.BindEnv("observability.request_logging.enabled", l.prefixedEnv("OBSERVABILITY_REQUEST_LOGGING_ENABLED"))
	v.BindEnv("observability.request_logging.log_start", l.prefixedEnv("OBSERVABILITY_REQUEST_LOGGING_LOG_START"))
	v.BindEnv("observability.request_logging.excluded_path_prefixes", l.prefixedEnv("OBSERVABILITY_REQUEST_LOGGING_EXCLUDED_PATH_PREFIXES"))

	// Rate limit
	v.BindEnv("rate_limit.enabled", l.prefixedEnv("RATE_LIMIT_ENABLED"))
	v.BindEnv("rate_limit.requests_per_second", l.prefixedEnv("RATE_LIMIT_REQUESTS_PER_SECOND"))
	v.BindEnv("rate_limit.burst", l.prefixedEnv("RATE_LIMIT_BURST"))
	v.BindEnv("rate_limit.key_by", l.prefixedEnv("RATE_LIMIT_KEY_BY"))

	// Catalog
	v.BindEnv("catalog.api_prefix", l.prefixedEnv("CATALOG_API_PREFIX"))
	v.BindEnv("catalog.max_batch_size", l.prefixedEnv("CATALOG_MAX_BATCH_SIZE"))
	v.BindEnv("catalog.store", l.prefixedEnv("CATALOG_STORE"))
}

func (l *ViperLoader) bindFlags(v *viper.Viper) error {
	if l.flags == nil {
		return nil
	}
	for name, key := range FlagKeys {
		flag := l.flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// bindLegacyEnvVars maps the long env names to the abbreviated ones when the
// abbreviated vars are absent.
func (l *ViperLoader) bindLegacyEnvVars() {
	aliases := []struct {
		abbrevSuffix string
		legacySuffix string
	}{
		{"MGMT_ENABLED", "MANAGEMENT_ENABLED"},
		{"MGMT_PORT", "MANAGEMENT_PORT"},
		{"MGMT_READ_TIMEOUT", "MANAGEMENT_READ_TIMEOUT"},
		{"MGMT_WRITE_TIMEOUT", "MANAGEMENT_WRITE_TIMEOUT"},
		{"MGMT_MTLS_ENABLED", "MANAGEMENT_MTLS_ENABLED"},
		{"DB_URL", "DATABASE_URL"},
		{"DB_DATABASE_NAME", "DATABASE_DATABASE_NAME"},
		{"DB_CONNECT_TIMEOUT", "DATABASE_CONNECT_TIMEOUT"},
		{"DB_QUERY_TIMEOUT", "DATABASE_QUERY_TIMEOUT"},
	}

	for _, alias := range aliases {
		abbrevEnv := l.prefixedEnv(alias.abbrevSuffix)
		if _, hasAbbrev := os.LookupEnv(abbrevEnv); hasAbbrev {
			continue
		}
		if legacyValue, hasLegacy := os.LookupEnv(l.prefixedEnv(alias.legacySuffix)); hasLegacy {
			_ = os.Setenv(abbrevEnv, legacyValue)
		}
	}
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), suffix)
}

func (l *ViperLoader) defaultServiceName(fallback string) string {
	if l != nil {
		if configured := strings.TrimSpace(l.serviceNameDefault); configured != "" {
			return configured
		}
	}
	return strings.TrimSpace(fallback)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("service.name", l.defaultServiceName(cfg.Service.Name))
	v.SetDefault("service.environment", cfg.Service.Environment)

	v.SetDefault("http.port", cfg.HTTP.Port)
	v.SetDefault("http.read_timeout", cfg.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", cfg.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", cfg.HTTP.IdleTimeout)

	v.SetDefault("management.enabled", cfg.Management.Enabled)
	v.SetDefault("management.port", cfg.Management.Port)
	v.SetDefault("management.read_timeout", cfg.Management.ReadTimeout)
	v.SetDefault("management.write_timeout", cfg.Management.WriteTimeout)
	v.SetDefault("management.mtls_enabled", cfg.Management.MTLSEnabled)

	v.SetDefault("database.url", cfg.Database.URL)
	v.SetDefault("database.database_name", cfg.Database.DatabaseName)
	v.SetDefault("database.connect_timeout", cfg.Database.ConnectTimeout)
	v.SetDefault("database.query_timeout", cfg.Database.QueryTimeout)

	v.SetDefault("observability.log_level", cfg.Observability.LogLevel)
	v.SetDefault("observability.log_format", cfg.Observability.LogFormat)
	v.SetDefault("observability.tracing_enabled", cfg.Observability.TracingEnabled)
	v.SetDefault("observability.tracing_sample_rate", cfg.Observability.TracingSampleRate)
	v.SetDefault("observability.request_logging.enabled", cfg.Observability.RequestLogging.Enabled)
	v.SetDefault("observability.request_logging.log_start", cfg.Observability.RequestLogging.LogStart)
	v.SetDefault("observability.request_logging.excluded_path_prefixes", cfg.Observability.RequestLogging.ExcludedPathPrefixes)

	v.SetDefault("rate_limit.enabled", cfg.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
	v.SetDefault("rate_limit.key_by", cfg.RateLimit.KeyBy)

	v.SetDefault("catalog.api_prefix", cfg.Catalog.APIPrefix)
	v.SetDefault("catalog.max_batch_size", cfg.Catalog.MaxBatchSize)
	v.SetDefault("catalog.store", cfg.Catalog.Store)
}

// Validate normalizes cfg in place and reports every invalid setting at once.
func (l *ViperLoader) Validate(cfg *Config) error {
	var errs []error

	cfg.Catalog.Store = strings.ToLower(strings.TrimSpace(cfg.Catalog.Store))
	cfg.RateLimit.KeyBy = strings.ToLower(strings.TrimSpace(cfg.RateLimit.KeyBy))
	cfg.Observability.RequestLogging.ExcludedPathPrefixes = normalizeStringSlice(cfg.Observability.RequestLogging.ExcludedPathPrefixes)

	if strings.TrimSpace(cfg.Service.Name) == "" {
		errs = append(errs, errors.New("service.name is required"))
	}
	if !validPort(cfg.HTTP.Port) {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", cfg.HTTP.Port))
	}

	if cfg.Management.Enabled {
		if !validPort(cfg.Management.Port) {
			errs = append(errs, fmt.Errorf("management.port must be between 1 and 65535, got %d", cfg.Management.Port))
		}
		if cfg.Management.Port == cfg.HTTP.Port {
			errs = append(errs, errors.New("management.port must differ from http.port"))
		}
	}
	if cfg.Management.MTLSEnabled {
		if cfg.Management.TLSCertFile == "" {
			errs = append(errs, errors.New("management.tls_cert_file is required when mtls is enabled"))
		}
		if cfg.Management.TLSKeyFile == "" {
			errs = append(errs, errors.New("management.tls_key_file is required when mtls is enabled"))
		}
		if cfg.Management.TLSCAFile == "" {
			errs = append(errs, errors.New("management.tls_ca_file is required when mtls is enabled"))
		}
	}

	validStores := []string{StoreMongoDB, StoreMemory}
	if !contains(validStores, cfg.Catalog.Store) {
		errs = append(errs, fmt.Errorf("invalid catalog.store: %s (must be one of: %v)", cfg.Catalog.Store, validStores))
	}
	if cfg.Catalog.Store == StoreMongoDB {
		if cfg.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required when catalog.store is mongodb"))
		}
		if cfg.Database.DatabaseName == "" {
			errs = append(errs, errors.New("database.database_name is required when catalog.store is mongodb"))
		}
	}
	if cfg.Catalog.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("catalog.max_batch_size must be greater than 0"))
	}
	if !strings.HasPrefix(cfg.Catalog.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("catalog.api_prefix must start with '/', got %q", cfg.Catalog.APIPrefix))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(cfg.Observability.LogLevel)) {
		errs = append(errs, fmt.Errorf("invalid observability.log_level: %s (must be one of: %v)", cfg.Observability.LogLevel, validLevels))
	}
	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(cfg.Observability.LogFormat)) {
		errs = append(errs, fmt.Errorf("invalid observability.log_format: %s (must be one of: %v)", cfg.Observability.LogFormat, validFormats))
	}
	if cfg.Observability.TracingEnabled {
		if cfg.Observability.TracingEndpoint == "" {
			errs = append(errs, errors.New("observability.tracing_endpoint is required when tracing is enabled"))
		}
		if cfg.Observability.TracingSampleRate < 0 || cfg.Observability.TracingSampleRate > 1 {
			errs = append(errs, errors.New("observability.tracing_sample_rate must be between 0 and 1"))
		}
	}
	validModes := []string{"off", "minimal", "full"}
	for i, policy := range cfg.Observability.RequestLogging.PathPolicies {
		if strings.TrimSpace(policy.PathPrefix) == "" {
			errs = append(errs, fmt.Errorf("observability.request_logging.path_policies[%d].path_prefix is required", i))
		}
		if !contains(validModes, strings.ToLower(policy.Mode)) {
			errs = append(errs, fmt.Errorf("observability.request_logging.path_policies[%d].mode must be one of %v", i, validModes))
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, errors.New("rate_limit.requests_per_second must be greater than 0 when rate limiting is enabled"))
		}
		if cfg.RateLimit.Burst <= 0 {
			errs = append(errs, errors.New("rate_limit.burst must be greater than 0 when rate limiting is enabled"))
		}
		validKeys := []string{RateLimitKeyIP, RateLimitKeyGlobal}
		if !contains(validKeys, cfg.RateLimit.KeyBy) {
			errs = append(errs, fmt.Errorf("invalid rate_limit.key_by: %s (must be one of: %v)", cfg.RateLimit.KeyBy, validKeys))
		}
	}

	return errors.Join(errs...)
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func normalizeStringSlice(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
