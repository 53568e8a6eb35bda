package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/pflag"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Service.Name != "library-api" {
		t.Errorf("expected service name library-api, got %s", cfg.Service.Name)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected HTTP port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Management.Port != 9090 {
		t.Errorf("expected Management port 9090, got %d", cfg.Management.Port)
	}
	if cfg.Catalog.APIPrefix != "/api/v1" {
		t.Errorf("expected api prefix /api/v1, got %s", cfg.Catalog.APIPrefix)
	}
	if cfg.Catalog.Store != StoreMongoDB {
		t.Errorf("expected store %q, got %q", StoreMongoDB, cfg.Catalog.Store)
	}
	if cfg.RateLimit.Enabled {
		t.Error("expected rate limiting to be disabled by default")
	}
	if err := NewViperLoader("", "").Validate(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got: %v", err)
	}
}

func TestViperLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewViperLoader("", "").Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got: %v", err)
	}
	if cfg.HTTP.ReadTimeout != 30*time.Second {
		t.Errorf("expected HTTP read timeout 30s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.DatabaseName != "library" {
		t.Errorf("expected database library, got %s", cfg.Database.DatabaseName)
	}
}

func TestViperLoader_LoadWithEnvOverride(t *testing.T) {
	t.Setenv("LIBRARY_HTTP_PORT", "9000")
	t.Setenv("LIBRARY_DB_URL", "mongodb://db:27017")
	t.Setenv("LIBRARY_LOG_LEVEL", "debug")
	t.Setenv("LIBRARY_CATALOG_STORE", "Memory")
	t.Setenv("LIBRARY_CATALOG_MAX_BATCH_SIZE", "25")
	t.Setenv("LIBRARY_RATE_LIMIT_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("LIBRARY_OBSERVABILITY_REQUEST_LOGGING_EXCLUDED_PATH_PREFIXES", "/health, /metrics")

	cfg, err := NewViperLoader("", "LIBRARY").Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected HTTP port 9000 from env, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "mongodb://db:27017" {
		t.Errorf("expected database url from env, got %s", cfg.Database.URL)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level debug from env, got %s", cfg.Observability.LogLevel)
	}
	if cfg.Catalog.Store != StoreMemory {
		t.Errorf("expected normalized store memory, got %s", cfg.Catalog.Store)
	}
	if cfg.Catalog.MaxBatchSize != 25 {
		t.Errorf("expected max batch size 25, got %d", cfg.Catalog.MaxBatchSize)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("expected 2.5 requests per second, got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if got := cfg.Observability.RequestLogging.ExcludedPathPrefixes; len(got) != 2 || got[1] != "/metrics" {
		t.Errorf("expected trimmed excluded prefixes, got %v", got)
	}
}

func TestViperLoader_LegacyEnvNames(t *testing.T) {
	t.Setenv("LIBRARY_DATABASE_URL", "mongodb://legacy:27017")
	t.Setenv("LIBRARY_MANAGEMENT_PORT", "9191")
	// The loader copies legacy values into the abbreviated names; t.Setenv restores them.
	t.Setenv("LIBRARY_DB_URL", "")
	os.Unsetenv("LIBRARY_DB_URL")
	t.Setenv("LIBRARY_MGMT_PORT", "")
	os.Unsetenv("LIBRARY_MGMT_PORT")

	cfg, err := NewViperLoader("", "LIBRARY").Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Database.URL != "mongodb://legacy:27017" {
		t.Errorf("expected legacy database url, got %s", cfg.Database.URL)
	}
	if cfg.Management.Port != 9191 {
		t.Errorf("expected legacy management port, got %d", cfg.Management.Port)
	}
}

func TestViperLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
service:
  name: catalog
http:
  port: 8081
catalog:
  api_prefix: /library
  store: memory
observability:
  request_logging:
    path_policies:
      - path_prefix: /library/books
        mode: minimal
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LIBRARY_HTTP_PORT", "8082")

	loader := NewViperLoader(path, "LIBRARY")
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if loader.ConfigFile() != path {
		t.Errorf("expected config file %s, got %s", path, loader.ConfigFile())
	}
	if cfg.Service.Name != "catalog" {
		t.Errorf("expected service name from file, got %s", cfg.Service.Name)
	}
	if cfg.HTTP.Port != 8082 {
		t.Errorf("expected env to win over file, got port %d", cfg.HTTP.Port)
	}
	if cfg.Catalog.APIPrefix != "/library" {
		t.Errorf("expected api prefix from file, got %s", cfg.Catalog.APIPrefix)
	}
	policies := cfg.Observability.RequestLogging.PathPolicies
	if len(policies) != 1 || policies[0].Mode != "minimal" {
		t.Errorf("expected one minimal path policy, got %+v", policies)
	}
	// Defaults still apply to keys the file leaves out.
	if cfg.Management.Port != 9090 {
		t.Errorf("expected default management port, got %d", cfg.Management.Port)
	}
}

func TestViperLoader_WithFlags(t *testing.T) {
	t.Setenv("LIBRARY_HTTP_PORT", "8081")
	t.Setenv("LIBRARY_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("http-port", 8080, "")
	flags.String("log-level", "info", "")
	flags.String("store", StoreMongoDB, "")
	if err := flags.Parse([]string{"--http-port=9000", "--store=memory"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := NewViperLoader("", "").WithFlags(flags).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("http port = %d, want flag value 9000", cfg.HTTP.Port)
	}
	if cfg.Catalog.Store != StoreMemory {
		t.Errorf("store = %q, want memory", cfg.Catalog.Store)
	}
	// Unset flags leave env in charge.
	if cfg.Observability.LogLevel != "warn" {
		t.Errorf("log level = %q, want env value warn", cfg.Observability.LogLevel)
	}
}

func TestViperLoader_MissingFile(t *testing.T) {
	_, err := NewViperLoader(filepath.Join(t.TempDir(), "missing.yaml"), "").Load()
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Fatalf("expected read error, got: %v", err)
	}
}

func TestViperLoader_WithServiceNameDefault(t *testing.T) {
	cfg, err := NewViperLoader("", "").WithServiceNameDefault(" books ").Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Service.Name != "books" {
		t.Errorf("expected service name books, got %s", cfg.Service.Name)
	}

	t.Setenv("LIBRARY_SERVICE_NAME", "from-env")
	cfg, err = NewViperLoader("", "").WithServiceNameDefault("books").Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Service.Name != "from-env" {
		t.Errorf("expected env to win over service name default, got %s", cfg.Service.Name)
	}
}

func TestViperLoader_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name: "unknown store",
			mutate: func(c *Config) {
				c.Catalog.Store = "postgres"
			},
			wantErr: []string{"invalid catalog.store"},
		},
		{
			name: "memory store needs no database",
			mutate: func(c *Config) {
				c.Catalog.Store = StoreMemory
				c.Database.URL = ""
			},
		},
		{
			name: "mongodb store without url",
			mutate: func(c *Config) {
				c.Database.URL = ""
				c.Database.DatabaseName = ""
			},
			wantErr: []string{"database.url is required", "database.database_name is required"},
		},
		{
			name: "ports clash",
			mutate: func(c *Config) {
				c.Management.Port = c.HTTP.Port
			},
			wantErr: []string{"management.port must differ"},
		},
		{
			name: "bad batch size and prefix",
			mutate: func(c *Config) {
				c.Catalog.MaxBatchSize = 0
				c.Catalog.APIPrefix = "api"
			},
			wantErr: []string{"catalog.max_batch_size", "catalog.api_prefix"},
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Observability.TracingEnabled = true
			},
			wantErr: []string{"observability.tracing_endpoint is required"},
		},
		{
			name: "rate limit without rate",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerSecond = 0
				c.RateLimit.KeyBy = "user"
			},
			wantErr: []string{"rate_limit.requests_per_second", "invalid rate_limit.key_by"},
		},
		{
			name: "mtls without files",
			mutate: func(c *Config) {
				c.Management.MTLSEnabled = true
			},
			wantErr: []string{"tls_cert_file", "tls_key_file", "tls_ca_file"},
		},
		{
			name: "bad logging policy",
			mutate: func(c *Config) {
				c.Observability.RequestLogging.PathPolicies = []LoggingPathPolicy{{PathPrefix: "", Mode: "verbose"}}
			},
			wantErr: []string{"path_policies[0].path_prefix", "path_policies[0].mode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := NewViperLoader("", "").Validate(cfg)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected errors %v, got nil", tt.wantErr)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error to mention %q, got: %v", want, err)
				}
			}
		})
	}
}

func TestViperLoader_PortProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("any valid public port loads from env", prop.ForAll(
		func(port int) bool {
			os.Setenv("LIBRARY_HTTP_PORT", strconv.Itoa(port))
			defer os.Unsetenv("LIBRARY_HTTP_PORT")
			cfg, err := NewViperLoader("", "LIBRARY").Load()
			return err == nil && cfg.HTTP.Port == port
		},
		gen.IntRange(1, 9000),
	))

	properties.Property("out of range ports are rejected", prop.ForAll(
		func(port int) bool {
			cfg := DefaultConfig()
			cfg.HTTP.Port = port
			return NewViperLoader("", "").Validate(cfg) != nil
		},
		gen.OneGenOf(gen.IntRange(-1000, 0), gen.IntRange(65536, 100000)),
	))

	properties.TestingRun(t)
}
