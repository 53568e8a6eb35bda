package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"gopkg.in/yaml.v3"
)

func runCommand(t *testing.T, opts ServiceCommandOptions, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Out = &out
	cmd := NewServiceCommand(opts)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveServiceNameValue(t *testing.T) {
	tests := []struct {
		name              string
		currentConfigName string
		defaultService    string
		override          string
		want              string
	}{
		{
			name:              "override wins",
			currentConfigName: "from-config",
			defaultService:    "from-cli",
			override:          "from-flag",
			want:              "from-flag",
		},
		{
			name:              "configured value wins over default",
			currentConfigName: "from-config",
			defaultService:    "from-cli",
			want:              "from-config",
		},
		{
			name:           "default used when config missing",
			defaultService: "from-cli",
			want:           "from-cli",
		},
		{
			name: "library-api fallback",
			want: DefaultServiceName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveServiceNameValue(tt.currentConfigName, tt.defaultService, tt.override)
			if got != tt.want {
				t.Fatalf("resolveServiceNameValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewServiceCommand_Subcommands(t *testing.T) {
	cmd := NewServiceCommand(ServiceCommandOptions{})
	if cmd.Use != DefaultServiceName {
		t.Fatalf("Use = %q, want %q", cmd.Use, DefaultServiceName)
	}
	for _, name := range []string{"serve", "version", "healthcheck", "config"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("missing %s command: %v", name, err)
		}
	}
	for _, flag := range []string{"config-file", "service-name", "http-port", "log-level", "store"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, ServiceCommandOptions{}, "version", "--service-name", "branch-library")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "Service:    branch-library") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Go:") {
		t.Fatalf("expected go version line:\n%s", out)
	}
}

func TestConfigCommand_PrintsEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "catalog:\n  api_prefix: /library\n  max_batch_size: 25\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LIBRARY_CATALOG_STORE", "memory")

	out, err := runCommand(t, ServiceCommandOptions{}, "config", "--config-file", path)
	if err != nil {
		t.Fatalf("config error = %v", err)
	}

	var printed config.Config
	if err := yaml.Unmarshal([]byte(out), &printed); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if printed.Catalog.APIPrefix != "/library" || printed.Catalog.MaxBatchSize != 25 {
		t.Fatalf("catalog = %+v", printed.Catalog)
	}
	if printed.Catalog.Store != config.StoreMemory {
		t.Fatalf("store = %q, want memory", printed.Catalog.Store)
	}
	if printed.Service.Name != DefaultServiceName {
		t.Fatalf("service name = %q", printed.Service.Name)
	}
	if printed.HTTP.ReadTimeout != 30*time.Second {
		t.Fatalf("read timeout = %v", printed.HTTP.ReadTimeout)
	}
}

func TestConfigCommand_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LIBRARY_CATALOG_STORE", "memory")
	t.Setenv("LIBRARY_HTTP_PORT", "8081")

	out, err := runCommand(t, ServiceCommandOptions{}, "config", "--http-port", "9100", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	var printed config.Config
	if err := yaml.Unmarshal([]byte(out), &printed); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if printed.HTTP.Port != 9100 || printed.Observability.LogLevel != "debug" {
		t.Fatalf("http port = %d, log level = %q", printed.HTTP.Port, printed.Observability.LogLevel)
	}
	if printed.Catalog.Store != config.StoreMemory {
		t.Fatalf("store = %q, want env value memory", printed.Catalog.Store)
	}
}

func TestConfigCommand_InvalidConfig(t *testing.T) {
	t.Setenv("LIBRARY_CATALOG_STORE", "cassandra")
	if _, err := runCommand(t, ServiceCommandOptions{}, "config"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRootCommand_RunsServer(t *testing.T) {
	t.Setenv("LIBRARY_CATALOG_STORE", "memory")
	var got *config.Config
	opts := ServiceCommandOptions{
		RunServer: func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
			if ctx == nil || log == nil {
				t.Error("expected context and logger")
			}
			got = cfg
			return nil
		},
	}

	for _, args := range [][]string{nil, {"serve"}} {
		got = nil
		if _, err := runCommand(t, opts, append(args, "--service-name", "annex")...); err != nil {
			t.Fatalf("%v error = %v", args, err)
		}
		if got == nil || got.Service.Name != "annex" || got.Catalog.Store != config.StoreMemory {
			t.Fatalf("%v config = %+v", args, got)
		}
	}
}

func TestHealthcheckCommand(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ready" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	out, err := runCommand(t, ServiceCommandOptions{}, "healthcheck", "--url", srv.URL+"/ready")
	if err != nil {
		t.Fatalf("healthcheck error = %v", err)
	}
	if !strings.Contains(out, "healthy") {
		t.Fatalf("unexpected output %q", out)
	}

	status = http.StatusServiceUnavailable
	if _, err := runCommand(t, ServiceCommandOptions{}, "healthcheck", "--url", srv.URL+"/ready"); err == nil {
		t.Fatal("expected error for unavailable service")
	}
}

func TestReadinessTarget(t *testing.T) {
	cfg := config.DefaultConfig().Management

	_, url, err := readinessTarget(cfg, "", time.Second)
	if err != nil {
		t.Fatalf("readinessTarget() error = %v", err)
	}
	if url != "http://localhost:9090/ready" {
		t.Fatalf("url = %q", url)
	}

	cfg.Enabled = false
	if _, _, err := readinessTarget(cfg, "", time.Second); err == nil {
		t.Fatal("expected error when management server is disabled")
	}

	cfg.Enabled = true
	cfg.MTLSEnabled = true
	cfg.TLSCertFile = filepath.Join(t.TempDir(), "missing.pem")
	if _, _, err := readinessTarget(cfg, "", time.Second); err == nil {
		t.Fatal("expected error for missing client certificate")
	}
}
