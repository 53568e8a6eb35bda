package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/health"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/observability/metrics"
	"github.com/michalszc/library-api/pkg/observability/tracing"
	"github.com/michalszc/library-api/pkg/server/router"
	ginadapter "github.com/michalszc/library-api/pkg/server/router/gin"
	"github.com/michalszc/library-api/pkg/version"
)

// LifecycleHook defines a named startup/shutdown action.
type LifecycleHook struct {
	Name string
	Fn   func(context.Context) error
}

// RunHTTPServersOptions defines inputs for building and running the HTTP servers.
type RunHTTPServersOptions struct {
	Config *config.Config
	Logger logger.Logger

	HealthRegistry  *health.Registry
	MetricsRegistry *metrics.Registry

	// RegisterRoutes mounts the application routes on the group rooted at
	// Config.Catalog.APIPrefix.
	RegisterRoutes func(router.Router)

	StartupHooks        []LifecycleHook
	ShutdownHooks       []LifecycleHook
	ShutdownHookTimeout time.Duration
}

// HTTPServers groups the runtime public/management servers.
type HTTPServers struct {
	Public     *PublicAPIServer
	Management *ManagementServer
}

// BuildHTTPServers constructs the public server, with the application routes
// mounted, and the management server when enabled. Missing options get defaults.
func BuildHTTPServers(opts *RunHTTPServersOptions) (*HTTPServers, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		httpLogger, err := logger.NewZapLogger(logger.DefaultConfig())
		if err != nil {
			return nil, err
		}
		opts.Logger = httpLogger
	}
	if opts.HealthRegistry == nil {
		opts.HealthRegistry = health.NewRegistry()
	}
	if opts.MetricsRegistry == nil {
		opts.MetricsRegistry = metrics.NewRegistry()
	}

	publicRouter := ginadapter.NewRouter()
	publicServer := NewPublicAPIServer(opts.Config, publicRouter, opts.Logger, opts.MetricsRegistry.HTTP())
	if opts.RegisterRoutes != nil {
		opts.RegisterRoutes(publicRouter.Group(opts.Config.Catalog.APIPrefix))
	}

	servers := &HTTPServers{Public: publicServer}
	if !opts.Config.Management.Enabled {
		return servers, nil
	}

	managementServer, err := NewManagementServer(
		opts.Config.Management,
		ginadapter.NewRouter(),
		opts.Logger,
		opts.HealthRegistry,
		opts.MetricsRegistry,
		version.Current(resolveServiceName(opts)),
	)
	if err != nil {
		return nil, fmt.Errorf("create management server: %w", err)
	}
	servers.Management = managementServer
	return servers, nil
}

// RunHTTPServers starts the public server and (optionally) the management server.
// The first server error cancels the other; startup hooks run before serving and
// shutdown hooks after both servers stop.
func RunHTTPServers(ctx context.Context, servers *HTTPServers, opts *RunHTTPServersOptions) error {
	if servers == nil || servers.Public == nil {
		return errors.New("servers and public server are required")
	}
	if opts.Logger == nil {
		return errors.New("logger is required")
	}
	if opts.Config == nil {
		return errors.New("config is required")
	}

	versionInfo := version.Current(resolveServiceName(opts))
	opts.Logger.Info("application version metadata",
		"service", versionInfo.Service,
		"version", versionInfo.Version,
		"commit", versionInfo.Commit,
		"build_time", versionInfo.BuildTime,
	)

	tracerProvider, err := initTracerProvider(ctx, opts, versionInfo)
	if err != nil {
		return fmt.Errorf("initialize tracing provider: %w", err)
	}
	defer shutdownTracerProvider(tracerProvider, opts.Logger)

	if err := runStartupHooks(ctx, opts); err != nil {
		return err
	}
	defer func() {
		if shutdownErr := runShutdownHooks(opts); shutdownErr != nil {
			opts.Logger.Error("shutdown hooks completed with errors", "error", shutdownErr)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverCount := 1
	if servers.Management != nil {
		serverCount = 2
	}

	errCh := make(chan error, serverCount)
	go func() { errCh <- servers.Public.Start(runCtx) }()
	if servers.Management != nil {
		go func() { errCh <- servers.Management.Start(runCtx) }()
	}

	var firstErr error
	for idx := 0; idx < serverCount; idx++ {
		currentErr := <-errCh
		if currentErr != nil && firstErr == nil {
			firstErr = currentErr
			cancel()
		}
	}
	return firstErr
}

// RunHTTPServersWithSignals runs servers until ctx is done or SIGINT or SIGTERM
// (or the given signals) arrives.
func RunHTTPServersWithSignals(ctx context.Context, servers *HTTPServers, opts *RunHTTPServersOptions, signals ...os.Signal) error {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(ctx, signals...)
	defer stop()
	return RunHTTPServers(ctx, servers, opts)
}

func initTracerProvider(ctx context.Context, opts *RunHTTPServersOptions, info version.Info) (*tracing.TracerProvider, error) {
	obs := opts.Config.Observability
	return tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    resolveTracingServiceName(opts, info.Service),
		ServiceVersion: info.Version,
		Environment:    resolveEnvironment(opts),
		Endpoint:       obs.TracingEndpoint,
		SampleRate:     obs.TracingSampleRate,
		Enabled:        obs.TracingEnabled,
	})
}

func shutdownTracerProvider(provider *tracing.TracerProvider, log logger.Logger) {
	if provider == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown tracing provider", "error", err)
	}
}

func resolveServiceName(opts *RunHTTPServersOptions) string {
	if opts.Config != nil {
		if trimmed := strings.TrimSpace(opts.Config.Service.Name); trimmed != "" {
			return trimmed
		}
	}
	return version.Unknown
}

func resolveEnvironment(opts *RunHTTPServersOptions) string {
	if opts.Config != nil {
		if trimmed := strings.TrimSpace(opts.Config.Service.Environment); trimmed != "" {
			return trimmed
		}
	}
	return version.Unknown
}

func resolveTracingServiceName(opts *RunHTTPServersOptions, fallback string) string {
	if opts != nil && opts.Config != nil {
		if trimmed := strings.TrimSpace(opts.Config.Observability.ServiceName); trimmed != "" {
			return trimmed
		}
	}
	if trimmed := strings.TrimSpace(fallback); trimmed != "" {
		return trimmed
	}
	return version.Unknown
}

func hookName(hook LifecycleHook) string {
	if name := strings.TrimSpace(hook.Name); name != "" {
		return name
	}
	return "unnamed"
}

func runStartupHooks(ctx context.Context, opts *RunHTTPServersOptions) error {
	for _, hook := range opts.StartupHooks {
		if hook.Fn == nil {
			continue
		}
		name := hookName(hook)
		opts.Logger.Info("startup hook start", "hook", name)
		if err := hook.Fn(ctx); err != nil {
			opts.Logger.Error("startup hook failed", "hook", name, "error", err)
			return fmt.Errorf("startup hook %q failed: %w", name, err)
		}
		opts.Logger.Info("startup hook complete", "hook", name)
	}
	return nil
}

// runShutdownHooks runs every hook with its own timeout and joins the failures.
func runShutdownHooks(opts *RunHTTPServersOptions) error {
	timeout := opts.ShutdownHookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var errs []error
	for _, hook := range opts.ShutdownHooks {
		if hook.Fn == nil {
			continue
		}
		name := hookName(hook)
		opts.Logger.Info("shutdown hook start", "hook", name)

		hookCtx, cancel := context.WithTimeout(context.Background(), timeout)
		err := hook.Fn(hookCtx)
		cancel()

		if err != nil {
			opts.Logger.Error("shutdown hook failed", "hook", name, "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook %q failed: %w", name, err))
			continue
		}
		opts.Logger.Info("shutdown hook complete", "hook", name)
	}
	return errors.Join(errs...)
}
