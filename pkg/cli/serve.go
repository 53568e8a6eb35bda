package cli

import (
	"context"
	"fmt"

	"github.com/michalszc/library-api/pkg/catalog"
	"github.com/michalszc/library-api/pkg/catalog/handler"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/health"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/observability/metrics"
	"github.com/michalszc/library-api/pkg/server"
	"github.com/michalszc/library-api/pkg/server/router"
	"github.com/michalszc/library-api/pkg/store"
)

// Runtime is a fully wired service ready to run.
type Runtime struct {
	Servers *server.HTTPServers
	Options *server.RunHTTPServersOptions
	Store   *store.Store
}

// NewRuntime opens the catalog store and builds the HTTP servers around it.
// The store is closed by a shutdown hook once the servers stop.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	st, err := store.Open(ctx, cfg, log, model.Collections...)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}

	metricsRegistry := metrics.NewRegistry()
	healthRegistry := health.NewRegistry()
	healthRegistry.Register(st.Checker)

	cat := catalog.New(st.Executor, log, catalog.NewMetrics(metricsRegistry.Registerer()), catalog.Config{
		MaxBatchSize: cfg.Catalog.MaxBatchSize,
	})

	opts := &server.RunHTTPServersOptions{
		Config:          cfg,
		Logger:          log,
		HealthRegistry:  healthRegistry,
		MetricsRegistry: metricsRegistry,
		RegisterRoutes: func(r router.Router) {
			handler.Register(r, cat)
		},
		ShutdownHooks: []server.LifecycleHook{
			{Name: "close-catalog-store", Fn: func(context.Context) error { return st.Close() }},
		},
	}

	servers, err := server.BuildHTTPServers(opts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &Runtime{Servers: servers, Options: opts, Store: st}, nil
}

// Serve runs the service until ctx is done or the process is signalled.
func Serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	rt, err := NewRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("starting library catalog",
		"store", cfg.Catalog.Store,
		"api_prefix", cfg.Catalog.APIPrefix,
		"port", cfg.HTTP.Port,
	)
	return server.RunHTTPServersWithSignals(ctx, rt.Servers, rt.Options)
}
