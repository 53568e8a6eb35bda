package store

import (
	"context"
	"fmt"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/michalszc/library-api/pkg/health"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/repository/document"
	"github.com/michalszc/library-api/pkg/store/mongodb"
)

// CheckName is the readiness check registered for the catalog store.
const CheckName = "catalog-store"

// Store is an opened catalog store: the executor the repositories run on and the
// readiness check describing it.
type Store struct {
	Executor document.Executor
	Checker  health.Checker
	adapter  Adapter
}

// Close releases the underlying connection, if any.
func (s *Store) Close() error {
	if s == nil || s.adapter == nil {
		return nil
	}
	return s.adapter.Close()
}

// Open selects the backend named by cfg.Catalog.Store: a MongoDB server or the
// in-process engine. Both run behind the same adapter and executor. Every listed
// collection is touched so a misconfigured database fails at start-up.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, collections ...string) (*Store, error) {
	var (
		adapter *mongodb.Adapter
		err     error
	)
	switch cfg.Catalog.Store {
	case config.StoreMemory:
		log.Warn("catalog uses the in-memory store; data is lost on restart")
		adapter, err = mongodb.NewMemoryAdapter(cfg.Database.DatabaseName, log)
	case config.StoreMongoDB:
		adapter, err = mongodb.NewAdapter(mongodb.Config{
			URL:              cfg.Database.URL,
			Database:         cfg.Database.DatabaseName,
			ConnectTimeout:   cfg.Database.ConnectTimeout,
			OperationTimeout: cfg.Database.QueryTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported catalog.store %q (supported: %s, %s)", cfg.Catalog.Store, config.StoreMongoDB, config.StoreMemory)
	}
	if err != nil {
		return nil, err
	}

	for _, name := range collections {
		if err := adapter.EnsureCollection(ctx, name); err != nil {
			_ = adapter.Close()
			return nil, fmt.Errorf("ensure collection %s: %w", name, err)
		}
	}
	executor, err := document.NewMongoDBExecutor(adapter)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}
	return &Store{
		Executor: executor,
		Checker:  health.NewAdapterChecker(CheckName, adapter, cfg.Database.QueryTimeout),
		adapter:  adapter,
	}, nil
}
