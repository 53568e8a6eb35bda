package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/256dpi/lungo"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Adapter owns the process-wide MongoDB client. It is created once at start-up and
// handed to every component that needs the store. The client is either a MongoDB
// server connection or an in-process lungo engine; both speak the driver API.
type Adapter struct {
	client   lungo.IClient
	engine   *lungo.Engine
	database string
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// Config holds MongoDB adapter configuration.
type Config struct {
	URL              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

// FindOptions narrows a Find call. Zero values mean "not set".
type FindOptions struct {
	Projection interface{}
	Sort       interface{}
	Skip       int64
	Limit      int64
}

// Cosa fa: inizializza un adapter MongoDB e verifica connettività via ping.
// Cosa NON fa: non crea indici o collezioni automaticamente.
// Esempio minimo: adapter, err := mongodb.NewAdapter(cfg, log)
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := lungo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB connection established", "database", cfg.Database)
	return &Adapter{
		client:   client,
		database: cfg.Database,
		logger:   log,
		timeout:  cfg.OperationTimeout,
	}, nil
}

// NewMemoryAdapter runs the adapter on an in-process lungo engine backed by a memory
// store. Data lives as long as the adapter. An empty database name means "library".
func NewMemoryAdapter(database string, log logger.Logger) (*Adapter, error) {
	if database == "" {
		database = "library"
	}
	client, engine, err := lungo.Open(context.Background(), lungo.Options{
		Store: lungo.NewMemoryStore(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory engine: %w", err)
	}

	log.Info("in-memory document engine opened", "database", database)
	return &Adapter{
		client:   client,
		engine:   engine,
		database: database,
		logger:   log,
	}, nil
}

// InMemory reports whether the adapter runs on the in-process engine.
func (a *Adapter) InMemory() bool {
	return a.engine != nil
}

// DatabaseName returns the configured database name.
func (a *Adapter) DatabaseName() string {
	return a.database
}

func (a *Adapter) Database() lungo.IDatabase {
	return a.client.Database(a.database)
}

func (a *Adapter) Collection(name string) lungo.ICollection {
	return a.Database().Collection(name)
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return fmt.Errorf("mongodb adapter is closed")
	}
	return a.client.Ping(ctx, readpref.Primary())
}

// HealthCheck pings the primary with a two second budget.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("MongoDB health check failed", "error", err)
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client and stops the in-process engine, if any. Calling it
// twice is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.client.Disconnect(ctx)
	if a.engine != nil {
		a.engine.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}

// Find decodes every document matching filter into results, which must be a pointer to a slice.
func (a *Adapter) Find(ctx context.Context, collection string, filter interface{}, opts FindOptions, results interface{}) error {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	cursor, err := a.Collection(collection).Find(opCtx, filter, findOptions(opts))
	if err != nil {
		return err
	}
	defer cursor.Close(opCtx)
	return cursor.All(opCtx, results)
}

func findOptions(opts FindOptions) *options.FindOptions {
	fo := options.Find()
	if opts.Projection != nil {
		fo.SetProjection(opts.Projection)
	}
	if opts.Sort != nil {
		fo.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	return fo
}

// FindOne decodes the first match into result. A miss returns mongo.ErrNoDocuments.
func (a *Adapter) FindOne(ctx context.Context, collection string, filter interface{}, projection interface{}, result interface{}) error {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	fo := options.FindOne()
	if projection != nil {
		fo.SetProjection(projection)
	}
	return a.Collection(collection).FindOne(opCtx, filter, fo).Decode(result)
}

// CountDocuments counts matches. A positive limit stops counting early.
func (a *Adapter) CountDocuments(ctx context.Context, collection string, filter interface{}, limit int64) (int64, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()

	co := options.Count()
	if limit > 0 {
		co.SetLimit(limit)
	}
	return a.Collection(collection).CountDocuments(opCtx, filter, co)
}

// Cosa fa: inserisce un documento nella collection target.
// Cosa NON fa: non valida lo schema del documento.
// Esempio minimo: _, err := adapter.InsertOne(ctx, "authors", doc)
func (a *Adapter) InsertOne(ctx context.Context, collection string, doc interface{}) (*mongo.InsertOneResult, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).InsertOne(opCtx, doc)
}

// InsertMany inserts docs in order and stops at the first failure.
func (a *Adapter) InsertMany(ctx context.Context, collection string, docs []interface{}) (*mongo.InsertManyResult, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).InsertMany(opCtx, docs, options.InsertMany().SetOrdered(true))
}

func (a *Adapter) UpdateOne(ctx context.Context, collection string, filter, update interface{}) (*mongo.UpdateResult, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).UpdateOne(opCtx, filter, update)
}

// BulkWrite runs an ordered batch of write models.
func (a *Adapter) BulkWrite(ctx context.Context, collection string, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).BulkWrite(opCtx, models, options.BulkWrite().SetOrdered(true))
}

func (a *Adapter) DeleteOne(ctx context.Context, collection string, filter interface{}) (*mongo.DeleteResult, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).DeleteOne(opCtx, filter)
}

func (a *Adapter) DeleteMany(ctx context.Context, collection string, filter interface{}) (*mongo.DeleteResult, error) {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return a.Collection(collection).DeleteMany(opCtx, filter)
}

// EnsureCollection touches the collection so a misconfigured database fails at start-up.
func (a *Adapter) EnsureCollection(ctx context.Context, name string) error {
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	_, err := a.Database().Collection(name).EstimatedDocumentCount(opCtx)
	return err
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// IsNoDocuments reports whether err is the driver's "no documents" sentinel.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
