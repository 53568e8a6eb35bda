package document

import (
	"context"
	"fmt"

	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/observability/tracing"
	mongostore "github.com/michalszc/library-api/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDBExecutor runs Executor calls against the store/mongodb adapter and wraps
// each one in a database span. The adapter may sit on a MongoDB server or on the
// in-process engine; the executor does not care which.
type MongoDBExecutor struct {
	adapter *mongostore.Adapter
}

var _ Executor = (*MongoDBExecutor)(nil)

// NewMongoDBExecutor creates a new MongoDBExecutor instance.
func NewMongoDBExecutor(adapter *mongostore.Adapter) (*MongoDBExecutor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &MongoDBExecutor{adapter: adapter}, nil
}

// NewMemoryExecutor opens an executor on a fresh in-process engine. Close releases it.
func NewMemoryExecutor(log logger.Logger) (*MongoDBExecutor, error) {
	adapter, err := mongostore.NewMemoryAdapter(memoryDatabase, log)
	if err != nil {
		return nil, err
	}
	return NewMongoDBExecutor(adapter)
}

const memoryDatabase = "library"

// Close closes the underlying adapter.
func (e *MongoDBExecutor) Close() error {
	return e.adapter.Close()
}

func (e *MongoDBExecutor) span(ctx context.Context, op tracing.SpanOperation, collection string) (context.Context, func(error)) {
	ctx, span := tracing.StartDatabaseSpan(ctx, op,
		tracing.WithDBSystem("mongodb"),
		tracing.WithDBName(e.adapter.DatabaseName()),
		tracing.WithDBCollection(collection),
	)
	return ctx, func(err error) { tracing.EndSpan(span, err) }
}

func (e *MongoDBExecutor) Find(ctx context.Context, collection string, opts QueryOptions) (docs []Document, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBQuery, collection)
	defer func() { end(err) }()

	findOpts := mongostore.FindOptions{Skip: opts.Skip, Limit: opts.Limit}
	if p := opts.Projection.Normalize(); p != nil {
		findOpts.Projection = bson.M(toBSON(p))
	}
	if s := opts.Sort.BSON(); s != nil {
		findOpts.Sort = s
	}

	docs = []Document{}
	if err = e.adapter.Find(ctx, collection, filterBSON(opts.Filter), findOpts, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (e *MongoDBExecutor) FindOne(ctx context.Context, collection string, filter Filter, projection Projection) (doc Document, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBQuery, collection)
	defer func() { end(err) }()

	var proj interface{}
	if p := projection.Normalize(); p != nil {
		proj = bson.M(toBSON(p))
	}
	doc = Document{}
	if err = e.adapter.FindOne(ctx, collection, filterBSON(filter), proj, &doc); err != nil {
		if mongostore.IsNoDocuments(err) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return doc, nil
}

func (e *MongoDBExecutor) Count(ctx context.Context, collection string, filter Filter, limit int64) (n int64, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBCount, collection)
	defer func() { end(err) }()
	return e.adapter.CountDocuments(ctx, collection, filterBSON(filter), limit)
}

func (e *MongoDBExecutor) InsertOne(ctx context.Context, collection string, doc Document) (id primitive.ObjectID, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBInsert, collection)
	defer func() { end(err) }()

	result, err := e.adapter.InsertOne(ctx, collection, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result.InsertedID)
}

func (e *MongoDBExecutor) InsertMany(ctx context.Context, collection string, docs []Document) (ids []primitive.ObjectID, err error) {
	if len(docs) == 0 {
		return nil, nil
	}
	ctx, end := e.span(ctx, tracing.SpanOperationDBInsert, collection)
	defer func() { end(err) }()

	payload := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, doc)
	}
	result, err := e.adapter.InsertMany(ctx, collection, payload)
	if err != nil {
		return nil, err
	}
	ids = make([]primitive.ObjectID, 0, len(result.InsertedIDs))
	for _, raw := range result.InsertedIDs {
		id, err := insertedID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (e *MongoDBExecutor) UpdateOne(ctx context.Context, collection string, update Update) (matched int64, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBUpdate, collection)
	defer func() { end(err) }()

	if update.IsZero() {
		return e.adapter.CountDocuments(ctx, collection, bson.M{"_id": update.ID}, 1)
	}
	result, err := e.adapter.UpdateOne(ctx, collection, bson.M{"_id": update.ID}, updateBSON(update))
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

func (e *MongoDBExecutor) UpdateMany(ctx context.Context, collection string, updates []Update) (matched int64, err error) {
	if len(updates) == 0 {
		return 0, nil
	}
	ctx, end := e.span(ctx, tracing.SpanOperationDBUpdate, collection)
	defer func() { end(err) }()

	models := make([]mongo.WriteModel, 0, len(updates))
	var untouched []primitive.ObjectID
	for _, u := range updates {
		if u.IsZero() {
			untouched = append(untouched, u.ID)
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(updateBSON(u)))
	}
	if len(untouched) > 0 {
		n, err := e.adapter.CountDocuments(ctx, collection, bson.M{"_id": bson.M{"$in": untouched}}, 0)
		if err != nil {
			return 0, err
		}
		matched += n
	}
	if len(models) == 0 {
		return matched, nil
	}
	result, err := e.adapter.BulkWrite(ctx, collection, models)
	if err != nil {
		return 0, err
	}
	return matched + result.MatchedCount, nil
}

func (e *MongoDBExecutor) DeleteOne(ctx context.Context, collection string, filter Filter) (deleted int64, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBDelete, collection)
	defer func() { end(err) }()

	result, err := e.adapter.DeleteOne(ctx, collection, filterBSON(filter))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (e *MongoDBExecutor) DeleteMany(ctx context.Context, collection string, filter Filter) (deleted int64, err error) {
	ctx, end := e.span(ctx, tracing.SpanOperationDBDelete, collection)
	defer func() { end(err) }()

	result, err := e.adapter.DeleteMany(ctx, collection, filterBSON(filter))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// filterBSON never returns nil; the driver rejects a nil filter.
func filterBSON(f Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

func toBSON(p Projection) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func updateBSON(u Update) bson.M {
	update := bson.M{}
	if len(u.Set) > 0 {
		update["$set"] = u.Set
	}
	if len(u.Unset) > 0 {
		unset := bson.M{}
		for _, field := range u.Unset {
			unset[field] = ""
		}
		update["$unset"] = unset
	}
	return update
}

func insertedID(raw interface{}) (primitive.ObjectID, error) {
	id, ok := raw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", raw)
	}
	return id, nil
}
