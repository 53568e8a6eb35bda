package document

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoDocument is returned by FindOne when nothing matches.
var ErrNoDocument = errors.New("document not found")

// Executor is the document store contract the catalog is written against. Every call
// names its collection so a single executor serves all entity types.
type Executor interface {
	Find(ctx context.Context, collection string, opts QueryOptions) ([]Document, error)
	FindOne(ctx context.Context, collection string, filter Filter, projection Projection) (Document, error)
	// Count counts matching documents. A positive limit stops counting early.
	Count(ctx context.Context, collection string, filter Filter, limit int64) (int64, error)
	InsertOne(ctx context.Context, collection string, doc Document) (primitive.ObjectID, error)
	InsertMany(ctx context.Context, collection string, docs []Document) ([]primitive.ObjectID, error)
	// UpdateOne applies update and returns the number of matched documents.
	UpdateOne(ctx context.Context, collection string, update Update) (int64, error)
	// UpdateMany applies every update as one ordered batch and returns the matched total.
	UpdateMany(ctx context.Context, collection string, updates []Update) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)
}

// Decode converts a raw document into a typed value using its bson tags.
func Decode(doc Document, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Encode converts a typed value into a raw document using its bson tags.
func Encode(in interface{}) (Document, error) {
	raw, err := bson.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := Document{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// IDFilter matches a single document by id.
func IDFilter(id primitive.ObjectID) Filter {
	return Filter{"_id": id}
}

// IDsFilter matches any of ids.
func IDsFilter(ids []primitive.ObjectID) Filter {
	return Filter{"_id": bson.M{"$in": ids}}
}

// Collection is a typed Repository over one collection of an Executor.
type Collection[T any] struct {
	exec Executor
	name string
}

var _ Repository[struct{}] = (*Collection[struct{}])(nil)

// NewCollection binds a typed repository to a collection name.
func NewCollection[T any](exec Executor, name string) *Collection[T] {
	return &Collection[T]{exec: exec, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Executor returns the underlying executor for raw queries.
func (c *Collection[T]) Executor() Executor {
	return c.exec
}

func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	doc, err := c.exec.FindOne(ctx, c.name, IDFilter(id), nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := Decode(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Collection[T]) FindAll(ctx context.Context, opts QueryOptions) ([]T, error) {
	docs, err := c.exec.Find(ctx, c.name, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := Decode(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// FindRaw returns undecoded documents, so projected-away fields stay absent.
func (c *Collection[T]) FindRaw(ctx context.Context, opts QueryOptions) ([]Document, error) {
	return c.exec.Find(ctx, c.name, opts)
}

func (c *Collection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	return c.exec.Count(ctx, c.name, filter, 0)
}

// Exists reports whether at least one document matches filter.
func (c *Collection[T]) Exists(ctx context.Context, filter Filter) (bool, error) {
	n, err := c.exec.Count(ctx, c.name, filter, 1)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Collection[T]) Create(ctx context.Context, entity *T) (primitive.ObjectID, error) {
	doc, err := Encode(entity)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return c.exec.InsertOne(ctx, c.name, doc)
}

func (c *Collection[T]) CreateMany(ctx context.Context, entities []*T) ([]primitive.ObjectID, error) {
	docs := make([]Document, 0, len(entities))
	for _, entity := range entities {
		doc, err := Encode(entity)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return c.exec.InsertMany(ctx, c.name, docs)
}

// Update applies a partial update. A missing document yields ErrNoDocument.
func (c *Collection[T]) Update(ctx context.Context, update Update) error {
	matched, err := c.exec.UpdateOne(ctx, c.name, update)
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNoDocument
	}
	return nil
}

// UpdateMany applies all updates in one batch. It yields ErrNoDocument when any
// update matched nothing.
func (c *Collection[T]) UpdateMany(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	matched, err := c.exec.UpdateMany(ctx, c.name, updates)
	if err != nil {
		return err
	}
	if matched < int64(len(updates)) {
		return ErrNoDocument
	}
	return nil
}

// Delete removes one document by id. A missing document yields ErrNoDocument.
func (c *Collection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := c.exec.DeleteOne(ctx, c.name, IDFilter(id))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNoDocument
	}
	return nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return c.exec.DeleteMany(ctx, c.name, IDsFilter(ids))
}
