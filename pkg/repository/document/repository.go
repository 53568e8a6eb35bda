package document

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a raw stored document as returned by the store.
type Document = bson.M

// Filter holds store query criteria using MongoDB operator names.
type Filter map[string]interface{}

// Projection maps field names to 1 (include) or 0 (exclude).
type Projection map[string]int

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Direction returns the store direction, 1 or -1.
func (o SortOrder) Direction() int {
	if o == SortDesc {
		return -1
	}
	return 1
}

// SortField is one sort key.
type SortField struct {
	Field string
	Order SortOrder
}

// Sort is an ordered list of sort keys; earlier keys take precedence.
type Sort []SortField

// QueryOptions is the full read request handed to an Executor. The store applies
// Sort, then Skip, then Limit. A zero Limit means unbounded.
type QueryOptions struct {
	Filter     Filter
	Projection Projection
	Sort       Sort
	Skip       int64
	Limit      int64
}

// Update is a partial update of a single document addressed by id.
type Update struct {
	ID    primitive.ObjectID
	Set   Document
	Unset []string
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return len(u.Set) == 0 && len(u.Unset) == 0
}

// Normalize returns a projection the store accepts. MongoDB rejects projections
// mixing inclusion and exclusion (other than _id), so an inclusion projection keeps
// only its 1 entries plus an explicit `_id: 0`, and an exclusion projection keeps
// its 0 entries.
func (p Projection) Normalize() Projection {
	if len(p) == 0 {
		return nil
	}
	inclusion := false
	for _, v := range p {
		if v == 1 {
			inclusion = true
			break
		}
	}

	out := Projection{}
	for field, v := range p {
		switch {
		case v == 1:
			out[field] = 1
		case inclusion && field == "_id":
			out[field] = 0
		case !inclusion:
			out[field] = 0
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BSON renders the sort keys in order.
func (s Sort) BSON() bson.D {
	if len(s) == 0 {
		return nil
	}
	d := make(bson.D, 0, len(s))
	for _, f := range s {
		d = append(d, bson.E{Key: f.Field, Value: f.Order.Direction()})
	}
	return d
}

// String renders the sort keys as "field:asc,other:desc", for logs.
func (s Sort) String() string {
	parts := make([]string, 0, len(s))
	for _, f := range s {
		parts = append(parts, f.Field+":"+string(f.Order))
	}
	return strings.Join(parts, ",")
}

// Reader provides typed read operations over one collection.
type Reader[T any] interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	FindAll(ctx context.Context, opts QueryOptions) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Writer provides typed write operations over one collection.
type Writer[T any] interface {
	Create(ctx context.Context, entity *T) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, entities []*T) ([]primitive.ObjectID, error)
	Update(ctx context.Context, update Update) error
	UpdateMany(ctx context.Context, updates []Update) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// Repository combines Reader and Writer.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
}
