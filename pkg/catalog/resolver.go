package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Relation is the target side of a reference.
type Relation struct {
	Entity model.Entity
	// alternatives builds the lookup for a set of descriptors. Nil means a plain $or.
	alternatives func(or []document.Filter) (document.QueryOptions, error)
}

// Relations used by the catalog.
var (
	AuthorRelation = Relation{Entity: model.AuthorEntity}
	BookRelation   = Relation{Entity: model.BookEntity}
	GenreRelation  = Relation{
		Entity: model.GenreEntity,
		alternatives: func(or []document.Filter) (document.QueryOptions, error) {
			return query.GenreFilter{Or: or}.Compose(time.Time{})
		},
	}
)

var idOnly = document.Projection{model.FieldID: 1}

// Resolver turns references given by id or by descriptor into stored ids. It never
// writes.
type Resolver struct {
	exec document.Executor
}

// NewResolver builds a resolver over exec.
func NewResolver(exec document.Executor) *Resolver {
	return &Resolver{exec: exec}
}

// One resolves a single reference. The id wins when it exists; otherwise the first
// document matching descriptor is used.
func (r *Resolver) One(ctx context.Context, rel Relation, id *string, descriptor document.Filter) (primitive.ObjectID, error) {
	if id == nil && descriptor == nil {
		return primitive.NilObjectID, fmt.Errorf("no %s reference supplied", strings.ToLower(rel.Entity.Name))
	}

	var detail string
	if id != nil {
		oid, err := query.ParseID(strings.ToLower(rel.Entity.Name)+"Id", *id)
		if err != nil {
			return primitive.NilObjectID, err
		}
		n, err := r.exec.Count(ctx, rel.Entity.Collection, document.IDFilter(oid), 1)
		if err != nil {
			return primitive.NilObjectID, storeError(rel.Entity, "resolve", err)
		}
		if n > 0 {
			return oid, nil
		}
		detail = oid.Hex()
	}

	if descriptor != nil {
		oid, ok, err := r.first(ctx, rel, descriptor)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if ok {
			return oid, nil
		}
		if detail == "" {
			detail = describeFilter(descriptor)
		}
	}
	return primitive.NilObjectID, errReferenceNotFound(rel.Entity, detail)
}

// Many resolves a list reference given either as ids or as descriptors. Every
// element must resolve to a distinct document; the result follows request order.
// An empty request resolves to an empty list.
func (r *Resolver) Many(ctx context.Context, rel Relation, ids []string, descriptors []document.Filter) ([]primitive.ObjectID, error) {
	switch {
	case len(ids) > 0:
		return r.manyByID(ctx, rel, ids)
	case len(descriptors) > 0:
		return r.manyByDescriptor(ctx, rel, descriptors)
	default:
		return []primitive.ObjectID{}, nil
	}
}

func (r *Resolver) manyByID(ctx context.Context, rel Relation, hexes []string) ([]primitive.ObjectID, error) {
	field := strings.ToLower(rel.Entity.Name) + "Id"
	ids, err := query.ParseIDs(field, hexes)
	if err != nil {
		return nil, err
	}
	if repeated := repeatedIDs(ids); len(repeated) > 0 {
		return nil, errRepeatedReference(rel.Entity, field, hexIDs(repeated))
	}

	n, err := r.exec.Count(ctx, rel.Entity.Collection, document.IDsFilter(ids), 0)
	if err != nil {
		return nil, storeError(rel.Entity, "resolve", err)
	}
	if n == int64(len(ids)) {
		return ids, nil
	}

	missing, err := r.missing(ctx, rel.Entity, ids)
	if err != nil {
		return nil, err
	}
	return nil, errReferenceNotFound(rel.Entity, strings.Join(hexIDs(missing), ", "))
}

// manyByDescriptor runs one lookup per descriptor so each is matched by the store
// exactly as a single reference would be.
func (r *Resolver) manyByDescriptor(ctx context.Context, rel Relation, descriptors []document.Filter) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(descriptors))
	var unresolved []string
	for _, descriptor := range descriptors {
		id, ok, err := r.first(ctx, rel, descriptor)
		if err != nil {
			return nil, err
		}
		if !ok {
			unresolved = append(unresolved, describeFilter(descriptor))
			continue
		}
		out = append(out, id)
	}
	if len(unresolved) > 0 {
		return nil, errReferenceNotFound(rel.Entity, strings.Join(unresolved, "; "))
	}
	if repeated := repeatedIDs(out); len(repeated) > 0 {
		return nil, errRepeatedReference(rel.Entity, strings.ToLower(rel.Entity.Name), hexIDs(repeated))
	}
	return out, nil
}

// first returns the id of the first stored document matching descriptor.
func (r *Resolver) first(ctx context.Context, rel Relation, descriptor document.Filter) (primitive.ObjectID, bool, error) {
	opts := document.QueryOptions{Filter: descriptor}
	if rel.alternatives != nil {
		var err error
		if opts, err = rel.alternatives([]document.Filter{descriptor}); err != nil {
			return primitive.NilObjectID, false, err
		}
	}
	opts.Projection = idOnly
	opts.Skip = 0
	opts.Limit = 1

	docs, err := r.exec.Find(ctx, rel.Entity.Collection, opts)
	if err != nil {
		return primitive.NilObjectID, false, storeError(rel.Entity, "resolve", err)
	}
	if len(docs) == 0 {
		return primitive.NilObjectID, false, nil
	}
	id, err := documentID(rel.Entity, docs[0])
	return id, err == nil, err
}

// missing returns the ids with no stored document, in request order.
func (r *Resolver) missing(ctx context.Context, entity model.Entity, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	docs, err := r.exec.Find(ctx, entity.Collection, document.QueryOptions{
		Filter:     document.IDsFilter(ids),
		Projection: idOnly,
	})
	if err != nil {
		return nil, storeError(entity, "resolve", err)
	}
	found := make(map[primitive.ObjectID]struct{}, len(docs))
	for _, doc := range docs {
		if id, ok := doc[model.FieldID].(primitive.ObjectID); ok {
			found[id] = struct{}{}
		}
	}
	var out []primitive.ObjectID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func documentID(entity model.Entity, doc document.Document) (primitive.ObjectID, error) {
	id, ok := doc[model.FieldID].(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%s document without an object id", strings.ToLower(entity.Name))
	}
	return id, nil
}

// describeFilter renders the plain values of a filter as "k=v" pairs for messages.
func describeFilter(f document.Filter) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		case time.Time:
			parts = append(parts, fmt.Sprintf("%s=%s", k, v.UTC().Format(time.RFC3339)))
		case primitive.ObjectID:
			parts = append(parts, fmt.Sprintf("%s=%s", k, v.Hex()))
		}
	}
	return strings.Join(parts, " ")
}
