// Package catalog implements the library catalog operations: listing, lookup and
// guarded writes for authors, books, book instances and genres.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Write operations recorded in library_catalog_writes_total.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Config tunes the catalog services.
type Config struct {
	// MaxBatchSize caps batch requests. Zero means unlimited.
	MaxBatchSize int
	// Clock supplies the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Catalog groups the four entity services over one executor.
type Catalog struct {
	Authors       *AuthorService
	Books         *BookService
	BookInstances *BookInstanceService
	Genres        *GenreService
}

// New builds every catalog service over exec.
func New(exec document.Executor, log logger.Logger, metrics *Metrics, cfg Config) *Catalog {
	return &Catalog{
		Authors:       NewAuthorService(exec, log, metrics, cfg),
		Books:         NewBookService(exec, log, metrics, cfg),
		BookInstances: NewBookInstanceService(exec, log, metrics, cfg),
		Genres:        NewGenreService(exec, log, metrics, cfg),
	}
}

// service holds what every entity service shares.
type service[T any] struct {
	entity   model.Entity
	coll     *document.Collection[T]
	guard    *Guard
	resolver *Resolver
	log      logger.Logger
	metrics  *Metrics
	cfg      Config
}

func newService[T any](entity model.Entity, exec document.Executor, log logger.Logger, metrics *Metrics, cfg Config) service[T] {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return service[T]{
		entity:   entity,
		coll:     document.NewCollection[T](exec, entity.Collection),
		guard:    NewGuard(exec),
		resolver: NewResolver(exec),
		log:      log.With("entity", entity.Name),
		metrics:  metrics,
		cfg:      cfg,
	}
}

func (s *service[T]) now() time.Time {
	return s.cfg.Clock().UTC()
}

// fail records a rejected or failed request and returns err unchanged.
func (s *service[T]) fail(ctx context.Context, op string, err error) error {
	log := s.log.WithContext(ctx)
	appErr, ok := apperror.As(err)
	if !ok {
		log.Error("catalog operation failed", "operation", op, "error", err)
		return err
	}
	reason := ""
	switch appErr.Code {
	case apperror.CodeValidation:
		reason = ReasonValidation
	case apperror.CodeDuplicate:
		reason = ReasonDuplicate
	case apperror.CodeReferenceNotFound:
		reason = ReasonReferenceNotFound
	case apperror.CodeNotFound:
		reason = ReasonNotFound
	}
	if reason != "" {
		s.metrics.rejected(s.entity.Name, reason)
	}
	log.Warn("catalog request rejected", "operation", op, "code", appErr.Code, "error", appErr.Message)
	return err
}

func (s *service[T]) wrote(ctx context.Context, op string, ids ...primitive.ObjectID) {
	s.metrics.wrote(s.entity.Name, op, len(ids))
	s.log.WithContext(ctx).Info("catalog write", "operation", op, "count", len(ids), "ids", hexIDs(ids))
}

func (s *service[T]) parseID(hex string) (primitive.ObjectID, error) {
	return query.ParseID("id", hex)
}

func (s *service[T]) checkBatchSize(n int) error {
	if n == 0 {
		return apperror.Validation(fmt.Sprintf("%s batch must not be empty", strings.ToLower(s.entity.Name)))
	}
	if s.cfg.MaxBatchSize > 0 && n > s.cfg.MaxBatchSize {
		return errBatchTooLarge(n, s.cfg.MaxBatchSize)
	}
	return nil
}

func (s *service[T]) list(ctx context.Context, compose func(time.Time) (document.QueryOptions, error)) ([]document.Document, error) {
	opts, err := compose(s.now())
	if err != nil {
		return nil, s.fail(ctx, "list", err)
	}
	docs, err := s.coll.FindRaw(ctx, opts)
	if err != nil {
		return nil, s.fail(ctx, "list", storeError(s.entity, "list", err))
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return docs, nil
}

func (s *service[T]) load(ctx context.Context, id primitive.ObjectID) (*T, error) {
	item, err := s.coll.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNoDocument) {
			return nil, errNotFound(s.entity, id)
		}
		return nil, storeError(s.entity, "get", err)
	}
	return item, nil
}

func (s *service[T]) get(ctx context.Context, hex string) (*T, error) {
	id, err := s.parseID(hex)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	return item, nil
}

func (s *service[T]) insert(ctx context.Context, items []*T) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	var err error
	if len(items) == 1 {
		var id primitive.ObjectID
		id, err = s.coll.Create(ctx, items[0])
		ids = []primitive.ObjectID{id}
	} else {
		ids, err = s.coll.CreateMany(ctx, items)
	}
	if err != nil {
		return nil, s.fail(ctx, OpCreate, storeError(s.entity, OpCreate, err))
	}
	s.wrote(ctx, OpCreate, ids...)
	return ids, nil
}

func (s *service[T]) update(ctx context.Context, updates []document.Update) error {
	var err error
	if len(updates) == 1 {
		err = s.coll.Update(ctx, updates[0])
	} else {
		err = s.coll.UpdateMany(ctx, updates)
	}
	if err != nil {
		return s.fail(ctx, OpUpdate, storeError(s.entity, OpUpdate, err))
	}
	ids := make([]primitive.ObjectID, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.ID)
	}
	s.wrote(ctx, OpUpdate, ids...)
	return nil
}

func (s *service[T]) delete(ctx context.Context, hex string) error {
	id, err := s.parseID(hex)
	if err != nil {
		return s.fail(ctx, OpDelete, err)
	}
	if err := s.coll.Delete(ctx, id); err != nil {
		if errors.Is(err, document.ErrNoDocument) {
			return s.fail(ctx, OpDelete, errNotFound(s.entity, id))
		}
		return s.fail(ctx, OpDelete, storeError(s.entity, OpDelete, err))
	}
	s.wrote(ctx, OpDelete, id)
	return nil
}

// deleteMany removes every listed document, or none when any id is unknown.
func (s *service[T]) deleteMany(ctx context.Context, hexes []string) (int64, error) {
	if err := s.checkBatchSize(len(hexes)); err != nil {
		return 0, s.fail(ctx, OpDelete, err)
	}
	parsed, err := query.ParseIDs("ids", hexes)
	if err != nil {
		return 0, s.fail(ctx, OpDelete, err)
	}
	ids := distinctIDs(parsed)
	n, err := s.coll.Count(ctx, document.IDsFilter(ids))
	if err != nil {
		return 0, s.fail(ctx, OpDelete, storeError(s.entity, OpDelete, err))
	}
	if n != int64(len(ids)) {
		missing, err := s.resolver.missing(ctx, s.entity, ids)
		if err != nil {
			return 0, s.fail(ctx, OpDelete, err)
		}
		return 0, s.fail(ctx, OpDelete, errNotFound(s.entity, missing...))
	}
	deleted, err := s.coll.DeleteMany(ctx, ids)
	if err != nil {
		return 0, s.fail(ctx, OpDelete, storeError(s.entity, OpDelete, err))
	}
	s.wrote(ctx, OpDelete, ids...)
	return deleted, nil
}

// loadAll fetches the documents targeted by a batch update, rejecting unknown or
// repeated ids.
func (s *service[T]) loadAll(ctx context.Context, hexes []string) ([]primitive.ObjectID, []*T, error) {
	if err := s.checkBatchSize(len(hexes)); err != nil {
		return nil, nil, err
	}
	ids, err := query.ParseIDs("id", hexes)
	if err != nil {
		return nil, nil, err
	}
	if len(distinctIDs(ids)) != len(ids) {
		return nil, nil, apperror.Validation(fmt.Sprintf("%s batch repeats an id", strings.ToLower(s.entity.Name)))
	}
	items := make([]*T, 0, len(ids))
	var missing []primitive.ObjectID
	for _, id := range ids {
		item, err := s.load(ctx, id)
		if err != nil {
			if apperror.HasCode(err, apperror.CodeNotFound) {
				missing = append(missing, id)
				continue
			}
			return nil, nil, err
		}
		items = append(items, item)
	}
	if len(missing) > 0 {
		return nil, nil, errNotFound(s.entity, missing...)
	}
	return ids, items, nil
}

// setFields encodes item and drops the id and version, giving the $set of a full
// replacement update.
func setFields(item interface{}) (document.Document, error) {
	doc, err := document.Encode(item)
	if err != nil {
		return nil, err
	}
	delete(doc, model.FieldID)
	delete(doc, model.FieldVersion)
	return doc, nil
}
