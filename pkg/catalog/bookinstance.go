package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookInstanceService manages book instances.
type BookInstanceService struct {
	service[model.BookInstance]
}

// NewBookInstanceService builds a BookInstanceService over exec.
func NewBookInstanceService(exec document.Executor, log logger.Logger, metrics *Metrics, cfg Config) *BookInstanceService {
	return &BookInstanceService{service: newService[model.BookInstance](model.BookInstanceEntity, exec, log, metrics, cfg)}
}

// List returns the book instances selected by f.
func (s *BookInstanceService) List(ctx context.Context, f query.BookInstanceFilter) ([]document.Document, error) {
	return s.list(ctx, f.Compose)
}

// Get returns one book instance by id.
func (s *BookInstanceService) Get(ctx context.Context, id string) (*model.BookInstance, error) {
	return s.get(ctx, id)
}

// Create stores a new copy of an existing book.
func (s *BookInstanceService) Create(ctx context.Context, in BookInstanceInput) (*model.BookInstance, error) {
	created, err := s.CreateMany(ctx, []BookInstanceInput{in})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateMany resolves and checks every instance before storing them all at once.
func (s *BookInstanceService) CreateMany(ctx context.Context, inputs []BookInstanceInput) ([]*model.BookInstance, error) {
	if err := s.checkBatchSize(len(inputs)); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}
	now := s.now()
	instances := make([]*model.BookInstance, 0, len(inputs))
	keys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.Back != nil && in.Back.Before(model.StartOfDay(now)) {
			return nil, s.fail(ctx, OpCreate, errBackInPast(in.Back.Time))
		}
		book, err := resolveBookRef(ctx, s.resolver, in.BookID, in.Book)
		if err != nil {
			return nil, s.fail(ctx, OpCreate, err)
		}
		bi := in.instance(now)
		bi.Book = book
		if err := s.guard.Check(ctx, s.entity, BookInstanceDefining(bi)); err != nil {
			return nil, s.fail(ctx, OpCreate, err)
		}
		instances = append(instances, &bi)
		keys = append(keys, bookInstanceKey(bi))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}

	ids, err := s.insert(ctx, instances)
	if err != nil {
		return nil, err
	}
	for i, bi := range instances {
		bi.ID = ids[i]
	}
	return instances, nil
}

// Update applies patch to the book instance with the given id.
func (s *BookInstanceService) Update(ctx context.Context, id string, patch BookInstancePatch) (*model.BookInstance, error) {
	updated, err := s.UpdateMany(ctx, []BookInstancePatchItem{{ID: id, BookInstancePatch: patch}})
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

// UpdateMany applies every patch or none.
func (s *BookInstanceService) UpdateMany(ctx context.Context, items []BookInstancePatchItem) ([]*model.BookInstance, error) {
	hexes := make([]string, 0, len(items))
	for _, item := range items {
		hexes = append(hexes, item.ID)
	}
	ids, instances, err := s.loadAll(ctx, hexes)
	if err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	updates := make([]document.Update, 0, len(items))
	keys := make([]string, 0, len(items))
	for i, item := range items {
		bi := instances[i]
		if err := s.applyPatch(ctx, bi, item.BookInstancePatch); err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		if err := s.guard.Check(ctx, s.entity, BookInstanceDefining(*bi), ids...); err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		set, err := setFields(bi)
		if err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		updates = append(updates, document.Update{ID: ids[i], Set: set})
		keys = append(keys, bookInstanceKey(*bi))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	if err := s.update(ctx, updates); err != nil {
		return nil, err
	}
	return instances, nil
}

// Delete removes one book instance.
func (s *BookInstanceService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// DeleteMany removes every listed book instance or none.
func (s *BookInstanceService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return s.deleteMany(ctx, ids)
}

func (s *BookInstanceService) applyPatch(ctx context.Context, bi *model.BookInstance, p BookInstancePatch) error {
	if p.Publisher != nil {
		bi.Publisher = *p.Publisher
	}
	if p.Status != nil {
		bi.Status = *p.Status
	}
	if p.Back != nil {
		bi.Back = p.Back.Time
	}
	if p.replacesBook() {
		book, err := resolveBookRef(ctx, s.resolver, p.BookID, p.Book)
		if err != nil {
			return err
		}
		bi.Book = book
	}
	return nil
}

// resolveBookRef finds an existing book by id or by its full descriptor. A
// descriptor never creates a book.
func resolveBookRef(ctx context.Context, r *Resolver, id *string, descriptor *BookInput) (primitive.ObjectID, error) {
	var filter document.Filter
	if descriptor != nil {
		b, err := resolveBook(ctx, r, *descriptor)
		if err != nil {
			return primitive.NilObjectID, err
		}
		filter = descriptor.descriptor(b)
	}
	return r.One(ctx, BookRelation, id, filter)
}

func errBackInPast(back time.Time) *apperror.Error {
	msg := fmt.Sprintf("back (%s) must be today or later", back.UTC().Format(time.RFC3339))
	return apperror.Validation(msg, apperror.FieldError{Field: "back", Rule: "today_or_later", Message: msg})
}
