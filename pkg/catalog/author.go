package catalog

import (
	"context"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthorService manages authors.
type AuthorService struct {
	service[model.Author]
}

// NewAuthorService builds an AuthorService over exec.
func NewAuthorService(exec document.Executor, log logger.Logger, metrics *Metrics, cfg Config) *AuthorService {
	return &AuthorService{service: newService[model.Author](model.AuthorEntity, exec, log, metrics, cfg)}
}

// List returns the authors selected by f, shaped by its projection.
func (s *AuthorService) List(ctx context.Context, f query.AuthorFilter) ([]document.Document, error) {
	return s.list(ctx, f.Compose)
}

// Get returns one author by id.
func (s *AuthorService) Get(ctx context.Context, id string) (*model.Author, error) {
	return s.get(ctx, id)
}

// Create stores a new author.
func (s *AuthorService) Create(ctx context.Context, in AuthorInput) (*model.Author, error) {
	created, err := s.CreateMany(ctx, []AuthorInput{in})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateMany stores every author or none.
func (s *AuthorService) CreateMany(ctx context.Context, inputs []AuthorInput) ([]*model.Author, error) {
	if err := s.checkBatchSize(len(inputs)); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}
	authors := make([]*model.Author, 0, len(inputs))
	keys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		a := in.author()
		if err := s.admit(ctx, a); err != nil {
			return nil, s.fail(ctx, OpCreate, err)
		}
		authors = append(authors, &a)
		keys = append(keys, authorKey(a))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}

	ids, err := s.insert(ctx, authors)
	if err != nil {
		return nil, err
	}
	for i, a := range authors {
		a.ID = ids[i]
	}
	return authors, nil
}

// Update applies patch to the author with the given id.
func (s *AuthorService) Update(ctx context.Context, id string, patch AuthorPatch) (*model.Author, error) {
	updated, err := s.UpdateMany(ctx, []AuthorPatchItem{{ID: id, AuthorPatch: patch}})
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

// UpdateMany applies every patch or none.
func (s *AuthorService) UpdateMany(ctx context.Context, items []AuthorPatchItem) ([]*model.Author, error) {
	hexes := make([]string, 0, len(items))
	for _, item := range items {
		hexes = append(hexes, item.ID)
	}
	ids, authors, err := s.loadAll(ctx, hexes)
	if err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	updates := make([]document.Update, 0, len(items))
	keys := make([]string, 0, len(items))
	for i, item := range items {
		a := authors[i]
		item.apply(a)
		if err := s.admit(ctx, *a, ids...); err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		set, err := setFields(a)
		if err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		updates = append(updates, document.Update{ID: ids[i], Set: set})
		keys = append(keys, authorKey(*a))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	if err := s.update(ctx, updates); err != nil {
		return nil, err
	}
	return authors, nil
}

// Delete removes one author.
func (s *AuthorService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// DeleteMany removes every listed author or none.
func (s *AuthorService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return s.deleteMany(ctx, ids)
}

// admit checks the lifespan, then that no author outside exclude has the same
// defining fields.
func (s *AuthorService) admit(ctx context.Context, a model.Author, exclude ...primitive.ObjectID) error {
	if err := checkLifespan(a.DateOfBirth, a.DateOfDeath); err != nil {
		return err
	}
	return s.guard.Check(ctx, s.entity, AuthorDefining(a), exclude...)
}
