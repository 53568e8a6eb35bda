package catalog

import (
	"context"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/repository/document"
)

// GenreService manages genres.
type GenreService struct {
	service[model.Genre]
}

// NewGenreService builds a GenreService over exec.
func NewGenreService(exec document.Executor, log logger.Logger, metrics *Metrics, cfg Config) *GenreService {
	return &GenreService{service: newService[model.Genre](model.GenreEntity, exec, log, metrics, cfg)}
}

// List returns the genres selected by f.
func (s *GenreService) List(ctx context.Context, f query.GenreFilter) ([]document.Document, error) {
	return s.list(ctx, f.Compose)
}

// Get returns one genre by id.
func (s *GenreService) Get(ctx context.Context, id string) (*model.Genre, error) {
	return s.get(ctx, id)
}

// Create stores a new genre.
func (s *GenreService) Create(ctx context.Context, in GenreInput) (*model.Genre, error) {
	created, err := s.CreateMany(ctx, []GenreInput{in})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateMany stores every genre or none.
func (s *GenreService) CreateMany(ctx context.Context, inputs []GenreInput) ([]*model.Genre, error) {
	if err := s.checkBatchSize(len(inputs)); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}
	genres := make([]*model.Genre, 0, len(inputs))
	keys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		g := model.Genre{Name: in.Name}
		if err := s.guard.Check(ctx, s.entity, GenreDefining(g)); err != nil {
			return nil, s.fail(ctx, OpCreate, err)
		}
		genres = append(genres, &g)
		keys = append(keys, genreKey(g))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}

	ids, err := s.insert(ctx, genres)
	if err != nil {
		return nil, err
	}
	for i, g := range genres {
		g.ID = ids[i]
	}
	return genres, nil
}

// Update renames the genre with the given id.
func (s *GenreService) Update(ctx context.Context, id string, patch GenrePatch) (*model.Genre, error) {
	updated, err := s.UpdateMany(ctx, []GenrePatchItem{{ID: id, GenrePatch: patch}})
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

// UpdateMany applies every patch or none.
func (s *GenreService) UpdateMany(ctx context.Context, items []GenrePatchItem) ([]*model.Genre, error) {
	hexes := make([]string, 0, len(items))
	for _, item := range items {
		hexes = append(hexes, item.ID)
	}
	ids, genres, err := s.loadAll(ctx, hexes)
	if err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	updates := make([]document.Update, 0, len(items))
	keys := make([]string, 0, len(items))
	for i, item := range items {
		g := genres[i]
		if item.Name != nil {
			g.Name = *item.Name
		}
		if err := s.guard.Check(ctx, s.entity, GenreDefining(*g), ids...); err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		updates = append(updates, document.Update{ID: ids[i], Set: document.Document{"name": g.Name}})
		keys = append(keys, genreKey(*g))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	if err := s.update(ctx, updates); err != nil {
		return nil, err
	}
	return genres, nil
}

// Delete removes one genre.
func (s *GenreService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// DeleteMany removes every listed genre or none.
func (s *GenreService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return s.deleteMany(ctx, ids)
}
