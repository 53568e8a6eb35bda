package catalog

import (
	"context"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/observability/logger"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookService manages books.
type BookService struct {
	service[model.Book]
}

// NewBookService builds a BookService over exec.
func NewBookService(exec document.Executor, log logger.Logger, metrics *Metrics, cfg Config) *BookService {
	return &BookService{service: newService[model.Book](model.BookEntity, exec, log, metrics, cfg)}
}

// List returns the books selected by f, shaped by its projection.
func (s *BookService) List(ctx context.Context, f query.BookFilter) ([]document.Document, error) {
	return s.list(ctx, f.Compose)
}

// Get returns one book by id.
func (s *BookService) Get(ctx context.Context, id string) (*model.Book, error) {
	return s.get(ctx, id)
}

// Create stores a new book. Its author and genres must already exist.
func (s *BookService) Create(ctx context.Context, in BookInput) (*model.Book, error) {
	created, err := s.CreateMany(ctx, []BookInput{in})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateMany resolves and checks every book before storing them all at once.
func (s *BookService) CreateMany(ctx context.Context, inputs []BookInput) ([]*model.Book, error) {
	if err := s.checkBatchSize(len(inputs)); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}
	books := make([]*model.Book, 0, len(inputs))
	keys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		b, err := resolveBook(ctx, s.resolver, in)
		if err != nil {
			return nil, s.fail(ctx, OpCreate, err)
		}
		if err := s.guard.Check(ctx, s.entity, BookDefining(b)); err != nil {
			return nil, s.fail(ctx, OpCreate, err)
		}
		books = append(books, &b)
		keys = append(keys, bookKey(b))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}

	ids, err := s.insert(ctx, books)
	if err != nil {
		return nil, err
	}
	for i, b := range books {
		b.ID = ids[i]
	}
	return books, nil
}

// Update applies patch to the book with the given id.
func (s *BookService) Update(ctx context.Context, id string, patch BookPatch) (*model.Book, error) {
	updated, err := s.UpdateMany(ctx, []BookPatchItem{{ID: id, BookPatch: patch}})
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

// UpdateMany applies every patch or none.
func (s *BookService) UpdateMany(ctx context.Context, items []BookPatchItem) ([]*model.Book, error) {
	hexes := make([]string, 0, len(items))
	for _, item := range items {
		hexes = append(hexes, item.ID)
	}
	ids, books, err := s.loadAll(ctx, hexes)
	if err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	updates := make([]document.Update, 0, len(items))
	keys := make([]string, 0, len(items))
	for i, item := range items {
		b := books[i]
		if err := s.applyPatch(ctx, b, item.BookPatch); err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		if err := s.guard.Check(ctx, s.entity, BookDefining(*b), ids...); err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		set, err := setFields(b)
		if err != nil {
			return nil, s.fail(ctx, OpUpdate, err)
		}
		updates = append(updates, document.Update{ID: ids[i], Set: set})
		keys = append(keys, bookKey(*b))
	}
	if err := CheckBatch(s.entity, keys); err != nil {
		return nil, s.fail(ctx, OpUpdate, err)
	}

	if err := s.update(ctx, updates); err != nil {
		return nil, err
	}
	return books, nil
}

// Delete removes one book.
func (s *BookService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// DeleteMany removes every listed book or none.
func (s *BookService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return s.deleteMany(ctx, ids)
}

func (s *BookService) applyPatch(ctx context.Context, b *model.Book, p BookPatch) error {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Summary != nil {
		b.Summary = *p.Summary
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.replacesAuthor() {
		author, err := resolveAuthor(ctx, s.resolver, p.AuthorID, p.Author)
		if err != nil {
			return err
		}
		b.Author = author
	}
	if p.replacesGenre() {
		genre, err := resolveGenres(ctx, s.resolver, p.GenreID, p.Genre)
		if err != nil {
			return err
		}
		b.Genre = genre
	}
	return nil
}

// resolveBook turns a book input into a storable book, resolving its references.
func resolveBook(ctx context.Context, r *Resolver, in BookInput) (model.Book, error) {
	author, err := resolveAuthor(ctx, r, in.AuthorID, in.Author)
	if err != nil {
		return model.Book{}, err
	}
	genre, err := resolveGenres(ctx, r, in.GenreID, in.Genre)
	if err != nil {
		return model.Book{}, err
	}
	return model.Book{
		Title:   in.Title,
		Author:  author,
		Summary: in.Summary,
		ISBN:    in.ISBN,
		Genre:   genre,
	}, nil
}

func resolveAuthor(ctx context.Context, r *Resolver, id *string, descriptor *AuthorInput) (primitive.ObjectID, error) {
	var filter document.Filter
	if descriptor != nil {
		filter = descriptor.descriptor()
	}
	return r.One(ctx, AuthorRelation, id, filter)
}

func resolveGenres(ctx context.Context, r *Resolver, ids []string, descriptors []GenreInput) ([]primitive.ObjectID, error) {
	filters := make([]document.Filter, 0, len(descriptors))
	for _, d := range descriptors {
		filters = append(filters, GenreDefining(model.Genre{Name: d.Name}))
	}
	return r.Many(ctx, GenreRelation, ids, filters)
}
