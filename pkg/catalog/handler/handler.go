// Package handler exposes the catalog over HTTP.
package handler

import (
	"context"
	"errors"

	"github.com/michalszc/library-api/pkg/catalog"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/catalog/query"
	"github.com/michalszc/library-api/pkg/controller"
	"github.com/michalszc/library-api/pkg/repository/document"
	"github.com/michalszc/library-api/pkg/server/router"
)

// Resource paths.
const (
	AuthorsPath       = "/authors"
	BooksPath         = "/books"
	BookInstancesPath = "/bookinstances"
	GenresPath        = "/genres"
)

// Register mounts the routes of every catalog entity on r.
func Register(r router.Router, cat *catalog.Catalog) {
	resource[query.AuthorFilter, catalog.AuthorInput, catalog.AuthorPatch, catalog.AuthorPatchItem, model.Author]{
		list:       cat.Authors.List,
		get:        cat.Authors.Get,
		create:     cat.Authors.Create,
		createMany: cat.Authors.CreateMany,
		update:     cat.Authors.Update,
		updateMany: cat.Authors.UpdateMany,
		delete:     cat.Authors.Delete,
		deleteMany: cat.Authors.DeleteMany,
	}.register(r.Group(AuthorsPath))

	resource[query.BookFilter, catalog.BookInput, catalog.BookPatch, catalog.BookPatchItem, model.Book]{
		list:       cat.Books.List,
		get:        cat.Books.Get,
		create:     cat.Books.Create,
		createMany: cat.Books.CreateMany,
		update:     cat.Books.Update,
		updateMany: cat.Books.UpdateMany,
		delete:     cat.Books.Delete,
		deleteMany: cat.Books.DeleteMany,
	}.register(r.Group(BooksPath))

	resource[query.BookInstanceFilter, catalog.BookInstanceInput, catalog.BookInstancePatch, catalog.BookInstancePatchItem, model.BookInstance]{
		list:       cat.BookInstances.List,
		get:        cat.BookInstances.Get,
		create:     cat.BookInstances.Create,
		createMany: cat.BookInstances.CreateMany,
		update:     cat.BookInstances.Update,
		updateMany: cat.BookInstances.UpdateMany,
		delete:     cat.BookInstances.Delete,
		deleteMany: cat.BookInstances.DeleteMany,
	}.register(r.Group(BookInstancesPath))

	resource[query.GenreFilter, catalog.GenreInput, catalog.GenrePatch, catalog.GenrePatchItem, model.Genre]{
		list:       cat.Genres.List,
		get:        cat.Genres.Get,
		create:     cat.Genres.Create,
		createMany: cat.Genres.CreateMany,
		update:     cat.Genres.Update,
		updateMany: cat.Genres.UpdateMany,
		delete:     cat.Genres.Delete,
		deleteMany: cat.Genres.DeleteMany,
	}.register(r.Group(GenresPath))
}

// DeleteResult is the body returned by delete routes.
type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}

// resource binds one entity service to its routes. F is the list filter, C the
// create input, P the patch and I the batch patch item.
type resource[F, C, P, I, T any] struct {
	list       func(context.Context, F) ([]document.Document, error)
	get        func(context.Context, string) (*T, error)
	create     func(context.Context, C) (*T, error)
	createMany func(context.Context, []C) ([]*T, error)
	update     func(context.Context, string, P) (*T, error)
	updateMany func(context.Context, []I) ([]*T, error)
	delete     func(context.Context, string) error
	deleteMany func(context.Context, []string) (int64, error)
}

func (res resource[F, C, P, I, T]) register(r router.Router) {
	r.GET("", res.handleList)
	r.POST("/search", res.handleList)
	r.GET("/:id", res.handleGet)
	r.POST("", res.handleCreate)
	r.POST("/batch", res.handleCreateMany)
	r.PATCH("/:id", res.handleUpdate)
	r.PATCH("", res.handleUpdateMany)
	r.DELETE("/:id", res.handleDelete)
	r.DELETE("", res.handleDeleteMany)
}

// handleList accepts an optional JSON filter body; no body lists with defaults.
func (res resource[F, C, P, I, T]) handleList(c router.Context) error {
	var filter F
	if err := c.Bind(&filter); err != nil && !errors.Is(err, router.ErrEmptyBody) {
		return controller.Error(c, controller.BindError(err))
	}
	if err := controller.ValidateDTO(&filter); err != nil {
		return controller.Error(c, err)
	}
	docs, err := res.list(c.Request().Context(), filter)
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Success(c, docs)
}

func (res resource[F, C, P, I, T]) handleGet(c router.Context) error {
	item, err := res.get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Success(c, item)
}

func (res resource[F, C, P, I, T]) handleCreate(c router.Context) error {
	var in C
	if err := controller.BindAndValidate(c, &in); err != nil {
		return controller.Error(c, err)
	}
	item, err := res.create(c.Request().Context(), in)
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Created(c, item)
}

func (res resource[F, C, P, I, T]) handleCreateMany(c router.Context) error {
	var in []C
	if err := controller.BindAndValidate(c, &in); err != nil {
		return controller.Error(c, err)
	}
	items, err := res.createMany(c.Request().Context(), in)
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Created(c, items)
}

func (res resource[F, C, P, I, T]) handleUpdate(c router.Context) error {
	var patch P
	if err := controller.BindAndValidate(c, &patch); err != nil {
		return controller.Error(c, err)
	}
	item, err := res.update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Success(c, item)
}

func (res resource[F, C, P, I, T]) handleUpdateMany(c router.Context) error {
	var items []I
	if err := controller.BindAndValidate(c, &items); err != nil {
		return controller.Error(c, err)
	}
	updated, err := res.updateMany(c.Request().Context(), items)
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Success(c, updated)
}

func (res resource[F, C, P, I, T]) handleDelete(c router.Context) error {
	if err := res.delete(c.Request().Context(), c.Param("id")); err != nil {
		return controller.Error(c, err)
	}
	return controller.Success(c, DeleteResult{Deleted: 1})
}

func (res resource[F, C, P, I, T]) handleDeleteMany(c router.Context) error {
	var in catalog.DeleteManyInput
	if err := controller.BindAndValidate(c, &in); err != nil {
		return controller.Error(c, err)
	}
	n, err := res.deleteMany(c.Request().Context(), in.IDs)
	if err != nil {
		return controller.Error(c, err)
	}
	return controller.Success(c, DeleteResult{Deleted: n})
}
