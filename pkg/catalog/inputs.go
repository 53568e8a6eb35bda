package catalog

import (
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
)

// AuthorInput creates an author, or describes one when used as a reference.
type AuthorInput struct {
	FirstName   string      `json:"firstName" validate:"required,min=3,max=100"`
	LastName    string      `json:"lastName" validate:"required,min=3,max=100"`
	DateOfBirth *model.Date `json:"dateOfBirth" validate:"required"`
	DateOfDeath *model.Date `json:"dateOfDeath,omitempty"`
}

func (in AuthorInput) author() model.Author {
	a := model.Author{FirstName: in.FirstName, LastName: in.LastName, DateOfDeath: in.DateOfDeath.Ptr()}
	if in.DateOfBirth != nil {
		a.DateOfBirth = in.DateOfBirth.Time
	}
	return a
}

// descriptor matches authors on the supplied fields only; an omitted dateOfDeath
// does not constrain the match.
func (in AuthorInput) descriptor() document.Filter {
	a := in.author()
	filter := document.Filter{
		"firstName":   a.FirstName,
		"lastName":    a.LastName,
		"dateOfBirth": a.DateOfBirth,
	}
	if a.DateOfDeath != nil {
		filter["dateOfDeath"] = *a.DateOfDeath
	}
	return filter
}

// AuthorPatch holds the author fields to change. Nil fields are kept.
type AuthorPatch struct {
	FirstName   *string     `json:"firstName,omitempty" validate:"omitempty,min=3,max=100"`
	LastName    *string     `json:"lastName,omitempty" validate:"omitempty,min=3,max=100"`
	DateOfBirth *model.Date `json:"dateOfBirth,omitempty"`
	DateOfDeath *model.Date `json:"dateOfDeath,omitempty"`
}

func (p AuthorPatch) apply(a *model.Author) {
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		a.DateOfBirth = p.DateOfBirth.Time
	}
	if p.DateOfDeath != nil {
		a.DateOfDeath = p.DateOfDeath.Ptr()
	}
}

// AuthorPatchItem is one element of a batch author update.
type AuthorPatchItem struct {
	ID string `json:"id" validate:"required,mongodb"`
	AuthorPatch
}

// GenreInput creates a genre, or describes one when used as a reference.
type GenreInput struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

// GenrePatch holds the genre fields to change.
type GenrePatch struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
}

// GenrePatchItem is one element of a batch genre update.
type GenrePatchItem struct {
	ID string `json:"id" validate:"required,mongodb"`
	GenrePatch
}

// BookInput creates a book, or describes one when used as a reference. The author is
// given either by id or by descriptor, genres likewise.
type BookInput struct {
	Title    string       `json:"title" validate:"required,max=200"`
	AuthorID *string      `json:"authorId,omitempty" validate:"required_without=Author,excluded_with=Author,omitempty,mongodb"`
	Author   *AuthorInput `json:"author,omitempty"`
	Summary  string       `json:"summary" validate:"required,max=1000"`
	ISBN     string       `json:"isbn" validate:"required,isbn_pattern"`
	GenreID  []string     `json:"genreId,omitempty" validate:"excluded_with=Genre,omitempty,dive,mongodb"`
	Genre    []GenreInput `json:"genre,omitempty" validate:"omitempty,dive"`
}

// descriptor matches books on the supplied fields of in, with references already
// resolved into b. Genre takes part only when genreId or genre was supplied.
func (in BookInput) descriptor(b model.Book) document.Filter {
	filter := document.Filter{
		"title":   b.Title,
		"author":  b.Author,
		"summary": b.Summary,
		"isbn":    b.ISBN,
	}
	if in.GenreID != nil || in.Genre != nil {
		filter["genre"] = genreSet(b.Genre)
	}
	return filter
}

// BookPatch holds the book fields to change. Supplying authorId or author replaces
// the author; supplying genreId or genre replaces the genre list.
type BookPatch struct {
	Title    *string      `json:"title,omitempty" validate:"omitempty,max=200"`
	AuthorID *string      `json:"authorId,omitempty" validate:"excluded_with=Author,omitempty,mongodb"`
	Author   *AuthorInput `json:"author,omitempty"`
	Summary  *string      `json:"summary,omitempty" validate:"omitempty,max=1000"`
	ISBN     *string      `json:"isbn,omitempty" validate:"omitempty,isbn_pattern"`
	GenreID  []string     `json:"genreId,omitempty" validate:"excluded_with=Genre,omitempty,dive,mongodb"`
	Genre    []GenreInput `json:"genre,omitempty" validate:"omitempty,dive"`
}

func (p BookPatch) replacesAuthor() bool {
	return p.AuthorID != nil || p.Author != nil
}

func (p BookPatch) replacesGenre() bool {
	return p.GenreID != nil || p.Genre != nil
}

// BookPatchItem is one element of a batch book update.
type BookPatchItem struct {
	ID string `json:"id" validate:"required,mongodb"`
	BookPatch
}

// BookInstanceInput creates a book instance. Status defaults to Maintenance and
// back to the creation time.
type BookInstanceInput struct {
	BookID    *string       `json:"bookId,omitempty" validate:"required_without=Book,excluded_with=Book,omitempty,mongodb"`
	Book      *BookInput    `json:"book,omitempty"`
	Publisher string        `json:"publisher" validate:"required,max=200"`
	Status    *model.Status `json:"status,omitempty" validate:"omitempty,oneof=Available Maintenance Loaned Reserved"`
	Back      *model.Date   `json:"back,omitempty"`
}

func (in BookInstanceInput) instance(now time.Time) model.BookInstance {
	bi := model.BookInstance{Publisher: in.Publisher, Status: model.DefaultStatus, Back: now.UTC()}
	if in.Status != nil {
		bi.Status = *in.Status
	}
	if in.Back != nil {
		bi.Back = in.Back.Time
	}
	return bi
}

// BookInstancePatch holds the book instance fields to change.
type BookInstancePatch struct {
	BookID    *string       `json:"bookId,omitempty" validate:"excluded_with=Book,omitempty,mongodb"`
	Book      *BookInput    `json:"book,omitempty"`
	Publisher *string       `json:"publisher,omitempty" validate:"omitempty,max=200"`
	Status    *model.Status `json:"status,omitempty" validate:"omitempty,oneof=Available Maintenance Loaned Reserved"`
	Back      *model.Date   `json:"back,omitempty"`
}

func (p BookInstancePatch) replacesBook() bool {
	return p.BookID != nil || p.Book != nil
}

// BookInstancePatchItem is one element of a batch book instance update.
type BookInstancePatchItem struct {
	ID string `json:"id" validate:"required,mongodb"`
	BookInstancePatch
}

// DeleteManyInput lists the ids to delete.
type DeleteManyInput struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,mongodb"`
}
