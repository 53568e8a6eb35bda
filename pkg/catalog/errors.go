package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Duplicate-existence messages per entity.
const (
	AuthorExistsMessage       = "Author(s) already exist(s)"
	BookExistsMessage         = "Book(s) already exist(s)"
	BookInstanceExistsMessage = "Book instance(s) already exist(s)"
	GenreExistsMessage        = "Genre already exists"
)

var duplicateMessages = map[string]string{
	model.AuthorCollection:       AuthorExistsMessage,
	model.BookCollection:         BookExistsMessage,
	model.BookInstanceCollection: BookInstanceExistsMessage,
	model.GenreCollection:        GenreExistsMessage,
}

// DuplicateMessage returns the fixed duplicate-existence message for entity.
func DuplicateMessage(entity model.Entity) string {
	if msg, ok := duplicateMessages[entity.Collection]; ok {
		return msg
	}
	return entity.Name + " already exists"
}

func errDuplicate(entity model.Entity) *apperror.Error {
	return apperror.Duplicate(DuplicateMessage(entity)).
		WithParams(apperror.Params{"entity": entity.Name})
}

func errNotFound(entity model.Entity, ids ...primitive.ObjectID) *apperror.Error {
	hexes := hexIDs(ids)
	msg := entity.Name + " not found"
	if len(hexes) > 0 {
		msg = fmt.Sprintf("%s not found: %s", entity.Name, strings.Join(hexes, ", "))
	}
	return apperror.NotFound(msg).WithParams(apperror.Params{"entity": entity.Name, "ids": hexes})
}

func errReferenceNotFound(entity model.Entity, detail string) *apperror.Error {
	msg := entity.Name + " not found"
	if detail != "" {
		msg = fmt.Sprintf("%s not found: %s", entity.Name, detail)
	}
	return apperror.ReferenceNotFound(msg).WithParams(apperror.Params{"entity": entity.Name})
}

func errRepeatedReference(entity model.Entity, field string, ids []string) *apperror.Error {
	msg := fmt.Sprintf("%s references repeat: %s", entity.Name, strings.Join(ids, ", "))
	return apperror.Validation(msg, apperror.FieldError{
		Field:   field,
		Rule:    "unique",
		Message: msg,
	})
}

func errLifespan(birth, death time.Time) *apperror.Error {
	msg := fmt.Sprintf("dateOfDeath (%s) must be after dateOfBirth (%s)",
		death.UTC().Format(time.RFC3339), birth.UTC().Format(time.RFC3339))
	return apperror.Validation(msg, apperror.FieldError{
		Field:   "dateOfDeath",
		Rule:    "gtfield",
		Message: msg,
	})
}

func errBatchTooLarge(size, max int) *apperror.Error {
	return apperror.Validation(fmt.Sprintf("batch of %d exceeds the limit of %d", size, max))
}

// storeError classifies an executor failure. Classified errors pass through,
// ErrNoDocument becomes entity-not-found and anything else stays unclassified.
func storeError(entity model.Entity, op string, err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, document.ErrNoDocument) {
		return errNotFound(entity)
	}
	return fmt.Errorf("%s %s: %w", op, strings.ToLower(entity.Name), err)
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
