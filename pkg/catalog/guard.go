package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Guard rejects writes that would store an entity whose defining fields already exist.
// The count and the following write are separate store calls, so two concurrent
// writers can both pass.
type Guard struct {
	exec document.Executor
}

// NewGuard builds a guard over exec.
func NewGuard(exec document.Executor) *Guard {
	return &Guard{exec: exec}
}

// Check fails with the entity's duplicate error when defining matches a stored
// document outside exclude. A batch update excludes every document it rewrites,
// so the check sees the state after the batch; clashes inside the batch are left
// to CheckBatch.
func (g *Guard) Check(ctx context.Context, entity model.Entity, defining document.Filter, exclude ...primitive.ObjectID) error {
	filter := make(document.Filter, len(defining)+1)
	for k, v := range defining {
		filter[k] = v
	}
	switch len(exclude) {
	case 0:
	case 1:
		filter[model.FieldID] = bson.M{"$ne": exclude[0]}
	default:
		filter[model.FieldID] = bson.M{"$nin": exclude}
	}
	n, err := g.exec.Count(ctx, entity.Collection, filter, 1)
	if err != nil {
		return storeError(entity, "check", err)
	}
	if n > 0 {
		return errDuplicate(entity)
	}
	return nil
}

// CheckBatch rejects a batch whose elements repeat a defining key.
func CheckBatch(entity model.Entity, keys []string) error {
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			return errDuplicate(entity)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// checkLifespan requires death, when present, to be strictly after birth.
func checkLifespan(birth time.Time, death *time.Time) error {
	if death != nil && !death.After(birth) {
		return errLifespan(birth, *death)
	}
	return nil
}

// optional matches v, or documents lacking the field when v is nil.
func optional(v *time.Time) interface{} {
	if v == nil {
		return bson.M{"$exists": false}
	}
	return *v
}

// AuthorDefining is the exact-match filter over an author's defining fields.
func AuthorDefining(a model.Author) document.Filter {
	return document.Filter{
		"firstName":   a.FirstName,
		"lastName":    a.LastName,
		"dateOfBirth": a.DateOfBirth,
		"dateOfDeath": optional(a.DateOfDeath),
	}
}

// BookDefining matches title, author, summary and isbn exactly and genre as a set.
func BookDefining(b model.Book) document.Filter {
	return document.Filter{
		"title":   b.Title,
		"author":  b.Author,
		"summary": b.Summary,
		"isbn":    b.ISBN,
		"genre":   genreSet(b.Genre),
	}
}

// genreSet matches a genre array holding exactly the given ids in any order.
func genreSet(ids []primitive.ObjectID) bson.M {
	genre := distinctIDs(ids)
	set := bson.M{"$size": len(genre)}
	if len(genre) > 0 {
		// $all with an empty list matches nothing.
		set["$all"] = genre
	}
	return set
}

// BookInstanceDefining is the exact-match filter over a book instance.
func BookInstanceDefining(bi model.BookInstance) document.Filter {
	return document.Filter{
		"book":      bi.Book,
		"publisher": bi.Publisher,
		"status":    string(bi.Status),
		"back":      bi.Back,
	}
}

// GenreDefining matches a genre by name.
func GenreDefining(g model.Genre) document.Filter {
	return document.Filter{"name": g.Name}
}

func authorKey(a model.Author) string {
	death := ""
	if a.DateOfDeath != nil {
		death = a.DateOfDeath.UTC().Format(time.RFC3339Nano)
	}
	return strings.Join([]string{a.FirstName, a.LastName, a.DateOfBirth.UTC().Format(time.RFC3339Nano), death}, "\x00")
}

func bookKey(b model.Book) string {
	genre := hexIDs(distinctIDs(b.Genre))
	sort.Strings(genre)
	return strings.Join([]string{b.Title, b.Author.Hex(), b.Summary, b.ISBN, strings.Join(genre, ",")}, "\x00")
}

func bookInstanceKey(bi model.BookInstance) string {
	return strings.Join([]string{bi.Book.Hex(), bi.Publisher, string(bi.Status), bi.Back.UTC().Format(time.RFC3339Nano)}, "\x00")
}

func genreKey(g model.Genre) string {
	return g.Name
}

func distinctIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// repeatedIDs lists every id that occurs more than once, each once, in first-repeat order.
func repeatedIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]int, len(ids))
	var out []primitive.ObjectID
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			out = append(out, id)
		}
	}
	return out
}
