package query

import (
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
)

// BookFilter is the Book list request.
type BookFilter struct {
	Options
	Title   *string `json:"title,omitempty"`
	Summary *string `json:"summary,omitempty"`
	ISBN    *string `json:"isbn,omitempty"`
	Author  *string `json:"author,omitempty" validate:"omitempty,mongodb"`
	Genre   *IDList `json:"genre,omitempty"`
}

// BookDefaultSort orders books by title.
var BookDefaultSort = document.Sort{{Field: "title", Order: document.SortAsc}}

// BookGatedFields are hidden by an only list that does not name them.
var BookGatedFields = []string{"author", "genre"}

// Compose builds the Book list query. An array genre filter matches books holding
// every listed genre.
func (f BookFilter) Compose(_ time.Time) (document.QueryOptions, error) {
	filter := document.Filter{}
	setPrefix(filter, "title", f.Title)
	setPrefix(filter, "summary", f.Summary)
	setPrefix(filter, "isbn", f.ISBN)

	if f.Author != nil {
		id, err := ParseID("author", *f.Author)
		if err != nil {
			return document.QueryOptions{}, err
		}
		filter["author"] = id
	}
	if f.Genre != nil {
		ids, err := ParseIDs("genre", f.Genre.IDs)
		if err != nil {
			return document.QueryOptions{}, err
		}
		switch {
		case f.Genre.Multi:
			if len(ids) > 0 {
				filter["genre"] = bson.M{"$all": ids}
			}
		case len(ids) == 1:
			filter["genre"] = ids[0]
		}
	}

	return f.Options.compose(model.BookEntity, filter, BookDefaultSort, BookGatedFields...)
}
