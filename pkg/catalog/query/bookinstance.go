package query

import (
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
)

// BookInstanceFilter is the BookInstance list request.
type BookInstanceFilter struct {
	Options
	Publisher *string     `json:"publisher,omitempty"`
	Status    *string     `json:"status,omitempty"`
	Book      *string     `json:"book,omitempty" validate:"omitempty,mongodb"`
	Back      *model.Date `json:"back,omitempty"`
}

// BookInstanceDefaultSort orders instances by status.
var BookInstanceDefaultSort = document.Sort{{Field: "status", Order: document.SortAsc}}

// Compose builds the BookInstance list query. back is matched exactly.
func (f BookInstanceFilter) Compose(_ time.Time) (document.QueryOptions, error) {
	filter := document.Filter{}
	setPrefix(filter, "publisher", f.Publisher)
	setPrefix(filter, "status", f.Status)

	if f.Book != nil {
		id, err := ParseID("book", *f.Book)
		if err != nil {
			return document.QueryOptions{}, err
		}
		filter["book"] = id
	}
	if f.Back != nil {
		filter["back"] = f.Back.Time
	}

	return f.Options.compose(model.BookInstanceEntity, filter, BookInstanceDefaultSort)
}
