package query

import (
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
)

// GenreFilter is the Genre list request. Or is set internally, never decoded from
// clients: each entry is an alternative condition and a genre matching any of them
// is returned.
type GenreFilter struct {
	Options
	Name *string           `json:"name,omitempty"`
	Or   []document.Filter `json:"-"`
}

// GenreDefaultSort orders genres by name.
var GenreDefaultSort = document.Sort{{Field: "name", Order: document.SortAsc}}

// Compose builds the Genre list query.
func (f GenreFilter) Compose(_ time.Time) (document.QueryOptions, error) {
	filter := document.Filter{}
	setPrefix(filter, "name", f.Name)
	if len(f.Or) > 0 {
		filter["$or"] = f.Or
	}
	return f.Options.compose(model.GenreEntity, filter, GenreDefaultSort)
}
