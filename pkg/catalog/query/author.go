package query

import (
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
)

// AuthorFilter is the Author list request.
type AuthorFilter struct {
	Options
	FirstName   *string    `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName    *string    `json:"lastName,omitempty" validate:"omitempty,max=100"`
	DateOfBirth *DateRange `json:"dateOfBirth,omitempty"`
	DateOfDeath *DateRange `json:"dateOfDeath,omitempty"`
}

// AuthorDefaultSort orders authors by first name.
var AuthorDefaultSort = document.Sort{{Field: "firstName", Order: document.SortAsc}}

// Compose builds the Author list query. Without a dateOfDeath filter, authors with
// no death date are always included alongside those who died up to now.
func (f AuthorFilter) Compose(now time.Time) (document.QueryOptions, error) {
	filter := document.Filter{}
	setPrefix(filter, "firstName", f.FirstName)
	setPrefix(filter, "lastName", f.LastName)
	filter["dateOfBirth"] = f.DateOfBirth.Condition(now)

	if f.DateOfDeath != nil {
		filter["dateOfDeath"] = f.DateOfDeath.Condition(now)
	} else {
		filter["$or"] = []document.Filter{
			{"dateOfDeath": DefaultRange(now)},
			{"dateOfDeath": bson.M{"$exists": false}},
		}
	}

	return f.Options.compose(model.AuthorEntity, filter, AuthorDefaultSort)
}
