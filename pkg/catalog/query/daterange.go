package query

import (
	"time"

	"github.com/michalszc/library-api/pkg/catalog/model"
	"go.mongodb.org/mongo-driver/bson"
)

// DateRange is a client date comparison. E matches the whole day starting at E.
type DateRange struct {
	E   *model.Date `json:"e,omitempty"`
	Gt  *model.Date `json:"gt,omitempty"`
	Gte *model.Date `json:"gte,omitempty"`
	Lt  *model.Date `json:"lt,omitempty"`
	Lte *model.Date `json:"lte,omitempty"`
}

// DefaultRange matches everything up to now.
func DefaultRange(now time.Time) bson.M {
	return bson.M{"$lte": now}
}

// Condition renders the range as store operators. A nil range yields DefaultRange.
// E expands to the half-open day [E, E+24h) and replaces any gte or lt. An empty
// range only requires the field to be present.
func (r *DateRange) Condition(now time.Time) bson.M {
	if r == nil {
		return DefaultRange(now)
	}

	cond := bson.M{}
	if r.Gt != nil {
		cond["$gt"] = r.Gt.Time
	}
	if r.Gte != nil {
		cond["$gte"] = r.Gte.Time
	}
	if r.Lt != nil {
		cond["$lt"] = r.Lt.Time
	}
	if r.Lte != nil {
		cond["$lte"] = r.Lte.Time
	}
	if r.E != nil {
		cond["$gte"] = r.E.Time
		cond["$lt"] = r.E.Time.Add(24 * time.Hour)
	}
	if len(cond) == 0 {
		cond["$exists"] = true
	}
	return cond
}
