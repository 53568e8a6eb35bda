package query

import (
	"fmt"
	"regexp"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Options are the list options shared by every entity.
type Options struct {
	Only  []string `json:"only,omitempty"`
	Omit  []string `json:"omit,omitempty"`
	Sort  SortSpec `json:"sort,omitempty"`
	Skip  int64    `json:"skip,omitempty"`
	Limit int64    `json:"limit,omitempty"`
}

func (o Options) compose(entity model.Entity, filter document.Filter, def document.Sort, gated ...string) (document.QueryOptions, error) {
	var fieldErrs []apperror.FieldError
	fieldErrs = append(fieldErrs, checkFields("only", o.Only, entity)...)
	fieldErrs = append(fieldErrs, checkFields("omit", o.Omit, entity)...)

	sort, sortErrs := o.Sort.resolve(entity, def)
	fieldErrs = append(fieldErrs, sortErrs...)

	if o.Skip < 0 {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "skip", Rule: "gte", Message: "skip must not be negative"})
	}
	if o.Limit < 0 {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "limit", Rule: "gte", Message: "limit must not be negative"})
	}
	if len(fieldErrs) > 0 {
		return document.QueryOptions{}, apperror.Validation(fmt.Sprintf("invalid %s list options", entity.Name), fieldErrs...)
	}

	return document.QueryOptions{
		Filter:     filter,
		Projection: BuildProjection(o.Only, o.Omit, entity.Fields, gated...),
		Sort:       sort,
		Skip:       o.Skip,
		Limit:      o.Limit,
	}, nil
}

// Prefix matches strings starting with s, taken literally.
func Prefix(s string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(s)}
}

func setPrefix(filter document.Filter, field string, value *string) {
	if value != nil {
		filter[field] = Prefix(*value)
	}
}

// ParseID converts a hex id, reporting failures as a validation error on field.
func ParseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation(
			fmt.Sprintf("%s must be a valid id", field),
			apperror.FieldError{Field: field, Rule: "mongodb", Message: fmt.Sprintf("%q is not a 24 character hex id", hex)},
		)
	}
	return id, nil
}

// ParseIDs converts hex ids in order.
func ParseIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, hex := range hexes {
		id, err := ParseID(field, hex)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
