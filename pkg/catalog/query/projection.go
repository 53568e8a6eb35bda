// Package query turns client list options into store queries: projections, date
// ranges, sort keys and the per-entity filters.
package query

import (
	"fmt"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
)

// BuildProjection maps the entity's registered fields to 1 (listed in only), 0 (listed
// in omit) or leaves them out. A non-nil only hides _id unless it lists it, and hides
// every gated field it does not list. only wins over omit.
func BuildProjection(only, omit []string, fields []string, gated ...string) document.Projection {
	onlySet := model.NewFields(only)
	omitSet := model.NewFields(omit)
	gatedSet := model.NewFields(gated)

	projection := document.Projection{}
	for _, field := range fields {
		switch {
		case onlySet.Has(field):
			projection[field] = 1
		case omitSet.Has(field):
			projection[field] = 0
		case only != nil && (field == model.FieldID || gatedSet.Has(field)):
			projection[field] = 0
		}
	}
	if len(projection) == 0 {
		return nil
	}
	return projection
}

// checkFields rejects names outside the entity registry.
func checkFields(option string, names []string, entity model.Entity) []apperror.FieldError {
	var out []apperror.FieldError
	for _, name := range names {
		if !entity.Has(name) {
			out = append(out, apperror.FieldError{
				Field:   option,
				Rule:    "oneof",
				Message: fmt.Sprintf("%s is not a %s field", name, entity.Name),
			})
		}
	}
	return out
}
