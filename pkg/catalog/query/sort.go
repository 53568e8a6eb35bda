package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/catalog/model"
	"github.com/michalszc/library-api/pkg/repository/document"
)

// SortSpec is a client sort object. Key order in the JSON object is the sort priority.
type SortSpec document.Sort

// UnmarshalJSON reads {"field": direction, ...} keeping key order. Directions are
// 1, -1, "asc", "ascending", "desc" or "descending".
func (s *SortSpec) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sort must be an object")
	}

	out := SortSpec{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		field, _ := keyTok.(string)

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		order, err := parseDirection(raw)
		if err != nil {
			return fmt.Errorf("sort %s: %w", field, err)
		}
		out = append(out, document.SortField{Field: field, Order: order})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

func parseDirection(raw interface{}) (document.SortOrder, error) {
	switch v := raw.(type) {
	case json.Number:
		switch v.String() {
		case "1":
			return document.SortAsc, nil
		case "-1":
			return document.SortDesc, nil
		}
	case string:
		switch strings.ToLower(v) {
		case "asc", "ascending":
			return document.SortAsc, nil
		case "desc", "descending":
			return document.SortDesc, nil
		}
	}
	return "", fmt.Errorf("invalid direction %v", raw)
}

// resolve checks the keys against the entity and falls back to def when empty.
func (s SortSpec) resolve(entity model.Entity, def document.Sort) (document.Sort, []apperror.FieldError) {
	if len(s) == 0 {
		return def, nil
	}
	var errs []apperror.FieldError
	seen := map[string]bool{}
	for _, f := range s {
		if !entity.Has(f.Field) {
			errs = append(errs, apperror.FieldError{
				Field:   "sort",
				Rule:    "oneof",
				Message: fmt.Sprintf("cannot sort by %q: not a %s field", f.Field, entity.Name),
			})
			continue
		}
		if seen[f.Field] {
			errs = append(errs, apperror.FieldError{
				Field:   "sort",
				Rule:    "unique",
				Message: fmt.Sprintf("sort key %q listed twice", f.Field),
			})
		}
		seen[f.Field] = true
	}
	return document.Sort(s), errs
}
