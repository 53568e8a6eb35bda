package controller

import (
	"errors"
	"testing"

	"github.com/michalszc/library-api/pkg/apperror"
)

type bookDTO struct {
	Title    string   `json:"title" validate:"required,max=20"`
	AuthorID *string  `json:"authorId,omitempty" validate:"required_without=Author,excluded_with=Author,omitempty,mongodb"`
	Author   *nameDTO `json:"author,omitempty"`
	ISBN     string   `json:"isbn" validate:"required,isbn_pattern"`
	Status   string   `json:"status,omitempty" validate:"omitempty,oneof=Available Loaned"`
}

type nameDTO struct {
	Name string `json:"name" validate:"required,min=3"`
}

// NamePart is embedded the way batch update items embed their patch.
type NamePart struct {
	Name string `json:"name" validate:"required,min=3"`
}

type itemDTO struct {
	ID string `json:"id" validate:"required,mongodb"`
	NamePart
}

type customDTO struct {
	Low, High int
}

func (d customDTO) Validate() error {
	if d.Low > d.High {
		return errors.New("low must not exceed high")
	}
	return nil
}

func strPtr(s string) *string { return &s }

func fieldErrors(t *testing.T, err error) []apperror.FieldError {
	t.Helper()
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected *apperror.Error, got %T: %v", err, err)
	}
	if appErr.Code != apperror.CodeValidation {
		t.Fatalf("code = %s, want %s", appErr.Code, apperror.CodeValidation)
	}
	return appErr.Fields
}

func TestValidateDTO(t *testing.T) {
	validID := "65f1a2b3c4d5e6f708192a3b"
	tests := []struct {
		name       string
		dto        interface{}
		wantFields []string
	}{
		{
			name: "valid with author id",
			dto:  &bookDTO{Title: "Dune", AuthorID: strPtr(validID), ISBN: "978-0-441-17271-9"},
		},
		{
			name: "valid with author descriptor",
			dto:  &bookDTO{Title: "Dune", Author: &nameDTO{Name: "Frank"}, ISBN: "044117271X"},
		},
		{
			name:       "missing title and author",
			dto:        &bookDTO{ISBN: "9780441172719"},
			wantFields: []string{"title", "authorId"},
		},
		{
			name:       "both author forms",
			dto:        &bookDTO{Title: "Dune", AuthorID: strPtr(validID), Author: &nameDTO{Name: "Frank"}, ISBN: "9780441172719"},
			wantFields: []string{"authorId"},
		},
		{
			name:       "bad id isbn and status",
			dto:        &bookDTO{Title: "Dune", AuthorID: strPtr("xyz"), ISBN: "12345", Status: "Lost"},
			wantFields: []string{"authorId", "isbn", "status"},
		},
		{
			name:       "nested descriptor",
			dto:        &bookDTO{Title: "Dune", Author: &nameDTO{Name: "Fr"}, ISBN: "9780441172719"},
			wantFields: []string{"author.name"},
		},
		{
			name:       "slice elements are indexed",
			dto:        []nameDTO{{Name: "Fantasy"}, {Name: ""}},
			wantFields: []string{"[1].name"},
		},
		{
			name:       "embedded struct fields are flattened",
			dto:        &itemDTO{ID: validID},
			wantFields: []string{"name"},
		},
		{
			name:       "custom validator",
			dto:        customDTO{Low: 2, High: 1},
			wantFields: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDTO(tt.dto)
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("ValidateDTO() error = %v", err)
				}
				return
			}
			fields := fieldErrors(t, err)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("fields = %+v, want %v", fields, tt.wantFields)
			}
			for i, want := range tt.wantFields {
				if fields[i].Field != want {
					t.Errorf("field[%d] = %q, want %q", i, fields[i].Field, want)
				}
				if fields[i].Message == "" {
					t.Errorf("field[%d] has no message", i)
				}
			}
		})
	}
}

func TestValidateDTO_Nil(t *testing.T) {
	var dto *bookDTO
	for _, in := range []interface{}{nil, dto} {
		if err := ValidateDTO(in); !apperror.HasCode(err, apperror.CodeValidation) {
			t.Fatalf("ValidateDTO(%v) = %v, want validation error", in, err)
		}
	}
}
