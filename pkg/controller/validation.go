package controller

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/michalszc/library-api/pkg/apperror"
	"github.com/michalszc/library-api/pkg/server/router"
)

// Validator is an interface that DTOs can implement to provide custom validation logic
// beyond struct tags. Validate is called after the tags pass.
type Validator interface {
	Validate() error
}

var (
	validateOnce sync.Once
	validate     *validator.Validate

	isbnPattern    = regexp.MustCompile(`^(?:\d{9}[\dX]|97[89]\d{10})$`)
	isbnSeparators = strings.NewReplacer("-", "", " ", "")
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("isbn_pattern", func(fl validator.FieldLevel) bool {
			return isbnPattern.MatchString(isbnSeparators.Replace(fl.Field().String()))
		})
		validate = v
	})
	return validate
}

// ValidateDTO checks struct tags on dto, or on every element when dto is a slice,
// then calls Validate on DTOs implementing Validator. Failures are returned as one
// validation error listing every invalid field.
func ValidateDTO(dto interface{}) error {
	if dto == nil {
		return apperror.Validation("request body is required")
	}
	v := reflect.ValueOf(dto)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return apperror.Validation("request body is required")
		}
		v = v.Elem()
	}

	var fields []apperror.FieldError
	switch v.Kind() {
	case reflect.Struct:
		fields = validateStruct(v.Interface(), "")
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			if elem.Kind() == reflect.Struct {
				fields = append(fields, validateStruct(elem.Interface(), fmt.Sprintf("[%d].", i))...)
			}
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("request validation failed", fields...)
	}

	if custom, ok := dto.(Validator); ok {
		if err := custom.Validate(); err != nil {
			if _, classified := apperror.As(err); classified {
				return err
			}
			return apperror.Validation(err.Error()).WithCause(err)
		}
	}
	return nil
}

// BindAndValidate decodes the request body into dto and validates it.
func BindAndValidate(c router.Context, dto interface{}) error {
	if err := c.Bind(dto); err != nil {
		return BindError(err)
	}
	return ValidateDTO(dto)
}

// BindError classifies a Context.Bind failure as a validation error.
func BindError(err error) error {
	if errors.Is(err, router.ErrEmptyBody) {
		return apperror.Validation("request body is required")
	}
	return apperror.Validation(fmt.Sprintf("invalid request body: %v", err)).WithCause(err)
}

func validateStruct(s interface{}, prefix string) []apperror.FieldError {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperror.FieldError{{Field: strings.TrimSuffix(prefix, "."), Rule: "struct", Message: err.Error()}}
	}
	out := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := prefix + fieldPath(fe.Namespace())
		out = append(out, apperror.FieldError{
			Field:   path,
			Rule:    fe.Tag(),
			Message: fieldMessage(path, fe),
		})
	}
	return out
}

// fieldPath drops the root type name, and the names of embedded structs, from a
// validator namespace. JSON names start lower-case; Go type names do not.
func fieldPath(namespace string) string {
	segments := strings.Split(namespace, ".")
	kept := make([]string, 0, len(segments))
	for i, seg := range segments {
		if i == 0 || (seg != "" && unicode.IsUpper(rune(seg[0])) && i < len(segments)-1) {
			continue
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, ".")
}

func fieldMessage(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "required_without":
		return fmt.Sprintf("%s or %s is required", path, jsonName(fe.Param()))
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", path, jsonName(fe.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s long", path, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", path, fe.Param())
	case "mongodb":
		return fmt.Sprintf("%s must be a 24 character hex id", path)
	case "isbn_pattern":
		return fmt.Sprintf("%s must be an ISBN-10 or ISBN-13", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", path, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed the %s rule", path, fe.Tag())
	}
}

// jsonName turns a Go field name used as a tag parameter into its JSON spelling,
// e.g. AuthorID becomes authorId.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	if strings.HasSuffix(field, "ID") {
		field = strings.TrimSuffix(field, "ID") + "Id"
	}
	return strings.ToLower(field[:1]) + field[1:]
}
