package repository

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their bson name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("bson"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldErrors runs struct validation and converts failures into
// FieldErrors keyed by field name. A nil map means the value is valid.
func fieldErrors(v *validator.Validate, value any) (map[string]FieldError, error) {
	err := v.Struct(value)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}
	out := make(map[string]FieldError, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		out[name] = FieldError{
			Message: describe(fe),
			Kind:    fe.Tag(),
			Path:    name,
			Value:   fe.Value(),
		}
	}
	return out, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Path `%s` is required.", fe.Field())
	case "min":
		return fmt.Sprintf("Path `%s` must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Path `%s` must be at most %s characters.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Path `%s` failed the %q check.", fe.Field(), fe.Tag())
	}
}

func uniqueError(field string, value any) FieldError {
	return FieldError{
		Message: fmt.Sprintf("Error, expected `%s` to be unique. Value: `%v`", field, value),
		Kind:    "unique",
		Path:    field,
		Value:   value,
	}
}

func validationMessage(resource string, details map[string]FieldError) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+details[k].Message)
	}
	return fmt.Sprintf("%s validation failed: %s", resource, strings.Join(parts, ", "))
}
