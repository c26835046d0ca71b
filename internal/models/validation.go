package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports which product fields failed validation, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return "id"
		}
		return name
	})
	return v
}

// fieldMessages holds the user-facing message for each field.
var fieldMessages = map[string]string{
	"title":       "Title is required",
	"price":       "Price must be a number",
	"description": "Description is required",
	"categoryId":  "Category ID must be a number",
	"images":      "Images are required",
	"id":          "Product ID is required",
}

// ValidateInput checks a create payload before it is sent to the products API.
func ValidateInput(in ProductInput) error {
	return toValidationError(validate.Struct(in))
}

// ValidatePatch checks the fields present in a partial update.
func ValidatePatch(p ProductPatch) error {
	return toValidationError(validate.Struct(p))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace is e.g. "ProductInput.images[0]" for per-element failures.
		name := fe.Field()
		if i := strings.IndexByte(name, '['); i >= 0 {
			fields[name[:i]] = "Must be a valid URL"
			continue
		}
		if _, seen := fields[name]; seen {
			continue
		}
		msg, ok := fieldMessages[name]
		if !ok {
			msg = fmt.Sprintf("failed on the '%s' tag", fe.Tag())
		}
		fields[name] = msg
	}
	return &ValidationError{Fields: fields}
}
