package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/farellandr/runnershive/internal/models"
)

// FieldErrors maps a form field name to the first validation message
// reported for it.
type FieldErrors map[string]string

func (e FieldErrors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

func (e FieldErrors) Get(field string) string {
	return e[field]
}

func (e FieldErrors) Has(field string) bool {
	_, exists := e[field]
	return exists
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return models.Difficulty(fl.Field().String()).Valid()
	})
	return v
}

// collect runs the struct validation and records one message per field.
func collect(input any, errs FieldErrors) {
	err := validate.Struct(input)
	if err == nil {
		return
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs.Add("", err.Error())
		return
	}

	for _, fieldErr := range validationErrs {
		errs.Add(fieldName(fieldErr), message(fieldErr))
	}
}

// fieldName strips the slice index validator appends for dive rules.
func fieldName(fieldErr validator.FieldError) string {
	name := fieldErr.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

func message(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fieldErr.Param())
	case "min":
		if fieldErr.Kind() == reflect.Slice {
			return "This field is required."
		}
		return fmt.Sprintf("Ensure this value has at least %s characters.", fieldErr.Param())
	case "oneof", "difficulty":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fieldErr.Value())
	case "eqfield":
		return "The two password fields didn't match."
	}
	return "Enter a valid value."
}
