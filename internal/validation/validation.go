// Package validation declares the request shapes accepted by the API and the
// rules applied to them. Every rule violation is collected and reported per
// field, keyed by the JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskapi/internal/models"
)

// Errors maps a JSON field name to its human readable violations.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether field already has at least one violation.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Validator applies the struct tags declared on the request types.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Both registrations only fail on an empty tag name or a nil func.
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseTaskStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("filled", func(fl validator.FieldLevel) bool {
		return fl.Field().String() != ""
	})

	return &Validator{validate: v}
}

// Collect validates s and returns every violation found. The returned error
// is non-nil only when s cannot be validated at all.
func (v *Validator) Collect(s interface{}) (Errors, error) {
	errs := Errors{}
	// A field that failed to decode reports only its type error.
	var typeErrs Errors
	if d, ok := s.(decodeErrorer); ok {
		typeErrs = d.DecodeErrors()
		for field, msgs := range typeErrs {
			errs[field] = append([]string(nil), msgs...)
		}
	}

	err := v.validate.Struct(s)
	if err == nil {
		return errs, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validate %T: %w", s, err)
	}
	for _, fe := range fieldErrs {
		if typeErrs.Has(fe.Field()) {
			continue
		}
		errs.Add(fe.Field(), message(fe))
	}
	return errs, nil
}

// Validate is Collect folded into a single error: nil, Errors, or a
// programming error.
func (v *Validator) Validate(s interface{}) error {
	errs, err := v.Collect(s)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Attribute turns a field name into the wording used in messages.
func Attribute(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// TakenMessage is reported when a unique value is already in use.
func TakenMessage(field string) string {
	return fmt.Sprintf("The %s has already been taken.", Attribute(field))
}

func message(fe validator.FieldError) string {
	attr := Attribute(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "filled":
		return fmt.Sprintf("The %s field must have a value.", attr)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", attr, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", attr, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", attr)
	case "datetime":
		return fmt.Sprintf("The %s field must match the format Y-m-d.", attr)
	case "task_status":
		return fmt.Sprintf("The selected %s is invalid.", attr)
	default:
		return fmt.Sprintf("The %s field is invalid.", attr)
	}
}
