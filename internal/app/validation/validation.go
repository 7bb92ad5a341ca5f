// Package validation checks submitted forms and reports problems as a flat
// list of human-readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pawansangari/dataconnect-apps/internal/app/domain/civil"
)

// Errors is a list of validation messages. It is returned before any write.
type Errors []string

func (e Errors) Error() string {
	return "validation failed: " + strings.Join(e, "; ")
}

// AsErrors extracts the message list from err, if it carries one.
func AsErrors(err error) (Errors, bool) {
	var verr Errors
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Validator wraps a configured validator.Validate. It is safe for concurrent
// use.
type Validator struct {
	v *validator.Validate
}

// New registers the custom rules and JSON field naming.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(civil.Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.String()
	}, civil.Date{})
	v.RegisterAlias("npi", "len=10,number")
	v.RegisterAlias("ptan", "min=5,max=50")
	return &Validator{v: v}
}

// Struct validates s and returns nil when it is valid.
func (v *Validator) Struct(s any) Errors {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{err.Error()}
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(fe))
	}
	return out
}

// IsEmail reports whether s is a well-formed email address.
func (v *Validator) IsEmail(s string) bool {
	return v.v.Var(s, "required,email") == nil
}

// IsNPI reports whether s is exactly ten digits.
func (v *Validator) IsNPI(s string) bool {
	return v.v.Var(s, "npi") == nil
}

// IsPTAN reports whether s is 5 to 50 characters long.
func (v *Validator) IsPTAN(s string) bool {
	return v.v.Var(s, "ptan") == nil
}

func message(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "npi":
		return fmt.Sprintf("%s: NPI must be exactly 10 digits", field)
	case "ptan":
		return fmt.Sprintf("%s: PTAN must be between 5 and 50 characters", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
