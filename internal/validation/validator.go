// Package validation turns raw admin form and contact input into domain
// values. Every function here is pure: no I/O, no clock, no randomness.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/go-playground/validator/v10"
)

// emailPattern accepts something@something.something
// with no whitespace and exactly one @ separating local part and domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s passes the storefront's email check.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report failures under the form field name rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validation: register loose_email: %v", err))
	}

	if err := v.RegisterValidation("site_path", func(fl validator.FieldLevel) bool {
		return SitePath(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validation: register site_path: %v", err))
	}

	return v
}

// SitePath reports whether s is a path on this site. Browsers read "//host"
// and "/\\host" as another origin.
func SitePath(s string) bool {
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && !strings.HasPrefix(s, `/\`)
}

// check runs struct validation and folds every failure into ve using the
// human labels in labels.
func check(ve *domain.ValidationError, s any, labels map[string]string) {
	err := validate.Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add("_form", "Invalid input")
		return
	}

	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fieldMessage(fe, labels[fe.Field()]))
	}
}

func fieldMessage(fe validator.FieldError, label string) string {
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "loose_email":
		return "Please provide a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid"
	}
}
