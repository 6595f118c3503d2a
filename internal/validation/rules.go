// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/helperhq/helper/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// slugRegex matches lowercase words separated by single hyphens
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// WrapValidationError converts a validation error into a single client-facing
// validation failure. Field errors are aggregated into one message, one
// "field reason" line per field in field order, separated by blank lines, so
// the caller reports every problem in a single response.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errorsAs(err, &fieldErrs) {
		return apperrors.Validation(err.Error())
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, fmt.Sprintf("%s %s", field, fieldErrs[field].Error()))
	}

	return apperrors.Validation(strings.Join(lines, "\n\n"))
}

// errorsAs reports whether err is a validation.Errors map, directly or by
// type assertion. validation.Errors does not implement Unwrap, so a plain
// assertion is enough.
func errorsAs(err error, target *validation.Errors) bool {
	if errs, ok := err.(validation.Errors); ok {
		*target = errs
		return true
	}
	return false
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// Slug validates that a string is a URL-safe slug
var Slug = validation.NewStringRuleWithError(
	func(s string) bool {
		return slugRegex.MatchString(s)
	},
	validation.NewError(
		"validation_slug_format",
		"must contain only lowercase letters, numbers and hyphens",
	),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
