// Package validator wraps the go-playground/validator library to provide
// declarative struct validation with standardized error formatting.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the sentinel placed at the root of the error chain
// whenever one or more struct fields fail validation. Callers can detect
// validation failures with errors.Is even when multiple field errors follow.
var ErrValidationFailed = errors.New("struct validation failed")

// errStringFormat describes an individual field failure.
//
// Example: "'Address': value '0x' does not meet the requirements for the 'required' validation"
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

// validator is the singleton instance, created on package load.
var validator *gvalidator.Validate

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError converts raw validator errors into a combined error chain rooted
// at ErrValidationFailed. Non-validation errors pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the given struct against its `validate` tags. It returns nil
// when every field passes, or a combined error including ErrValidationFailed
// and one formatted message per failing field.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
