// Package validator wraps go-playground/validator for the inbound
// request DTOs.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct's `validate` tags and returns one
// caller-facing error naming the first offending field.
func Validate(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		first := fieldErrors[0]
		return fmt.Errorf("field %s failed %s validation", strings.ToLower(first.Field()), first.Tag())
	}
	return err
}
