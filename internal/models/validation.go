package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidationError lists the fields that failed validation
type ValidationError struct {
	Fields []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f+" is required")
	}
	return strings.Join(parts, ", ")
}

// Validate checks the required fields of the session and its games
func (s *Session) Validate() error {
	if s == nil {
		return &ValidationError{Fields: []string{"session"}}
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate session: %w", err)
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		// Namespace is "Session.games[0].winner"; drop the struct name
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		verr.Fields = append(verr.Fields, path)
	}

	return verr
}
