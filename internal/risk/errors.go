package risk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks input that is missing a field or outside its domain.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a request for data that does not exist.
	ErrNotFound = errors.New("not found")
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every offending field of a record.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NotFoundError reports that what was looked up has no data.
func NotFoundError(what string) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(what), ErrNotFound)
}
