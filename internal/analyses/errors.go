package analyses

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrArtifactNotFound is returned by Create when the referenced artifact is unknown.
	ErrArtifactNotFound = fmt.Errorf("artifact %w", ErrNotFound)
	ErrValidation       = errors.New("validation failed")
	// ErrDispatch marks a failure to hand a request to the worker. It is
	// absorbed by sealing the request FAILED and never reaches the creator.
	ErrDispatch = errors.New("dispatch failed")
)

// ValidationError carries the field and the reason a payload was rejected.
type ValidationError struct {
	Field string
	Issue string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Issue)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, issue string) error {
	return &ValidationError{Field: field, Issue: issue}
}
