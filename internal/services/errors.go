package services

import (
	"errors"
	"fmt"

	"DF-FORMS/internal/models"
	"DF-FORMS/internal/store"
)

var (
	// ErrNotFound is returned for unknown template, document or folio ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed templates, unknown section
	// keys, and missing reviewer ids or rejection notes.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned when an operation would move a
	// document backward through its lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidationFailed is returned when strict submission is blocked.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationFailedError carries the itemized result that blocked submission.
type ValidationFailedError struct {
	Result *models.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %d errors in %d sections", e.Result.ErrorCount(), e.Result.SectionsWithErrors)
}

func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}

// notFound translates store misses into ErrNotFound and wraps anything else.
func notFound(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
}

func isStoreMiss(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
