package service

import (
	"errors"
	"fmt"

	"bibliophage/internal/domain"
)

// ErrJobNotRunning is returned when cancelling a job this process does not run.
var ErrJobNotRunning = fmt.Errorf("%w: job is not running in this process", domain.ErrInvalidArgument)

// RecordError names the record an operation failed on.
type RecordError struct {
	Kind string
	ID   string
	Err  error
}

func (e *RecordError) Error() string {
	if errors.Is(e.Err, domain.ErrNotFound) {
		return fmt.Sprintf("%s with ID %s not found", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// recordError wraps err with the record it concerns. It returns nil for nil.
func recordError(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	return &RecordError{Kind: kind, ID: id, Err: err}
}

func notFound(kind, id string) error {
	return recordError(kind, id, domain.ErrNotFound)
}
