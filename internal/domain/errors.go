package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for a chunking configuration that cannot produce segments.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidArgument is returned when request input fails validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when an operation targets a missing record.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingUnavailable is returned when the embedding provider could not serve a request.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrStoreUnavailable is returned when a backing store is unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInconsistent is returned when derived state disagrees with the vector index.
	ErrInconsistent = errors.New("inconsistent state")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Error codes reported to clients.
const (
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeNotFound             = "NOT_FOUND"
	CodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	CodeStoreUnavailable     = "STORE_UNAVAILABLE"
	CodeInconsistent         = "INCONSISTENT"
	CodeInternal             = "INTERNAL"
)

// Classify maps an error onto its taxonomy code.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidConfiguration):
		return CodeInvalidConfiguration
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrEmbeddingUnavailable):
		return CodeEmbeddingUnavailable
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	case errors.Is(err, ErrInconsistent):
		return CodeInconsistent
	default:
		return CodeInternal
	}
}
