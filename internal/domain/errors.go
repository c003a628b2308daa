package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidSource     = errors.New("invalid source")
	ErrInvalidRelevance  = errors.New("invalid relevance")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidID         = errors.New("invalid article id")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotFound          = errors.New("article not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRunInProgress     = errors.New("ingestion run already in progress")
	ErrUnknownSource     = errors.New("source is not configured")
)

// ValidationError marks bad input on a write or query endpoint.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SourceFetchError wraps a failure to retrieve or parse a source listing.
type SourceFetchError struct {
	Source Source
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ClassificationError wraps a classifier failure; callers degrade to DefaultClassification.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}
