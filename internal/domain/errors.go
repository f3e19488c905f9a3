package domain

import (
	"errors"
)

// Sentinel errors - use with errors.Is()
var (
	// ErrNotFound indicates a file, page, or revision does not exist.
	// A file with zero revisions does not exist: every extant file has
	// at least one revision.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input, reported before any write.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates the operation lost to a conflicting state.
	ErrConflict = errors.New("conflict")

	// ErrCannotHideLatestRevision is returned when redaction targets a
	// file's current latest revision. The latest revision exposes the
	// live name and contents; revert first, then hide.
	ErrCannotHideLatestRevision = errors.New("cannot hide the latest revision")
)

// Domain error types carrying context beyond the sentinels
type (
	// NotFoundError indicates a specific resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// ConflictError indicates a conflicting concurrent write or state
	ConflictError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *ConflictError) Error() string   { return e.Message }

// Is bridges the typed errors to their sentinels so callers can use
// errors.Is without caring which form a layer produced.
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ConflictError) Is(target error) bool   { return target == ErrConflict }
