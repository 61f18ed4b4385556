/*
errors.go - Centralized error taxonomy for the flow engine

PURPOSE:
  All error categories in one place so the HTTP layer can map them to status
  codes with errors.Is instead of matching message text.

ERROR CATEGORIES:
  1. Validation  - missing/malformed required input
  2. Not found   - referenced flow/group/book absent in the given ledger
  3. Conflict    - merge target already belongs to a group
  4. Unsupported - unknown undo operation tag
  5. Degraded    - group summary store unavailable; callers swallow this for
                   summary reads/writes because flows stay authoritative

USAGE:
  if errors.Is(err, flow.ErrConflict) { ... }

SEE ALSO:
  - grouping.go, undo.go: producers of these errors
  - api/handlers.go: maps categories to HTTP status codes
*/
package flow

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation marks missing or malformed required input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a flow, group or book that does not exist in the
	// given ledger.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a merge whose targets already belong to a group.
	ErrConflict = errors.New("conflict")

	// ErrUnsupported marks an undo request with an unknown operation tag.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrSummaryUnavailable marks a degraded group summary store. It is
	// swallowed at the point of the summary read/write and never aborts the
	// owning flow mutation.
	ErrSummaryUnavailable = errors.New("group summary store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError carries the human-readable reason an input was rejected.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a ValidationError.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// NotFoundError names the missing record.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(msg string) error { return &NotFoundError{Msg: msg} }

// ConflictError explains which grouping rule a merge violated.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }
func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict builds a ConflictError.
func Conflict(msg string) error { return &ConflictError{Msg: msg} }

// UnsupportedOperationError carries the rejected undo tag.
type UnsupportedOperationError struct {
	Tag string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported undo operation %q", e.Tag)
}
func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupported }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnsupported)
}
