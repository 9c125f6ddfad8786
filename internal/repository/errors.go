// Package repository defines the data access layer and the error types that
// are reused across repositories.  These sentinel values allow higher layers
// such as the check-in service and the handlers to distinguish between
// different failure scenarios.  For example, ErrParticipantNotFound means a
// reference no longer resolves to a roster entry, while ErrStoreUnavailable
// signals a transient infrastructure failure that is safe to retry.
package repository

import (
    "errors"
    "fmt"
)

// ErrParticipantNotFound is returned when a participant reference does not
// resolve to a row in the roster.  Handlers translate it into HTTP 404.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrEventNotFound is returned when an event reference does not resolve.
var ErrEventNotFound = errors.New("event not found")

// ErrOperatorNotFound is returned when no operator matches a lookup.
var ErrOperatorNotFound = errors.New("operator not found")

// ErrEmailExists is returned when an operator with the same email exists.
var ErrEmailExists = errors.New("email already exists")

// ErrStoreUnavailable wraps every unexpected database failure: connection
// loss, timeouts, deadlocks.  Conditional transitions are idempotent, so the
// caller may retry.  Handlers translate it into HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")

// unavailable wraps err so that errors.Is(err, ErrStoreUnavailable) holds
// while keeping the driver error for logs.
func unavailable(op string, err error) error {
    return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
