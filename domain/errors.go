package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the repository layer. Callers match them
// with errors.Is to decide whether to retry, reload or give up.
var (
	// ErrNotFound is returned when a command or load targets a stream
	// that has no events.
	ErrNotFound = errors.New("aggregate not found")

	// ErrAlreadyExists is returned by create when the stream already
	// has events.
	ErrAlreadyExists = errors.New("aggregate already exists")

	// ErrConcurrencyConflict is returned when an append collides with a
	// concurrent writer on the same stream. The caller's in-memory
	// aggregate is stale; reload and retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrUnknownEventType is returned by reducers for event types they
	// do not recognise. Replay skips such events with a warning instead
	// of failing, so old streams survive schema evolution.
	ErrUnknownEventType = errors.New("unknown event type")
)

// ValidationError is returned by aggregate commands when the requested
// transition is not allowed in the current state. It is produced before
// any event is constructed, so a rejected command has no side effects.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a command validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
