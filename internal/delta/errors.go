package delta

import (
	"errors"
	"fmt"
)

// InvalidDeltaError reports a delta batch that cannot be produced or
// consumed: unreadable files, documents that are not feature collections,
// and features that fail transformation.
type InvalidDeltaError struct {
	// Path is the offending batch file, empty when the batch never
	// reached disk.
	Path string

	// Reason is a human-readable description.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *InvalidDeltaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid delta %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid delta: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *InvalidDeltaError) Unwrap() error {
	return e.Err
}

// IsInvalidDelta returns true if the error is an InvalidDeltaError.
// Uses errors.As to handle wrapped errors.
func IsInvalidDelta(err error) bool {
	var ie *InvalidDeltaError
	return errors.As(err, &ie)
}
