package atlas

import (
	"errors"
	"fmt"
)

// ConfigError reports an atlas configuration problem detected when the
// configuration is loaded or first used. The zero values an operation
// cannot proceed without (name, data_root, a declared asset) surface here
// rather than as path or file errors downstream.
type ConfigError struct {
	// Field names the offending configuration field or parameter.
	Field string

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("atlas config: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for a field.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// IsConfigError returns true if the error is a ConfigError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
