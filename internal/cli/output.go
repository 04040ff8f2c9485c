package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fireatlas/dataswale/internal/asset"
	"github.com/fireatlas/dataswale/internal/atlas"
)

// Exit codes for CLI commands.
const (
	ExitSuccess    = 0 // Successful execution
	ExitFailure    = 1 // Operation failure (drain error, merge failure, bad delta)
	ExitUsageError = 2 // Command error (missing config, invalid flags, unknown names)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors without a code
// report ExitFailure; nil reports success.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// operationError classifies a materialization failure: configuration
// problems are usage errors, everything else is an operation failure.
func operationError(message string, err error) error {
	code := ExitFailure
	if atlas.IsConfigError(err) || asset.IsUnknownMaterializer(err) || asset.IsMissingTemplate(err) {
		code = ExitUsageError
	}
	return WrapExitError(code, message, err)
}

// Response is the JSON envelope every command emits with --format json.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Formatter renders command results as human text or a JSON envelope.
type Formatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, w io.Writer) *Formatter {
	return &Formatter{Format: opts.Format, Writer: w}
}

// Success emits a result: the text line for humans, the data payload for
// JSON consumers.
func (f *Formatter) Success(text string, data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}
