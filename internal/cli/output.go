package cli

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// jsonAPI leaves "<", ">" and "&" unescaped so displayed values such as
// "Map(1) {1 => 2}" print verbatim.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Process exit statuses. A scenario that runs to completion but fails a
// step, an assertion or its golden file exits with ExitFailure; a document
// or journal that cannot be read at all exits with ExitCommandError.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the status covert exits with alongside the message.
type ExitError struct {
	Code    int
	Message string
	Err     error // cause, may be nil
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError that wraps err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to a process status. Errors that carry
// no status count as scenario failures.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Reporter writes command results as an envelope (--format json) or as
// plain lines. Diagnostics never go to Writer in json mode when ErrWriter
// is set, so stdout stays a single document.
type Reporter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the envelope every --format json command prints.
type CLIResponse struct {
	Status    string    `json:"status"` // ok | error
	Data      any       `json:"data,omitempty"`
	Error     *CLIError `json:"error,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// CLIError names what went wrong in a failed envelope: a load error
// (E_LOAD, E_DECODE), a failed scenario or test, with optional detail.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (r *Reporter) json() bool {
	return r.Format == "json"
}

// Success reports data: an ok envelope, or data's default text form.
func (r *Reporter) Success(data any) error {
	if r.json() {
		return writeJSON(r.Writer, CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(r.Writer, data)
	return err
}

// Error reports a failure under code. In text mode details are printed
// only with --verbose.
func (r *Reporter) Error(code, message string, details any) error {
	if r.json() {
		return writeJSON(r.Writer, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(r.Writer, "Error [%s]: %s\n", code, message)
	if r.Verbose && details != nil {
		fmt.Fprintf(r.Writer, "Details: %v\n", details)
	}
	return nil
}

// Debugf prints a diagnostic line when --verbose is set.
func (r *Reporter) Debugf(format string, args ...any) {
	if r.Verbose {
		fmt.Fprintf(r.DiagWriter(), format+"\n", args...)
	}
}

// DiagWriter is where diagnostics and debug logs go: ErrWriter, or Writer
// when none was given.
func (r *Reporter) DiagWriter() io.Writer {
	if r.ErrWriter == nil {
		return r.Writer
	}
	return r.ErrWriter
}

// writeJSON prints v as two-space indented JSON and a trailing newline.
func writeJSON(w io.Writer, v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
