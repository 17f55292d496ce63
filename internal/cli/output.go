package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/psicash"
	"github.com/dmitrijs2005/psicash/internal/config"
	"golang.org/x/term"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation failed (bad input, no tokens, storage error)
	ExitCommandError = 2 // Command error (bad flags, unusable data directory)
)

// ExitError is an error with a specific exit code.
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
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

// errorCode names the error kind of err for JSON output.
func errorCode(err error) string {
	switch {
	case errors.Is(err, psicash.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, psicash.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, psicash.ErrStorage):
		return "storage_error"
	case errors.Is(err, psicash.ErrURLParse):
		return "url_parse_error"
	case errors.Is(err, psicash.ErrNoValidTokens):
		return "no_valid_tokens"
	case errors.Is(err, psicash.ErrNotInitialized):
		return "not_initialized"
	}
	return "error"
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	// Indent pretty-prints JSON output.
	Indent bool
}

// NewOutputFormatter returns a formatter writing to w. JSON is indented
// when w is a terminal.
func NewOutputFormatter(format string, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: format, Writer: w, Indent: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// CLIResponse is the JSON envelope of every result.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Success writes data. In text mode text renders it; a nil text prints
// data with fmt.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == config.FormatJSON {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	if text != nil {
		text(f.Writer)
		return nil
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes err in the configured format.
func (f *OutputFormatter) Error(err error) error {
	if f.Format == config.FormatJSON {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: errorCode(err), Message: err.Error()},
		})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error [%s]: %v\n", errorCode(err), err)
	return werr
}
