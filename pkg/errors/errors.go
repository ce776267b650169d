package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gfmclip/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess       ExitCode = 0
	ExitCodeGeneral       ExitCode = 1
	ExitCodeConfig        ExitCode = 2
	ExitCodeValidation    ExitCode = 6
	ExitCodeFileOperation ExitCode = 7
	ExitCodeClipboard     ExitCode = 11
	ExitCodeUnsupported   ExitCode = 12
	ExitCodeServer        ExitCode = 13
)

// Standardized error messages for consistent user-facing errors
const (
	ErrMsgReadInput      = "Failed to read input"
	ErrMsgParseHTML      = "Failed to parse HTML"
	ErrMsgSerialize      = "Failed to serialize selection"
	ErrMsgClipboardWrite = "Failed to write clipboard"
	ErrMsgClipboardRead  = "Failed to read clipboard"
	ErrMsgPayloadDecode  = "Failed to decode clipboard payload"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func WrapWithCode(err error, code ExitCode, message string) *Error {
	if err == nil {
		return nil
	}

	var errMsg string
	if wrapped, ok := err.(*Error); ok {
		errMsg = wrapped.Message
		if wrapped.Underlying != nil {
			errMsg += ": " + wrapped.Underlying.Error()
		}
	} else {
		errMsg = err.Error()
	}

	return &Error{
		Code:       code,
		Message:    message + ": " + errMsg,
		Underlying: err,
	}
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}

	return false
}

// Skip is returned by event handlers that leave an event to the platform
// default. A skip is logged, never shown.
type Skip struct {
	Reason string
}

func (s *Skip) Error() string {
	return s.Reason
}

var (
	ErrUnsupportedEnvironment = &Skip{Reason: "multi-format clipboard carrier not available"}
	ErrEmptySelection         = &Skip{Reason: "nothing selected"}
	ErrNoStructuredPayload    = &Skip{Reason: "no structured markup payload"}
	ErrNoEditable             = &Skip{Reason: "paste target is not editable"}
)

// IsSkip reports whether err, or anything it wraps, is a Skip.
func IsSkip(err error) bool {
	var s *Skip
	return stderrors.As(err, &s)
}

// HandleReturn processes an error and returns the appropriate exit code.
// The caller is responsible for exiting the program.
func HandleReturn(err error) ExitCode {
	return handle(os.Stderr, err)
}

func handle(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Message
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Msg(e.Message)
			message = e.Error()
		} else {
			logger.Error().Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, message)

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(w, line)
			} else {
				if strings.HasPrefix(line, "  -") {
					cyan.Fprintln(w, line)
				} else {
					fmt.Fprintln(w, "           "+line)
				}
			}
		}
	}

	fmt.Fprintln(w)

	return exitCode
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file (gfmclip config path) or the GFMCLIP_* environment variables.",
	}
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func FileError(path string, err error) *Error {
	return &Error{
		Code:       ExitCodeFileOperation,
		Message:    fmt.Sprintf("cannot access %s", path),
		Underlying: err,
	}
}

func ClipboardError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgClipboardWrite,
		Underlying: err,
		Suggestion: "Use --stdout to print the payload instead of writing the system clipboard.",
	}
}

func ClipboardReadError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgClipboardRead,
		Underlying: err,
		Suggestion: "Pass a saved copy with --payload, or use --last to paste the newest recorded copy.",
	}
}

func UnsupportedError(feature string) *Error {
	return &Error{
		Code:       ExitCodeUnsupported,
		Message:    fmt.Sprintf("%s is not supported on this platform", feature),
		Suggestion: "Multi-format clipboard needs a Wayland compositor with wlr-data-control.\nOn other platforms only plain text is copied.",
	}
}

func ProfileNotFoundError(name string, similar []string) *Error {
	suggestionText := "Use 'gfmclip config profiles' to list available profiles."
	if len(similar) > 0 {
		suggestionText = "Did you mean:\n"
		for _, s := range similar {
			suggestionText += fmt.Sprintf("  - %s\n", s)
		}
		suggestionText += "\nOr use 'gfmclip config profiles' to see all profiles."
	}
	return &Error{
		Code:       ExitCodeConfig,
		Message:    fmt.Sprintf("Profile '%s' not found", name),
		Suggestion: suggestionText,
	}
}

// CommandError wraps errors from command handlers with consistent formatting.
func CommandError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}
