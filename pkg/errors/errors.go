package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Category groups application errors by the stage that raised them.
type Category string

const (
	CategorySource        Category = "source"
	CategoryStructure     Category = "structure"
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategoryLoad          Category = "load"
	CategoryInternal      Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// Source errors
	CodeNotFound    Code = "not_found"
	CodeUnreadable  Code = "unreadable"
	CodeNoYears     Code = "no_years"
	CodeListFailure Code = "list_failure"

	// Structure errors
	CodeMissingMarker Code = "missing_marker"
	CodeEmptySheet    Code = "empty_sheet"

	// Validation errors
	CodeInvalidRecord Code = "invalid_record"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"
	CodeUnknownTarget Code = "unknown_target"

	// Load errors
	CodeLoadFailed Code = "load_failed"
	CodeConnection Code = "connection_failed"
	CodeNoParts    Code = "no_parts"

	CodeUnexpected Code = "unexpected_error"
)

// AppError is the error type shared by every package of the ETL.
type AppError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context holds extra key/value detail attached to an error.
type Context map[string]interface{}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", msg, e.Suggestion)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error category to a process exit code.
func (e *AppError) ExitCode() int {
	switch e.Category {
	case CategorySource:
		return 2
	case CategoryStructure, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryLoad:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a hint for fixing the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates an AppError without a cause.
func New(category Category, code Code, message string) *AppError {
	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap attaches category and code to an existing error. Wrap(nil, ...) is nil.
func Wrap(err error, category Category, code Code, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// Specific constructors

// StructureError reports a sheet whose layout is missing a mandatory element.
func StructureError(code Code, sheet, detail string) *AppError {
	return New(CategoryStructure, code, fmt.Sprintf("unexpected layout in sheet %q: %s", sheet, detail)).
		WithSuggestion("check that the workbook matches the published CP format").
		WithContext("sheet", sheet)
}

// ConfigError reports an invalid configuration value.
func ConfigError(field string, value interface{}, detail string) *AppError {
	return New(CategoryConfiguration, CodeInvalidConfig, fmt.Sprintf("invalid %s %v: %s", field, value, detail)).
		WithContext("field", field)
}

// LoadError wraps a persistence failure for the given load method.
func LoadError(method, table string, err error) *AppError {
	return Wrap(err, CategoryLoad, CodeLoadFailed, fmt.Sprintf("%s failed", method)).
		WithContext("table", table)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError of the given category.
func Is(err error, category Category) bool {
	appErr, ok := As(err)
	return ok && appErr.Category == category
}

// ExitCode returns the exit code for any error, 1 when it is not an AppError.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := As(err); ok {
		return appErr.ExitCode()
	}
	return 1
}
