// Package errors provides structured error types for the arrestview query core.
// All errors include a category, code, message, and retryable flag so the
// transport layer can map them to a status without inspecting messages.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory classifies errors by the component that raised them.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryQuery      ErrorCategory = "QUERY"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeInvalidParameter = "INVALID_PARAMETER"

	// Storage codes
	CodePartitionUnavailable = "PARTITION_UNAVAILABLE"
	CodeDownloadFailed       = "DOWNLOAD_FAILED"
	CodeObjectNotFound       = "OBJECT_NOT_FOUND"
	CodeDecodeFailed         = "DECODE_FAILED"

	// Query codes
	CodeSchemaMismatch   = "SCHEMA_MISMATCH"
	CodeExecutionTimeout = "EXECUTION_TIMEOUT"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// Error is the structured error type used throughout the system.
type Error struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new Error.
func New(category ErrorCategory, code, message string) *Error {
	return &Error{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *Error {
	return &Error{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not an *Error.
func GetCategory(err error) ErrorCategory {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not an *Error.
func GetCode(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HasCode reports whether any *Error in the chain carries the given code.
func HasCode(err error, code string) bool {
	for err != nil {
		var ae *Error
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Code == code {
			return true
		}
		err = ae.Cause
	}
	return false
}

func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	case category == ErrCategoryStorage && code == CodePartitionUnavailable:
		return true
	case category == ErrCategoryQuery && code == CodeExecutionTimeout:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *Error {
	return New(ErrCategoryValidation, code, message)
}

func NewStorageError(code, message string, cause error) *Error {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewQueryError(code, message string) *Error {
	return New(ErrCategoryQuery, code, message)
}

func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}

// NewMissingParameter reports a required request parameter that was not supplied.
func NewMissingParameter(name string) *Error {
	return New(ErrCategoryValidation, CodeMissingParameter,
		fmt.Sprintf("%s parameter is required", name)).
		WithDetails(map[string]interface{}{"parameter": name})
}

// NewInvalidParameter reports a request parameter that could not be interpreted.
func NewInvalidParameter(name string, cause error) *Error {
	e := Wrap(ErrCategoryValidation, CodeInvalidParameter,
		fmt.Sprintf("invalid %s parameter", name), cause)
	return e.WithDetails(map[string]interface{}{"parameter": name})
}

// NewPartitionUnavailable reports that a year's partition could not be read.
func NewPartitionUnavailable(year int, cause error) *Error {
	e := Wrap(ErrCategoryStorage, CodePartitionUnavailable,
		fmt.Sprintf("partition for year %d is unavailable", year), cause)
	return e.WithDetails(map[string]interface{}{"year": year})
}

// NewSchemaMismatch reports columns required by a filter or projection that
// are absent from (or mistyped in) the table being queried.
func NewSchemaMismatch(columns []string) *Error {
	cols := append([]string(nil), columns...)
	sort.Strings(cols)
	e := New(ErrCategoryQuery, CodeSchemaMismatch,
		fmt.Sprintf("table is missing required columns: %s", strings.Join(cols, ", ")))
	return e.WithDetails(map[string]interface{}{"columns": cols})
}
