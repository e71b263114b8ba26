package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Storage errors
	ErrExeResolve ErrorCode = "EXE_RESOLVE"

	// FileSystem errors
	ErrFileRead      ErrorCode = "FILE_READ"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
	ErrDirRead       ErrorCode = "DIR_READ"
)

// ToolbeltError represents a structured error with code and details
type ToolbeltError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ToolbeltError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ToolbeltError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ToolbeltError) Is(target error) bool {
	var targetErr *ToolbeltError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ToolbeltError with the given code and message
func New(code ErrorCode, message string) *ToolbeltError {
	return &ToolbeltError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ToolbeltError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ToolbeltError {
	return &ToolbeltError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ToolbeltError
func Wrap(err error, code ErrorCode, message string) *ToolbeltError {
	if err == nil {
		return nil
	}
	return &ToolbeltError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ToolbeltError {
	if err == nil {
		return nil
	}
	return &ToolbeltError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ToolbeltError) WithDetail(key string, value interface{}) *ToolbeltError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var tbErr *ToolbeltError
	if errors.As(err, &tbErr) {
		return tbErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ToolbeltError
func GetErrorCode(err error) ErrorCode {
	var tbErr *ToolbeltError
	if errors.As(err, &tbErr) {
		return tbErr.Code
	}
	return ErrUnknown
}
