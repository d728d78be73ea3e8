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
	ErrPermission   ErrorCode = "PERMISSION"
	ErrCancelled    ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Identity and cache errors
	ErrIdentity   ErrorCode = "IDENTITY"
	ErrCacheRoot  ErrorCode = "CACHE_ROOT"
	ErrFetch      ErrorCode = "FETCH"
	ErrExtract    ErrorCode = "EXTRACT"
	ErrReleaseTag ErrorCode = "RELEASE_TAG"
	ErrChecksum   ErrorCode = "CHECKSUM"
	ErrSymlink    ErrorCode = "SYMLINK"

	// Mutation errors
	ErrSnippetConflict ErrorCode = "SNIPPET_CONFLICT"
	ErrFileAccess      ErrorCode = "FILE_ACCESS"
	ErrFileWrite       ErrorCode = "FILE_WRITE"
	ErrDirCreate       ErrorCode = "DIR_CREATE"
	ErrBackup          ErrorCode = "BACKUP"
	ErrCopy            ErrorCode = "COPY"

	// External collaborator errors
	ErrCommand    ErrorCode = "COMMAND"
	ErrDependency ErrorCode = "DEPENDENCY"
	ErrOperation  ErrorCode = "OPERATION"
)

// NyarchError represents a structured error with code and details
type NyarchError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *NyarchError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *NyarchError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a NyarchError with the same code
func (e *NyarchError) Is(target error) bool {
	var targetErr *NyarchError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new NyarchError with the given code and message
func New(code ErrorCode, message string) *NyarchError {
	return &NyarchError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new NyarchError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *NyarchError {
	return &NyarchError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error. A nil error yields nil.
func Wrap(err error, code ErrorCode, message string) *NyarchError {
	if err == nil {
		return nil
	}
	return &NyarchError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *NyarchError {
	if err == nil {
		return nil
	}
	return &NyarchError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *NyarchError) WithDetail(key string, value interface{}) *NyarchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *NyarchError) WithDetails(details map[string]interface{}) *NyarchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var nerr *NyarchError
	if errors.As(err, &nerr) {
		return nerr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown
func GetErrorCode(err error) ErrorCode {
	var nerr *NyarchError
	if errors.As(err, &nerr) {
		return nerr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var nerr *NyarchError
	if errors.As(err, &nerr) {
		return nerr.Details
	}
	return nil
}
