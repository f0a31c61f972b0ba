package server

import "fmt"

// ErrorCode classifies MCP tool errors for structured error handling
type ErrorCode string

const (
	// ErrInvalidInput indicates invalid or malformed input parameters
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrNotFound indicates the requested data does not exist
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrDatabaseError indicates a database operation failed
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrInternalError indicates an unexpected internal error
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// ToolError is returned from tool and resource handlers so clients can tell
// bad input from server faults
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInputError creates an error for invalid input parameters
func NewInvalidInputError(msg string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg}
}

// NewInvalidInputErrorWithDetails creates an invalid input error carrying the offending value
func NewInvalidInputErrorWithDetails(msg, details string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg, Details: details}
}

// NewNotFoundError creates an error for missing data
func NewNotFoundError(what, details string) *ToolError {
	return &ToolError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", what), Details: details}
}

// NewDatabaseError creates an error for a failed database operation
func NewDatabaseError(operation string, err error) *ToolError {
	return &ToolError{
		Code:    ErrDatabaseError,
		Message: fmt.Sprintf("Database %s failed", operation),
		Details: err.Error(),
	}
}

// NewInternalErrorWithCause creates an internal error wrapping another error
func NewInternalErrorWithCause(msg string, err error) *ToolError {
	return &ToolError{
		Code:    ErrInternalError,
		Message: msg,
		Details: err.Error(),
	}
}
