// Package errors provides structured error types for the debug adapter.
// Request-level failures carry a machine-readable code plus a message
// suitable for display in the IDE.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Validation errors
	CodeInvalidPathFormat  ErrorCode = "INVALID_PATH_FORMAT"
	CodeInvalidThread      ErrorCode = "INVALID_THREAD"
	CodeUnknownHandle      ErrorCode = "UNKNOWN_HANDLE"
	CodeBadSourceReference ErrorCode = "BAD_SOURCE_REFERENCE"
	CodeNoCallStack        ErrorCode = "NO_CALL_STACK"
	CodeInvalidStackFrame  ErrorCode = "INVALID_STACK_FRAME"

	// Session errors
	CodeNotConnected ErrorCode = "NOT_CONNECTED"
	CodeAttachFailed ErrorCode = "ATTACH_FAILED"

	// Runtime errors
	CodeBreakpointUnresolved ErrorCode = "BREAKPOINT_UNRESOLVED"
	CodeEvaluationFailed     ErrorCode = "EVALUATION_FAILED"
	CodeSetVariableFailed    ErrorCode = "SET_VARIABLE_FAILED"
	CodeUnsupportedRuntime   ErrorCode = "UNSUPPORTED_RUNTIME"
)

// DebugError is a structured error type carried on failed DAP requests.
type DebugError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a display-ready description of what went wrong
	Message string `json:"message"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DebugError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for error chaining
func (e *DebugError) Unwrap() error {
	return e.Cause
}

// --- Validation errors ---

// InvalidPathFormat creates an error for an unsupported initialize pathFormat
func InvalidPathFormat(format string) *DebugError {
	return &DebugError{
		Code:    CodeInvalidPathFormat,
		Message: fmt.Sprintf("unsupported path format: %s (only 'path' is supported)", format),
	}
}

// InvalidThread creates an error for a thread id other than the single thread
func InvalidThread(threadID int) *DebugError {
	return &DebugError{
		Code:    CodeInvalidThread,
		Message: fmt.Sprintf("invalid thread id: %d", threadID),
	}
}

// UnknownHandle creates an error for a stale or unknown handle
func UnknownHandle(kind string, handle int) *DebugError {
	return &DebugError{
		Code:    CodeUnknownHandle,
		Message: fmt.Sprintf("unknown %s handle: %d", kind, handle),
	}
}

// BadSourceReference creates an error for a source reference without a container
func BadSourceReference(ref int) *DebugError {
	return &DebugError{
		Code:    CodeBadSourceReference,
		Message: fmt.Sprintf("source not available for reference %d", ref),
	}
}

// NoCallStack creates an error for stack requests while running
func NoCallStack() *DebugError {
	return &DebugError{
		Code:    CodeNoCallStack,
		Message: "no call stack available",
	}
}

// InvalidStackFrame creates an error for a frame id not valid in this pause
func InvalidStackFrame(frameID int) *DebugError {
	return &DebugError{
		Code:    CodeInvalidStackFrame,
		Message: fmt.Sprintf("stack frame not valid: %d", frameID),
	}
}

// --- Session errors ---

// NotConnected creates an error for operations before attach completes
func NotConnected() *DebugError {
	return &DebugError{
		Code:    CodeNotConnected,
		Message: "runtime is not connected",
	}
}

// AttachFailed creates an error when the runtime connection cannot be opened
func AttachFailed(err error) *DebugError {
	return &DebugError{
		Code:    CodeAttachFailed,
		Message: fmt.Sprintf("failed to attach: %v", err),
		Cause:   err,
	}
}

// --- Runtime errors ---

// BreakpointUnresolved creates an error for a breakpoint with no target script
func BreakpointUnresolved(path string) *DebugError {
	return &DebugError{
		Code:    CodeBreakpointUnresolved,
		Message: fmt.Sprintf("no script loaded for %s", path),
	}
}

// EvaluationFailed creates an error for a failed expression evaluation
func EvaluationFailed(text string) *DebugError {
	return &DebugError{
		Code:    CodeEvaluationFailed,
		Message: text,
	}
}

// SetVariableFailed creates an error for a failed variable assignment
func SetVariableFailed(name string, err error) *DebugError {
	return &DebugError{
		Code:    CodeSetVariableFailed,
		Message: fmt.Sprintf("failed to set %s: %v", name, err),
		Cause:   err,
	}
}

// FromError creates a DebugError from a generic error, preserving any
// existing structure
func FromError(err error) *DebugError {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de
	}
	return &DebugError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}
