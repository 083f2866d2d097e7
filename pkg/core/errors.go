package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code, so
// derived copies still match the predefined errors below.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Config errors abort the run before a session is opened.
	ErrConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "config",
		Message:  "configuration error",
	}
	ErrConfigNotFound = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "config_not_found",
		Message:  "configuration file does not exist",
	}
	ErrConfigDecode = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "config_decode",
		Message:  "configuration file is invalid",
	}
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingKey = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_key",
		Message:  "missing required key",
	}

	// Platform errors
	ErrUnsupportedPlatform = &ExecutionError{
		Category: ErrCategoryPlatform,
		Code:     "unsupported_platform",
		Message:  "unsupported platform",
	}

	// Assertion errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrTextMismatch = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "text_mismatch",
		Message:  "text does not match expected value",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}
	ErrTransientPredicate = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "transient_predicate",
		Message:  "predicate failed while polling",
	}

	// Connection errors
	ErrSessionNotOpen = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_not_open",
		Message:  "no automation session is open",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}

	// Artifact errors never fail a test.
	ErrRecording = &ExecutionError{
		Category: ErrCategoryArtifact,
		Code:     "recording",
		Message:  "screen recording failed",
	}
	ErrScreenshot = &ExecutionError{
		Category: ErrCategoryArtifact,
		Code:     "screenshot",
		Message:  "screenshot failed",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
