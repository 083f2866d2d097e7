package core

import "errors"

// TestStatus represents the lifecycle state of a single test case
type TestStatus int

const (
	StatusPending TestStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Assertion or timeout failure
	StatusBroken                    // Setup failed before the test body ran
	StatusSkipped                   // Filtered out or never reached
)

// String returns the string representation of TestStatus
func (s TestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusBroken:
		return "broken"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s TestStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusBroken, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFailure returns true for failed and broken tests.
func (s TestStatus) IsFailure() bool {
	return s == StatusFailed || s == StatusBroken
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, text mismatch
	ErrCategoryTimeout                         // Wait exhausted its timeout
	ErrCategoryConnection                      // Session missing or server unreachable
	ErrCategoryApp                             // App crashed or not installed
	ErrCategoryConfig                          // Missing or invalid configuration
	ErrCategoryPlatform                        // Unknown or unimplemented platform
	ErrCategoryArtifact                        // Screenshot or recording failure (non-fatal)
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryPlatform:
		return "platform"
	case ErrCategoryArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryNone
}

// StatusOf maps a test outcome to a status. Assertion and timeout errors
// fail the test; anything else means the test could not run properly.
func StatusOf(err error) TestStatus {
	if err == nil {
		return StatusPassed
	}
	switch CategoryOf(err) {
	case ErrCategoryAssertion, ErrCategoryTimeout:
		return StatusFailed
	default:
		return StatusBroken
	}
}
