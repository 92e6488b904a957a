// Package errors provides standardized error handling for the onboarding engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration errors are fatal at startup; the engine refuses to
	// initialize with a malformed step registry.
	ErrCodeRegistryInvalid ErrorCode = "REGISTRY_INVALID"

	// Collaborator errors are recovered locally via the synthetic-fallback
	// policy and never surface to the step-transition logic.
	ErrCodeSearchFailed  ErrorCode = "SEARCH_FAILED"
	ErrCodeSearchTimeout ErrorCode = "SEARCH_TIMEOUT"

	// User input errors are rejected at the submission boundary; the step
	// remains current.
	ErrCodeInvalidAnswer  ErrorCode = "INVALID_ANSWER"
	ErrCodeUnknownStep    ErrorCode = "UNKNOWN_STEP"
	ErrCodeStepNotCurrent ErrorCode = "STEP_NOT_CURRENT"
	ErrCodeInvalidRewind  ErrorCode = "INVALID_REWIND"

	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Staleness: a late async completion after rewind or re-submission.
	// Silently discarded, counted in metrics, never logged as a failure.
	ErrCodeStaleResult ErrorCode = "STALE_RESULT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf returns the error code of err if it is a StandardError.
func CodeOf(err error) (ErrorCode, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code, true
	}
	return "", false
}

// IsUserInput reports whether err should be rejected at the submission
// boundary with the step remaining current.
func IsUserInput(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrCodeInvalidAnswer, ErrCodeUnknownStep, ErrCodeStepNotCurrent, ErrCodeInvalidRewind:
		return true
	}
	return false
}

// IsNotFound reports whether err identifies a missing session.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeSessionNotFound
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRegistryInvalidError creates a fatal step-registry configuration error.
func NewRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInvalid,
		Message:   "Step registry is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable search collaborator error.
func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Search collaborator request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(mode string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search collaborator request timed out",
		Details:   fmt.Sprintf("mode: %s", mode),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidAnswerError creates a non-retryable user input error.
func NewInvalidAnswerError(stepID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAnswer,
		Message:   "Submitted answer is invalid",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"stepId": stepID},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownStepError creates a non-retryable error for an unrecognized step id.
func NewUnknownStepError(stepID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownStep,
		Message:   "Step id is not in the registry",
		Details:   fmt.Sprintf("stepId: %s", stepID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStepNotCurrentError creates a non-retryable error for submitting a step
// other than the current one.
func NewStepNotCurrentError(stepID string, currentIndex int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStepNotCurrent,
		Message:   "Step is not the current step",
		Details:   fmt.Sprintf("stepId: %s, currentIndex: %d", stepID, currentIndex),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRewindError creates a non-retryable error for an out-of-range
// rewind target.
func NewInvalidRewindError(index, currentIndex int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRewind,
		Message:   "Rewind target is out of range",
		Details:   fmt.Sprintf("index: %d, currentIndex: %d", index, currentIndex),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable missing-session error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStaleResultError marks an async completion that no longer matches the
// session position it was issued for.
func NewStaleResultError(stepID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStaleResult,
		Message:   "Async result is stale and was discarded",
		Details:   fmt.Sprintf("stepId: %s", stepID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to send match notification",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Categorization
// ==========================

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeRegistryInvalid:
		return "configuration"
	case ErrCodeSearchFailed, ErrCodeSearchTimeout:
		return "collaborator"
	case ErrCodeInvalidAnswer, ErrCodeUnknownStep, ErrCodeStepNotCurrent, ErrCodeInvalidRewind:
		return "user_input"
	case ErrCodeStaleResult:
		return "staleness"
	case ErrCodeSessionNotFound:
		return "session"
	default:
		return "internal"
	}
}
