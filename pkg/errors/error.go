// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Malformed trade intents, parameters, configuration
//   - Orchestration errors (200-299): Admission rejection, idle stops, cancellation
//   - Provisioning errors (300-399): Resource bundle construction failures
//   - Trading errors (400-499): Business-rule rejections of trade intents
//   - Market data errors (500-599): Quote fetching and market session errors
//   - Persistence errors (600-699): Store and transaction failures
//   - External collaborator errors (700-799): Decision engine and tool failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeAgentBusy, "agent already running")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeTransactionFailed, "failed to commit trade", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeInsufficientFunds) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsBusinessRejection reports whether err is a business-rule rejection of a trade
// intent rather than an infrastructure failure. Callers (typically the decision
// engine's supervisor) may retry with a different intent on these, but should not
// retry the same intent.
func IsBusinessRejection(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidIntent, ErrCodeInvalidQuantity, ErrCodeInvalidAction,
		ErrCodeInsufficientFunds, ErrCodeInsufficientHoldings:
		return true
	default:
		return false
	}
}
