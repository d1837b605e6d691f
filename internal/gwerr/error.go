// Package gwerr implements the tagged error taxonomy from the design
// notes: every expected failure in the pipeline (rate-limit, circuit,
// timeout, invalid input...) is represented as an explicit *Error value
// rather than an ad-hoc wrapped error or a panic. Programmer errors and
// truly unexpected faults are left as ordinary panics, recovered exactly
// once by the idempotency guard and the orchestrator's pipeline goroutine.
package gwerr

import (
	"errors"
	"fmt"
	"time"
)

// Code classifies a failure per §7 of the spec.
type Code string

const (
	CodeRateLimited       Code = "rate_limited"
	CodeNotFound          Code = "not_found"
	CodePermissionDenied  Code = "permission_denied"
	CodeInvalidRequest    Code = "invalid_request"
	CodeMessageTooLong    Code = "message_too_long"
	CodeFileTooLarge      Code = "file_too_large"
	CodeNetworkError      Code = "network_error"
	CodeTimeout           Code = "timeout"
	CodeServerError       Code = "server_error"
	CodeCircuitOpen       Code = "circuit_open"
	CodeSessionNotFound   Code = "session_not_found"
	CodeAlreadyProcessing Code = "already_processing"
	CodeCancelled         Code = "cancelled"
	CodeUnsupported       Code = "unsupported"
	CodeNotConnected      Code = "not_connected"
	CodeUnknown           Code = "unknown"
)

// defaultRetryable mirrors the taxonomy table in §7.
var defaultRetryable = map[Code]bool{
	CodeRateLimited:       true,
	CodeNotFound:          false,
	CodePermissionDenied:  false,
	CodeInvalidRequest:    false,
	CodeMessageTooLong:    false,
	CodeFileTooLarge:      false,
	CodeNetworkError:      true,
	CodeTimeout:           true,
	CodeServerError:       true,
	CodeCircuitOpen:       false,
	CodeSessionNotFound:   false,
	CodeAlreadyProcessing: false,
	CodeCancelled:         false,
	CodeUnsupported:       false,
	CodeNotConnected:      true,
	CodeUnknown:           false,
}

// Error is the tagged failure value carried through the pipeline.
type Error struct {
	Code         Code
	Message      string
	Retryable    bool
	RetryAfter   time.Duration
	PlatformData map[string]any
	cause        error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is/As reach a wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error with the taxonomy's default retryability.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: defaultRetryable[code]}
}

// Wrap builds an *Error carrying cause as its unwrap target.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Message: cause.Error(), Retryable: defaultRetryable[code], cause: cause}
}

// WithRetryAfter returns a copy of e with RetryAfter set.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	clone := *e
	clone.RetryAfter = d
	return &clone
}

// CodeOf extracts the Code of err, or CodeUnknown if err is not (or does
// not wrap) a *Error.
func CodeOf(err error) Code {
	var gwe *Error
	if errors.As(err, &gwe) {
		return gwe.Code
	}
	return CodeUnknown
}

// IsRetryable reports whether err is a *Error marked retryable.
func IsRetryable(err error) bool {
	var gwe *Error
	if errors.As(err, &gwe) {
		return gwe.Retryable
	}
	return false
}
