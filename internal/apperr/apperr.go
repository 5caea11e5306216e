// Package apperr defines the typed error codes surfaced to callers of the
// prompt pipeline. Codes are transport-neutral; the HTTP, MCP and CLI layers
// translate them into their own representations.
package apperr

import (
	"errors"
	"fmt"
)

// Code enumerates the caller-visible failure classes.
type Code string

const (
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeQuotaExceeded      Code = "QUOTA_EXCEEDED"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeUnclearTask        Code = "UNCLEAR_TASK"
)

// Input validation reasons carried by CodeInvalidInput.
const (
	ReasonTooShort = "too_short"
	ReasonTooLong  = "too_long"
)

// Error is a typed failure. Only the field matching Code is populated:
// Reason for INVALID_INPUT, SERVICE_UNAVAILABLE and UNCLEAR_TASK, Scope for
// RATE_LIMITED and Kind for QUOTA_EXCEEDED.
type Error struct {
	Code   Code
	Reason string
	Scope  string
	Kind   string
	Err    error
}

func (e *Error) Error() string {
	detail := e.Reason
	switch e.Code {
	case CodeRateLimited:
		detail = e.Scope
	case CodeQuotaExceeded:
		detail = e.Kind
	}
	msg := string(e.Code)
	if detail != "" {
		msg += "{" + detail + "}"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, apperr.RateLimited(""))
// style comparisons work without caring about detail fields.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated}
}

func InvalidInput(reason string) *Error {
	return &Error{Code: CodeInvalidInput, Reason: reason}
}

func RateLimited(scope string) *Error {
	return &Error{Code: CodeRateLimited, Scope: scope}
}

func QuotaExceeded(kind string) *Error {
	return &Error{Code: CodeQuotaExceeded, Kind: kind}
}

func ServiceUnavailable(reason string, cause error) *Error {
	return &Error{Code: CodeServiceUnavailable, Reason: reason, Err: cause}
}

func UnclearTask(reason string) *Error {
	return &Error{Code: CodeUnclearTask, Reason: reason}
}

// As extracts the typed error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first typed error in err's chain, or "".
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage renders a short, non-leaking message suitable for display.
// Untyped errors collapse to a generic failure notice.
func UserMessage(err error) string {
	e, ok := As(err)
	if !ok {
		return "Something went wrong. Please try again."
	}
	switch e.Code {
	case CodeUnauthenticated:
		return "Please sign in to continue."
	case CodeInvalidInput:
		if e.Reason == ReasonTooLong {
			return "That task is too long. Please shorten it."
		}
		return "That task is too short. Please add a bit more detail."
	case CodeRateLimited:
		return "You're going a little fast. Please wait a minute and try again."
	case CodeQuotaExceeded:
		return fmt.Sprintf("You've used all of your %s requests for this billing period.", kindLabel(e.Kind))
	case CodeServiceUnavailable:
		return "The prompt service is temporarily unavailable. Please try again later."
	case CodeUnclearTask:
		return "That doesn't look like a clear task: " + e.Reason
	default:
		return "Something went wrong. Please try again."
	}
}

func kindLabel(kind string) string {
	switch kind {
	case "generation":
		return "prompt generation"
	case "clarifying":
		return "clarifying question"
	case "":
		return "available"
	default:
		return kind
	}
}
