package services

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorMissingFields       ErrorCode = "MISSING_FIELDS"
	ErrorMissingSessionToken ErrorCode = "MISSING_SESSION_TOKEN"
	ErrorInvalidType         ErrorCode = "INVALID_TYPE"
	ErrorOutOfRange          ErrorCode = "OUT_OF_RANGE"
	ErrorNotFound            ErrorCode = "NOT_FOUND"
	ErrorInvalidBody         ErrorCode = "INVALID_BODY"
	ErrorMethodNotAllowed    ErrorCode = "METHOD_NOT_ALLOWED"
	ErrorInternal            ErrorCode = "INTERNAL_ERROR"
)

// Error is an expected, caller-facing rejection. Reason is the message sent
// back in the response body.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("services: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("services: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// ErrNotFound is returned by stores when no record matches.
var ErrNotFound = errors.New("prediction not found")

const notFoundReason = "Prediction not found or does not belong to this session"

// CodeOf extracts the ErrorCode of err, or ErrorInternal for anything else.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrorInternal
}
