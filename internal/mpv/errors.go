package mpv

import (
	"errors"
	"fmt"
)

// Error codes for playback operations.
const (
	ErrCodeInitFailed     = "INIT_FAILED"
	ErrCodeTargetNotFound = "TARGET_NOT_FOUND"
	ErrCodeInvalidOptions = "INVALID_OPTIONS"
	ErrCodeNotInitialized = "NOT_INITIALIZED"
)

// Error represents a playback error with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
