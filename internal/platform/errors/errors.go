package errors

import (
	"errors"
	"fmt"
)

// Error is the coded error that crosses service boundaries. Code is the
// stable identifier the locale catalogs key on, Message is internal text
// for logs, and Metadata feeds the catalog templates. Cause, when set,
// keeps the underlying failure reachable through errors.Is and errors.As.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
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

// Is matches by code alone, so a sentinel built with New compares equal to
// any error carrying the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New returns a coded error with an internal message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata returns a coded error carrying template values for the
// locale catalogs.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap returns a coded error that keeps cause on the chain.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithMetadata returns a coded error with both template values and a
// wrapped cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Cause:    cause,
	}
}

// GetCode reports the code of the first coded error on the chain, or
// CodeUnknown when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether the chain carries the given code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata returns the template metadata of the first coded error on the
// chain, or nil.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}
